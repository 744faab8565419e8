package sql

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saveblush/gallery-node/core/generic"
	"github.com/saveblush/gallery-node/core/utils"
	"github.com/saveblush/gallery-node/core/utils/logger"
	"github.com/saveblush/gallery-node/models"
)

func createDatabase(cf *Configuration) error {
	dsn := fmt.Sprintf("user=%s password=%s host=%s port=%d sslmode=disable TimeZone=%s",
		cf.Username,
		cf.Password,
		cf.Host,
		cf.Port,
		utils.TimeZone(),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	var exc string
	sql := "SELECT 'CREATE DATABASE " + cf.DatabaseName + "' WHERE NOT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)"
	err = db.Raw(sql, cf.DatabaseName).Scan(&exc).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Errorf("check already database error: %s", err)
	}
	if !generic.IsEmpty(exc) {
		err := db.Exec(exc).Error
		if err != nil {
			logger.Log.Errorf("create database error: %s", err)
			return err
		}
	}

	return nil
}

// Migration migrate gallery store tables
func Migration(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.StoredFilter{},
		&models.StoredSettings{},
		&models.BlacklistTag{},
		&models.PromptFilterTag{},
		&models.FavoritePost{},
	)
	if err != nil {
		logger.Log.Errorf("db migration error: %s", err)
		return err
	}

	return nil
}
