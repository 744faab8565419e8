package settingstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saveblush/gallery-node/models"
)

// Repository repository interface
type Repository interface {
	FindFilter(db *gorm.DB, nodeKey string) (*models.StoredFilter, error)
	UpsertFilter(db *gorm.DB, req *models.StoredFilter) error
	FindSettings(db *gorm.DB, nodeKey string) (*models.StoredSettings, error)
	UpsertSettings(db *gorm.DB, req *models.StoredSettings) error
	FindBlacklistTags(db *gorm.DB) ([]*models.BlacklistTag, error)
	InsertBlacklistTag(db *gorm.DB, req *models.BlacklistTag) error
	DeleteBlacklistTag(db *gorm.DB, tag string) error
	FindPromptFilterTags(db *gorm.DB) ([]*models.PromptFilterTag, error)
	InsertPromptFilterTag(db *gorm.DB, req *models.PromptFilterTag) error
	DeletePromptFilterTag(db *gorm.DB, tag string) error
}

type repository struct {
	ctx context.Context
}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) FindFilter(db *gorm.DB, nodeKey string) (*models.StoredFilter, error) {
	entities := &models.StoredFilter{}
	err := db.WithContext(r.ctx).Limit(1).Where("node_key = ?", nodeKey).Find(entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *repository) UpsertFilter(db *gorm.DB, req *models.StoredFilter) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "node_key"}},
		UpdateAll: true,
	}).Create(req).Error
	if err != nil {
		return err
	}

	return nil
}

func (r *repository) FindSettings(db *gorm.DB, nodeKey string) (*models.StoredSettings, error) {
	entities := &models.StoredSettings{}
	err := db.WithContext(r.ctx).Limit(1).Where("node_key = ?", nodeKey).Find(entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *repository) UpsertSettings(db *gorm.DB, req *models.StoredSettings) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "node_key"}},
		UpdateAll: true,
	}).Create(req).Error
	if err != nil {
		return err
	}

	return nil
}

func (r *repository) FindBlacklistTags(db *gorm.DB) ([]*models.BlacklistTag, error) {
	entities := []*models.BlacklistTag{}
	err := db.WithContext(r.ctx).Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *repository) InsertBlacklistTag(db *gorm.DB, req *models.BlacklistTag) error {
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(req).Error
	if err != nil {
		return err
	}

	return nil
}

func (r *repository) DeleteBlacklistTag(db *gorm.DB, tag string) error {
	err := db.Where("tag = ?", tag).Delete(&models.BlacklistTag{}).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}

func (r *repository) FindPromptFilterTags(db *gorm.DB) ([]*models.PromptFilterTag, error) {
	entities := []*models.PromptFilterTag{}
	err := db.WithContext(r.ctx).Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *repository) InsertPromptFilterTag(db *gorm.DB, req *models.PromptFilterTag) error {
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(req).Error
	if err != nil {
		return err
	}

	return nil
}

func (r *repository) DeletePromptFilterTag(db *gorm.DB, tag string) error {
	err := db.Where("tag = ?", tag).Delete(&models.PromptFilterTag{}).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}
