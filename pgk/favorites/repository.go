package favorites

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saveblush/gallery-node/models"
)

// Repository repository interface
type Repository interface {
	FindAll(db *gorm.DB) ([]*models.FavoritePost, error)
	Find(db *gorm.DB, postID string) (*models.FavoritePost, error)
	Insert(db *gorm.DB, req *models.FavoritePost) error
	Delete(db *gorm.DB, postID string) error
}

type repository struct {
	ctx context.Context
}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) FindAll(db *gorm.DB) ([]*models.FavoritePost, error) {
	entities := []*models.FavoritePost{}
	err := db.WithContext(r.ctx).Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *repository) Find(db *gorm.DB, postID string) (*models.FavoritePost, error) {
	entities := &models.FavoritePost{}
	err := db.WithContext(r.ctx).Limit(1).Where("post_id = ?", postID).Find(entities).Error
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *repository) Insert(db *gorm.DB, req *models.FavoritePost) error {
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(req).Error
	if err != nil {
		return err
	}

	return nil
}

func (r *repository) Delete(db *gorm.DB, postID string) error {
	err := db.Where("post_id = ?", postID).Delete(&models.FavoritePost{}).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}
