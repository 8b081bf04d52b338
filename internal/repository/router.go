package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dmarulanda/muninet/internal/models"
)

type RouterRepository struct {
	DB *gorm.DB
}

func (r *RouterRepository) Create(ctx context.Context, rt *models.Router) error {
	return r.DB.WithContext(ctx).Create(rt).Error
}

func (r *RouterRepository) GetByID(ctx context.Context, id uint) (*models.Router, error) {
	var rt models.Router
	if err := r.DB.WithContext(ctx).First(&rt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

// List optionally filters by municipality when municipalityID is non-nil.
func (r *RouterRepository) List(ctx context.Context, municipalityID *uint, offset, limit int) ([]models.Router, int64, error) {
	var (
		items []models.Router
		total int64
	)
	tx := r.DB.WithContext(ctx).Model(&models.Router{})
	if municipalityID != nil {
		tx = tx.Where("municipality_id = ?", *municipalityID)
	}
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := tx.Offset(offset).Limit(limit).Order("id").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *RouterRepository) Update(ctx context.Context, rt *models.Router) error {
	return r.DB.WithContext(ctx).Save(rt).Error
}

func (r *RouterRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Router{}, id).Error
}
