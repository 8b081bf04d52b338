package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dmarulanda/muninet/internal/models"
)

type MunicipalityRepository struct {
	DB *gorm.DB
}

func (r *MunicipalityRepository) Create(ctx context.Context, m *models.Municipality) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *MunicipalityRepository) GetByID(ctx context.Context, id uint) (*models.Municipality, error) {
	var m models.Municipality
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MunicipalityRepository) List(ctx context.Context, offset, limit int) ([]models.Municipality, int64, error) {
	var (
		items []models.Municipality
		total int64
	)
	tx := r.DB.WithContext(ctx).Model(&models.Municipality{})
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := tx.Offset(offset).Limit(limit).Order("id").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *MunicipalityRepository) Update(ctx context.Context, m *models.Municipality) error {
	return r.DB.WithContext(ctx).Save(m).Error
}

func (r *MunicipalityRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Municipality{}, id).Error
}
