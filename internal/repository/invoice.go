package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dmarulanda/muninet/internal/models"
)

type InvoiceRepository struct {
	DB *gorm.DB
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	return r.DB.WithContext(ctx).Create(inv).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.DB.WithContext(ctx).First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Invoice, int64, error) {
	var (
		items []models.Invoice
		total int64
	)
	tx := r.DB.WithContext(ctx).Model(&models.Invoice{}).Where("user_id = ?", userID)
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := tx.Offset(offset).Limit(limit).Order("id desc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *models.Invoice) error {
	return r.DB.WithContext(ctx).Save(inv).Error
}

func (r *InvoiceRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Invoice{}, id).Error
}
