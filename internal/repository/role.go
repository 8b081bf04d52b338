package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dmarulanda/muninet/internal/models"
)

type RoleRepository struct {
	DB *gorm.DB
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}
