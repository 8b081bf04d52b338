package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dmarulanda/muninet/internal/models"
)

// UserRepository is the identity directory: every lookup the auth core
// needs, over GORM. Soft-deleted rows are excluded by gorm.DeletedAt on
// the model, so no query here has to repeat that filter.
type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// FindByID is the post-authentication read path; the password hash is
// scrubbed before the record leaves the repository.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := r.findOne(ctx, "id = ?", id)
	if err != nil || user == nil {
		return user, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Role").Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create persists the minimal fields only; the caller re-fetches by id
// to obtain the joined role data.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Omit("Role").Create(user).Error
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", &now).Error
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where(query, arg).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
