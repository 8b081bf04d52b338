package models

import (
	"time"

	"gorm.io/gorm"
)

type Role struct {
	ID          uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string   `gorm:"unique;not null"          json:"name"`
	Permissions []string `gorm:"serializer:json"          json:"permissions"`
}

type User struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string         `gorm:"uniqueIndex;not null"     json:"username"`
	Email          string         `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash   string         `gorm:"not null"                 json:"-"`
	RoleID         uint           `gorm:"index;not null"           json:"role_id"`
	Role           Role           `json:"role"`
	MunicipalityID *uint          `gorm:"index"                    json:"municipality_id,omitempty"`
	Active         bool           `gorm:"default:true"             json:"active"`
	LastLoginAt    *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index"                    json:"-"`
}

// PublicUser is the outward-facing representation of a user. It has no
// password-hash field at all, so no serialization path can leak one.
type PublicUser struct {
	ID             uint       `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	RoleID         uint       `json:"role_id"`
	Role           string     `json:"role"`
	Permissions    []string   `json:"permissions"`
	MunicipalityID *uint      `json:"municipality_id,omitempty"`
	Active         bool       `json:"active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Sanitize copies the user into its public shape. The receiver is not
// modified.
func (u User) Sanitize() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		RoleID:         u.RoleID,
		Role:           u.Role.Name,
		Permissions:    u.Role.Permissions,
		MunicipalityID: u.MunicipalityID,
		Active:         u.Active,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

type Municipality struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string         `gorm:"uniqueIndex;not null"     json:"name"`
	Code      string         `gorm:"uniqueIndex;not null"     json:"code"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"                    json:"-"`
}

type Router struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Hostname       string         `gorm:"uniqueIndex;not null"     json:"hostname"`
	IPAddress      string         `gorm:"not null"                 json:"ip_address"`
	Model          string         `json:"model"`
	MunicipalityID uint           `gorm:"index;not null"           json:"municipality_id"`
	Online         bool           `gorm:"default:false"            json:"online"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index"                    json:"-"`
}

type Invoice struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Number         string         `gorm:"uniqueIndex;not null"     json:"number"`
	UserID         uint           `gorm:"index;not null"           json:"user_id"`
	MunicipalityID uint           `gorm:"index;not null"           json:"municipality_id"`
	Amount         float64        `gorm:"not null"                 json:"amount"`
	Period         string         `gorm:"not null"                 json:"period"`
	Status         string         `gorm:"not null;default:pending" json:"status"`
	Notes          string         `json:"notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index"                    json:"-"`
}
