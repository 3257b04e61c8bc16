package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a phone-verified shopper identity.
type Customer struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone       string     `gorm:"column:phone;not null;uniqueIndex"`
	Name        string     `gorm:"column:name;not null"`
	Email       *string    `gorm:"column:email"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
