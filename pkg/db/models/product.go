package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledovalley/storefront-backend/pkg/enums"
)

// Product represents a catalog listing. Variant-level pricing and stock
// live on ProductVariant.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string              `gorm:"column:title;not null"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex"`
	Description *string             `gorm:"column:description"`
	Category    string              `gorm:"column:category;not null;index"`
	ImageURLs   []string            `gorm:"column:image_urls;type:jsonb;serializer:json"`
	Status      enums.ProductStatus `gorm:"column:status;type:text;not null;default:'ACTIVE'"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
