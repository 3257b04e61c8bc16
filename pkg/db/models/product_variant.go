package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

// ProductVariant carries the sellable unit: price, optional discount,
// stock, and the physical measurements the carrier needs.
type ProductVariant struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	SKU           string              `gorm:"column:sku;not null;uniqueIndex"`
	Title         string              `gorm:"column:title;not null"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountType  *enums.DiscountType `gorm:"column:discount_type;type:text"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null;default:0"`
	Stock         int                 `gorm:"column:stock;not null;default:0"`
	Weight        types.Weight        `gorm:"column:weight;type:jsonb;serializer:json"`
	Dimensions    types.Dimensions    `gorm:"column:dimensions;type:jsonb;serializer:json"`
	Status        enums.VariantStatus `gorm:"column:status;type:text;not null;default:'ACTIVE'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
