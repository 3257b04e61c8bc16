package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/types"
)

// OrderItem captures the snapshot of each purchased variant.
type OrderItem struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	VariantID    uuid.UUID        `gorm:"column:variant_id;type:uuid;not null"`
	Title        string           `gorm:"column:title;not null"`
	VariantTitle string           `gorm:"column:variant_title;not null"`
	SKU          string           `gorm:"column:sku;not null"`
	ImageURL     *string          `gorm:"column:image_url"`
	UnitPrice    decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity     int              `gorm:"column:quantity;not null"`
	LineTotal    decimal.Decimal  `gorm:"column:line_total;type:numeric(12,2);not null"`
	Weight       types.Weight     `gorm:"column:weight;type:jsonb;serializer:json"`
	Dimensions   types.Dimensions `gorm:"column:dimensions;type:jsonb;serializer:json"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}
