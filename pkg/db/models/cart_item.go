package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem links a customer to a variant they intend to buy. PriceAtAdd
// is informational only; checkout always reprices from the live variant.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index:cart_items_customer_id_idx;uniqueIndex:cart_items_customer_variant_key"`
	VariantID  uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:cart_items_customer_variant_key"`
	Quantity   int             `gorm:"column:quantity;not null"`
	PriceAtAdd decimal.Decimal `gorm:"column:price_at_add;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
