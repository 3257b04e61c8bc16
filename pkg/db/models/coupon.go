package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/enums"
)

// Coupon is an admin-managed discount code.
type Coupon struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex"`
	Type           enums.DiscountType `gorm:"column:type;type:text;not null"`
	Value          decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MaxDiscount    *decimal.Decimal   `gorm:"column:max_discount;type:numeric(12,2)"`
	MinOrderAmount decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,2);not null;default:0"`
	UsageLimit     *int               `gorm:"column:usage_limit"`
	UsedCount      int                `gorm:"column:used_count;not null;default:0"`
	ExpiresAt      *time.Time         `gorm:"column:expires_at"`
	Status         enums.CouponStatus `gorm:"column:status;type:text;not null;default:'ACTIVE'"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
