package types

import (
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CouponSnapshot freezes the applied coupon on an order. The computed
// discount amount is stored alongside the coupon terms so later coupon edits
// cannot change what the customer actually paid.
type CouponSnapshot struct {
	Code           string             `json:"code"`
	Type           enums.DiscountType `json:"type"`
	Value          decimal.Decimal    `json:"value"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
}
