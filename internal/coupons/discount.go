package coupons

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Validate checks whether the coupon can be applied to an order of the
// given items total at the given time.
func Validate(coupon *models.Coupon, itemsTotal decimal.Decimal, now time.Time) error {
	if coupon == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "invalid coupon")
	}
	if coupon.Status != enums.CouponStatusActive {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon inactive")
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(now) {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon expired")
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit reached")
	}
	if itemsTotal.LessThan(coupon.MinOrderAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"minimum order ₹"+coupon.MinOrderAmount.StringFixed(0)+" required")
	}
	return nil
}

// Discount computes the rupee discount the coupon grants on itemsTotal:
// percent values are capped at MaxDiscount when set, flat values apply
// as-is, and the result never exceeds itemsTotal. Rounded to two decimals.
func Discount(coupon *models.Coupon, itemsTotal decimal.Decimal) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case enums.DiscountTypePercent:
		discount = itemsTotal.Mul(coupon.Value).Div(oneHundred)
		if coupon.MaxDiscount != nil && discount.GreaterThan(*coupon.MaxDiscount) {
			discount = *coupon.MaxDiscount
		}
	case enums.DiscountTypeFlat:
		discount = coupon.Value
	}

	if discount.GreaterThan(itemsTotal) {
		discount = itemsTotal
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}
