package coupons

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func activeCoupon() *models.Coupon {
	return &models.Coupon{
		Code:   "TEA10",
		Type:   enums.DiscountTypePercent,
		Value:  d("10"),
		Status: enums.CouponStatusActive,
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	limit := 5

	cases := []struct {
		name       string
		mutate     func(*models.Coupon)
		itemsTotal string
		wantCode   pkgerrors.Code
	}{
		{"ok", func(c *models.Coupon) {}, "1000", ""},
		{"inactive", func(c *models.Coupon) { c.Status = enums.CouponStatusInactive }, "1000", pkgerrors.CodeConflict},
		{"expired", func(c *models.Coupon) { c.ExpiresAt = &past }, "1000", pkgerrors.CodeConflict},
		{"not yet expired", func(c *models.Coupon) { c.ExpiresAt = &future }, "1000", ""},
		{"usage limit reached", func(c *models.Coupon) { c.UsageLimit = &limit; c.UsedCount = 5 }, "1000", pkgerrors.CodeConflict},
		{"under usage limit", func(c *models.Coupon) { c.UsageLimit = &limit; c.UsedCount = 4 }, "1000", ""},
		{"below minimum order", func(c *models.Coupon) { c.MinOrderAmount = d("500") }, "499", pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coupon := activeCoupon()
			tc.mutate(coupon)
			err := Validate(coupon, d(tc.itemsTotal), now)
			if tc.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.wantCode, pkgerrors.CodeOf(err))
		})
	}
}

func TestDiscount(t *testing.T) {
	maxDiscount := d("50")

	cases := []struct {
		name       string
		coupon     *models.Coupon
		itemsTotal string
		want       string
	}{
		{
			"percent",
			&models.Coupon{Type: enums.DiscountTypePercent, Value: d("10")},
			"1000", "100",
		},
		{
			"percent capped at max",
			&models.Coupon{Type: enums.DiscountTypePercent, Value: d("10"), MaxDiscount: &maxDiscount},
			"1000", "50",
		},
		{
			"flat",
			&models.Coupon{Type: enums.DiscountTypeFlat, Value: d("75")},
			"1000", "75",
		},
		{
			"flat capped at items total",
			&models.Coupon{Type: enums.DiscountTypeFlat, Value: d("1500")},
			"1000", "1000",
		},
		{
			"percent rounding",
			&models.Coupon{Type: enums.DiscountTypePercent, Value: d("7.5")},
			"333", "24.98",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Discount(tc.coupon, d(tc.itemsTotal))
			assert.True(t, got.Equal(d(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}
