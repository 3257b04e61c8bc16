package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ledovalley/storefront-backend/pkg/enums"
)

func TestVariantAvailable(t *testing.T) {
	cases := []struct {
		name          string
		productStatus enums.ProductStatus
		variantStatus enums.VariantStatus
		stock         int
		want          bool
	}{
		{"all good", enums.ProductStatusActive, enums.VariantStatusActive, 5, true},
		{"product inactive", enums.ProductStatusInactive, enums.VariantStatusActive, 5, false},
		{"product draft", enums.ProductStatusDraft, enums.VariantStatusActive, 5, false},
		{"variant inactive", enums.ProductStatusActive, enums.VariantStatusInactive, 5, false},
		{"zero stock", enums.ProductStatusActive, enums.VariantStatusActive, 0, false},
		{"negative stock", enums.ProductStatusActive, enums.VariantStatusActive, -1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, VariantAvailable(tc.productStatus, tc.variantStatus, tc.stock))
		})
	}
}

func TestFinalPrice(t *testing.T) {
	percent := enums.DiscountTypePercent
	flat := enums.DiscountTypeFlat

	cases := []struct {
		name         string
		price        string
		discountType *enums.DiscountType
		value        string
		want         string
	}{
		{"no discount", "499", nil, "0", "499"},
		{"percent", "500", &percent, "10", "450"},
		{"percent rounding", "333", &percent, "7.5", "308.03"},
		{"flat", "500", &flat, "60", "440"},
		{"flat exceeds price", "50", &flat, "80", "0"},
		{"zero value ignored", "500", &percent, "0", "500"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FinalPrice(decimal.RequireFromString(tc.price), tc.discountType, decimal.RequireFromString(tc.value))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"got %s want %s", got, tc.want)
		})
	}
}
