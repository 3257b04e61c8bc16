package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
)

// VariantAvailable is the single availability rule used everywhere a
// variant's sellability is decided: browse, cart, checkout, and after
// every stock or status mutation.
func VariantAvailable(productStatus enums.ProductStatus, variantStatus enums.VariantStatus, stock int) bool {
	return productStatus == enums.ProductStatusActive &&
		variantStatus == enums.VariantStatusActive &&
		stock > 0
}

// Available applies VariantAvailable to a loaded variant and its product.
func Available(product *models.Product, variant *models.ProductVariant) bool {
	if product == nil || variant == nil {
		return false
	}
	return VariantAvailable(product.Status, variant.Status, variant.Stock)
}

var oneHundred = decimal.NewFromInt(100)

// FinalPrice resolves the effective selling price of a variant after its
// own discount, rounded to two decimals and never below zero.
func FinalPrice(price decimal.Decimal, discountType *enums.DiscountType, discountValue decimal.Decimal) decimal.Decimal {
	final := price
	if discountType != nil && discountValue.IsPositive() {
		switch *discountType {
		case enums.DiscountTypePercent:
			final = price.Sub(price.Mul(discountValue).Div(oneHundred))
		case enums.DiscountTypeFlat:
			final = price.Sub(discountValue)
		}
	}
	final = final.Round(2)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// VariantFinalPrice resolves FinalPrice for a loaded variant.
func VariantFinalPrice(variant *models.ProductVariant) decimal.Decimal {
	if variant == nil {
		return decimal.Zero
	}
	return FinalPrice(variant.Price, variant.DiscountType, variant.DiscountValue)
}
