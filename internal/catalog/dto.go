package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

// VariantDTO is the API projection of a sellable variant.
type VariantDTO struct {
	ID            uuid.UUID           `json:"id"`
	SKU           string              `json:"sku"`
	Title         string              `json:"title"`
	Price         decimal.Decimal     `json:"price"`
	DiscountType  *enums.DiscountType `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	FinalPrice    decimal.Decimal     `json:"final_price"`
	Stock         int                 `json:"stock"`
	Weight        types.Weight        `json:"weight"`
	Dimensions    types.Dimensions    `json:"dimensions"`
	Status        enums.VariantStatus `json:"status"`
	Available     bool                `json:"available"`
}

// ProductDTO is the API projection of a catalog product.
type ProductDTO struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Slug        string              `json:"slug"`
	Description *string             `json:"description,omitempty"`
	Category    string              `json:"category"`
	ImageURLs   []string            `json:"image_urls,omitempty"`
	Status      enums.ProductStatus `json:"status"`
	Variants    []VariantDTO        `json:"variants"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ProductListResult is one page of the browse endpoint.
type ProductListResult struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ListProductsInput captures browse/filter/pagination inputs.
type ListProductsInput struct {
	Filters    ListFilters
	Pagination pagination.Params
	// IncludeAllStatuses is set for admin listings; public browse only sees
	// ACTIVE products.
	IncludeAllStatuses bool
}

// VariantInput holds the validated payload for one variant.
type VariantInput struct {
	SKU           string
	Title         string
	Price         decimal.Decimal
	DiscountType  *enums.DiscountType
	DiscountValue decimal.Decimal
	Stock         int
	Weight        types.Weight
	Dimensions    types.Dimensions
	Status        enums.VariantStatus
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Title       string
	Description *string
	Category    string
	ImageURLs   []string
	Status      enums.ProductStatus
	Variants    []VariantInput
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Title       *string
	Description *string
	Category    *string
	ImageURLs   *[]string
	Status      *enums.ProductStatus
}

// UpdateVariantInput holds optional mutation values for a variant.
type UpdateVariantInput struct {
	Title         *string
	Price         *decimal.Decimal
	DiscountType  *enums.DiscountType
	DiscountValue *decimal.Decimal
	Stock         *int
	Weight        *types.Weight
	Dimensions    *types.Dimensions
	Status        *enums.VariantStatus
}

func toVariantDTO(product *models.Product, variant *models.ProductVariant) VariantDTO {
	return VariantDTO{
		ID:            variant.ID,
		SKU:           variant.SKU,
		Title:         variant.Title,
		Price:         variant.Price,
		DiscountType:  variant.DiscountType,
		DiscountValue: variant.DiscountValue,
		FinalPrice:    VariantFinalPrice(variant),
		Stock:         variant.Stock,
		Weight:        variant.Weight,
		Dimensions:    variant.Dimensions,
		Status:        variant.Status,
		Available:     Available(product, variant),
	}
}

func toProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		Title:       product.Title,
		Slug:        product.Slug,
		Description: product.Description,
		Category:    product.Category,
		ImageURLs:   product.ImageURLs,
		Status:      product.Status,
		Variants:    make([]VariantDTO, 0, len(product.Variants)),
		CreatedAt:   product.CreatedAt,
	}
	for i := range product.Variants {
		dto.Variants = append(dto.Variants, toVariantDTO(product, &product.Variants[i]))
	}
	return dto
}
