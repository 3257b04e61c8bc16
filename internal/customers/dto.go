package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
)

// ProfileDTO is the customer-facing view of an account.
type ProfileDTO struct {
	ID          uuid.UUID  `json:"id"`
	Phone       string     `json:"phone"`
	Name        string     `json:"name"`
	Email       *string    `json:"email,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AddressDTO mirrors a saved shipping address.
type AddressDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 *string   `json:"addressLine2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Pincode      string    `json:"pincode"`
	IsDefault    bool      `json:"isDefault"`
}

// CartLineDTO is a cart row enriched with the variant's live price and
// availability, so stale lines are visible before checkout.
type CartLineDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"productId"`
	VariantID    uuid.UUID       `json:"variantId"`
	ProductTitle string          `json:"productTitle"`
	VariantTitle string          `json:"variantTitle"`
	SKU          string          `json:"sku"`
	ImageURL     *string         `json:"imageUrl,omitempty"`
	Quantity     int             `json:"quantity"`
	PriceAtAdd   decimal.Decimal `json:"priceAtAdd"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
	Available    bool            `json:"available"`
	Stock        int             `json:"stock"`
}

// CartDTO is the full cart with a subtotal over available lines.
type CartDTO struct {
	Items      []CartLineDTO   `json:"items"`
	ItemsTotal decimal.Decimal `json:"itemsTotal"`
}

// WishlistEntryDTO is a wishlist row joined with its product summary.
type WishlistEntryDTO struct {
	ProductID uuid.UUID `json:"productId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// AddressInput carries the fields of an address create or update.
type AddressInput struct {
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Pincode      string  `json:"pincode"`
	IsDefault    bool    `json:"isDefault"`
}

// AddToCartInput identifies the variant and quantity being added.
type AddToCartInput struct {
	VariantID uuid.UUID `json:"variantId"`
	Quantity  int       `json:"quantity"`
}

func toProfileDTO(customer *models.Customer) ProfileDTO {
	return ProfileDTO{
		ID:          customer.ID,
		Phone:       customer.Phone,
		Name:        customer.Name,
		Email:       customer.Email,
		LastLoginAt: customer.LastLoginAt,
		CreatedAt:   customer.CreatedAt,
	}
}

func toAddressDTO(address *models.CustomerAddress) AddressDTO {
	return AddressDTO{
		ID:           address.ID,
		Name:         address.Name,
		Phone:        address.Phone,
		AddressLine1: address.AddressLine1,
		AddressLine2: address.AddressLine2,
		City:         address.City,
		State:        address.State,
		Pincode:      address.Pincode,
		IsDefault:    address.IsDefault,
	}
}
