package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/internal/catalog"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

// Service exposes profile, address book, cart, and wishlist operations
// for an authenticated customer.
type Service interface {
	GetProfile(ctx context.Context, customerID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, customerID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)

	ListAddresses(ctx context.Context, customerID uuid.UUID) ([]AddressDTO, error)
	AddAddress(ctx context.Context, customerID uuid.UUID, input AddressInput) (*AddressDTO, error)
	UpdateAddress(ctx context.Context, customerID, addressID uuid.UUID, input AddressInput) (*AddressDTO, error)
	DeleteAddress(ctx context.Context, customerID, addressID uuid.UUID) error
	SetDefaultAddress(ctx context.Context, customerID, addressID uuid.UUID) error

	GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	AddToCart(ctx context.Context, customerID uuid.UUID, input AddToCartInput) (*CartDTO, error)
	UpdateCartItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveCartItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, customerID uuid.UUID) error

	ListWishlist(ctx context.Context, customerID uuid.UUID) ([]WishlistEntryDTO, error)
	AddToWishlist(ctx context.Context, customerID, productID uuid.UUID) error
	RemoveFromWishlist(ctx context.Context, customerID, productID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// catalogReader is the slice of the catalog repository the cart needs to
// reprice and re-check lines against live products.
type catalogReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type service struct {
	repo     Repository
	products catalogReader
	dbClient txRunner
}

// NewService constructs the customers service.
func NewService(repo Repository, products catalogReader, dbClient txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, products: products, dbClient: dbClient}, nil
}

func (s *service) GetProfile(ctx context.Context, customerID uuid.UUID) (*ProfileDTO, error) {
	customer, err := s.findCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	dto := toProfileDTO(customer)
	return &dto, nil
}

func (s *service) UpdateProfile(ctx context.Context, customerID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	customer, err := s.findCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		customer.Name = name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" && !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
		}
		if email == "" {
			customer.Email = nil
		} else {
			customer.Email = &email
		}
	}

	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save customer")
	}
	dto := toProfileDTO(customer)
	return &dto, nil
}

func (s *service) ListAddresses(ctx context.Context, customerID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListAddresses(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toAddressDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) AddAddress(ctx context.Context, customerID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	var created *models.CustomerAddress
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.ListAddresses(ctx, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list addresses")
		}

		// First saved address is always the default.
		makeDefault := input.IsDefault || len(existing) == 0
		if makeDefault && len(existing) > 0 {
			if err := txRepo.ClearDefaultAddress(ctx, customerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear default address")
			}
		}

		address := buildAddress(customerID, input)
		address.IsDefault = makeDefault
		created, err = txRepo.CreateAddress(ctx, address)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert address")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	dto := toAddressDTO(created)
	return &dto, nil
}

func (s *service) UpdateAddress(ctx context.Context, customerID, addressID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if err := validateAddressInput(input); err != nil {
		return nil, err
	}

	var updated *models.CustomerAddress
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		address, err := txRepo.FindAddress(ctx, customerID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find address")
		}

		if input.IsDefault && !address.IsDefault {
			if err := txRepo.ClearDefaultAddress(ctx, customerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear default address")
			}
		}

		address.Name = strings.TrimSpace(input.Name)
		address.Phone = strings.TrimSpace(input.Phone)
		address.AddressLine1 = strings.TrimSpace(input.AddressLine1)
		address.AddressLine2 = input.AddressLine2
		address.City = strings.TrimSpace(input.City)
		address.State = strings.TrimSpace(input.State)
		address.Pincode = strings.TrimSpace(input.Pincode)
		if input.IsDefault {
			address.IsDefault = true
		}

		if err := txRepo.SaveAddress(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save address")
		}
		updated = address
		return nil
	}); err != nil {
		return nil, err
	}

	dto := toAddressDTO(updated)
	return &dto, nil
}

func (s *service) DeleteAddress(ctx context.Context, customerID, addressID uuid.UUID) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		address, err := txRepo.FindAddress(ctx, customerID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find address")
		}

		if err := txRepo.DeleteAddress(ctx, customerID, addressID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete address")
		}

		// Deleting the default promotes the most recent remaining address.
		if address.IsDefault {
			remaining, err := txRepo.ListAddresses(ctx, customerID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list addresses")
			}
			if len(remaining) > 0 {
				remaining[0].IsDefault = true
				if err := txRepo.SaveAddress(ctx, &remaining[0]); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save address")
				}
			}
		}
		return nil
	})
}

func (s *service) SetDefaultAddress(ctx context.Context, customerID, addressID uuid.UUID) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		address, err := txRepo.FindAddress(ctx, customerID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find address")
		}
		if address.IsDefault {
			return nil
		}

		if err := txRepo.ClearDefaultAddress(ctx, customerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear default address")
		}
		address.IsDefault = true
		if err := txRepo.SaveAddress(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save address")
		}
		return nil
	})
}

func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListCartItems(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cart items")
	}
	return s.buildCart(ctx, customerID, items)
}

func (s *service) AddToCart(ctx context.Context, customerID uuid.UUID, input AddToCartInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	variant, product, err := s.loadVariant(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}
	if !catalog.Available(product, variant) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "variant is unavailable")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		quantity := input.Quantity
		item, err := txRepo.FindCartItemByVariant(ctx, customerID, input.VariantID)
		switch {
		case err == nil:
			quantity += item.Quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &models.CartItem{
				ID:         uuid.New(),
				CustomerID: customerID,
				VariantID:  input.VariantID,
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find cart item")
		}

		if quantity > variant.Stock {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("only %d in stock for %s", variant.Stock, variant.SKU))
		}

		item.Quantity = quantity
		item.PriceAtAdd = catalog.VariantFinalPrice(variant)
		if err := txRepo.SaveCartItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save cart item")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, customerID)
}

func (s *service) UpdateCartItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.repo.FindCartItem(ctx, customerID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find cart item")
	}

	variant, _, err := s.loadVariant(ctx, item.VariantID)
	if err != nil {
		return nil, err
	}
	if quantity > variant.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("only %d in stock for %s", variant.Stock, variant.SKU))
	}

	item.Quantity = quantity
	if err := s.repo.SaveCartItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save cart item")
	}
	return s.GetCart(ctx, customerID)
}

func (s *service) RemoveCartItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	if err := s.repo.DeleteCartItem(ctx, customerID, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
	}
	return s.GetCart(ctx, customerID)
}

func (s *service) ClearCart(ctx context.Context, customerID uuid.UUID) error {
	if err := s.repo.ClearCart(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	return nil
}

func (s *service) ListWishlist(ctx context.Context, customerID uuid.UUID) ([]WishlistEntryDTO, error) {
	rows, err := s.repo.ListWishlist(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list wishlist")
	}

	out := make([]WishlistEntryDTO, 0, len(rows))
	for i := range rows {
		product, err := s.products.FindByID(ctx, rows[i].ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Product was deleted; drop the stale row.
				_ = s.repo.RemoveWishlistItem(ctx, customerID, rows[i].ProductID)
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
		}
		entry := WishlistEntryDTO{
			ProductID: product.ID,
			Title:     product.Title,
			Slug:      product.Slug,
			AddedAt:   rows[i].CreatedAt,
		}
		if len(product.ImageURLs) > 0 {
			entry.ImageURL = &product.ImageURLs[0]
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *service) AddToWishlist(ctx context.Context, customerID, productID uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
	}
	item := &models.WishlistItem{
		ID:         uuid.New(),
		CustomerID: customerID,
		ProductID:  productID,
	}
	if err := s.repo.AddWishlistItem(ctx, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add wishlist item")
	}
	return nil
}

func (s *service) RemoveFromWishlist(ctx context.Context, customerID, productID uuid.UUID) error {
	if err := s.repo.RemoveWishlistItem(ctx, customerID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove wishlist item")
	}
	return nil
}

func (s *service) findCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find customer")
	}
	return customer, nil
}

func (s *service) loadVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	variant, err := s.products.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find variant")
	}
	product, err := s.products.FindByID(ctx, variant.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
	}
	return variant, product, nil
}

// buildCart enriches cart rows with live variant data. Rows whose variant
// no longer exists are removed rather than surfaced.
func (s *service) buildCart(ctx context.Context, customerID uuid.UUID, items []models.CartItem) (*CartDTO, error) {
	cart := &CartDTO{
		Items:      make([]CartLineDTO, 0, len(items)),
		ItemsTotal: decimal.Zero,
	}

	productsByID := make(map[uuid.UUID]*models.Product)
	for i := range items {
		variant, err := s.products.FindVariant(ctx, items[i].VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				_ = s.repo.DeleteCartItem(ctx, customerID, items[i].ID)
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find variant")
		}

		product, ok := productsByID[variant.ProductID]
		if !ok {
			product, err = s.products.FindByID(ctx, variant.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					_ = s.repo.DeleteCartItem(ctx, customerID, items[i].ID)
					continue
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
			}
			productsByID[variant.ProductID] = product
		}

		currentPrice := catalog.VariantFinalPrice(variant)
		line := CartLineDTO{
			ID:           items[i].ID,
			ProductID:    product.ID,
			VariantID:    variant.ID,
			ProductTitle: product.Title,
			VariantTitle: variant.Title,
			SKU:          variant.SKU,
			Quantity:     items[i].Quantity,
			PriceAtAdd:   items[i].PriceAtAdd,
			CurrentPrice: currentPrice,
			LineTotal:    currentPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity))).Round(2),
			Available:    catalog.Available(product, variant),
			Stock:        variant.Stock,
		}
		if len(product.ImageURLs) > 0 {
			line.ImageURL = &product.ImageURLs[0]
		}
		cart.Items = append(cart.Items, line)
		if line.Available {
			cart.ItemsTotal = cart.ItemsTotal.Add(line.LineTotal)
		}
	}
	return cart, nil
}

func validateAddressInput(input AddressInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case strings.TrimSpace(input.Phone) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	case strings.TrimSpace(input.AddressLine1) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "address line 1 is required")
	case strings.TrimSpace(input.City) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	case strings.TrimSpace(input.State) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "state is required")
	case strings.TrimSpace(input.Pincode) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "pincode is required")
	}
	return nil
}

func buildAddress(customerID uuid.UUID, input AddressInput) *models.CustomerAddress {
	return &models.CustomerAddress{
		CustomerID:   customerID,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		AddressLine1: strings.TrimSpace(input.AddressLine1),
		AddressLine2: input.AddressLine2,
		City:         strings.TrimSpace(input.City),
		State:        strings.TrimSpace(input.State),
		Pincode:      strings.TrimSpace(input.Pincode),
	}
}
