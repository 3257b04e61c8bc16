package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
)

func setupCustomersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	customers := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  phone TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  email TEXT,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	addresses := `
CREATE TABLE IF NOT EXISTS customer_addresses (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  address_line1 TEXT NOT NULL,
  address_line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  pincode TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_at_add NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (customer_id, variant_id)
);`
	wishlistItems := `
CREATE TABLE IF NOT EXISTS wishlist_items (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (customer_id, product_id)
);`
	for _, table := range []string{"customers", "customer_addresses", "cart_items", "wishlist_items"} {
		require.NoError(t, db.Exec("DROP TABLE IF EXISTS "+table).Error)
	}
	for _, stmt := range []string{customers, addresses, cartItems, wishlistItems} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, phone string) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		ID:    uuid.New(),
		Phone: phone,
		Name:  "Asha",
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func seedAddress(t *testing.T, db *gorm.DB, customerID uuid.UUID, isDefault bool) *models.CustomerAddress {
	t.Helper()

	address := &models.CustomerAddress{
		ID:           uuid.New(),
		CustomerID:   customerID,
		Name:         "Asha",
		Phone:        "+919876543210",
		AddressLine1: "14 Ridge Road",
		City:         "Shimla",
		State:        "Himachal Pradesh",
		Pincode:      "171001",
		IsDefault:    isDefault,
	}
	require.NoError(t, db.Create(address).Error)
	return address
}

func TestRepositoryFindByPhone(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedCustomer(t, db, "+919876543210")

	found, err := repo.FindByPhone(ctx, " +919876543210 ")
	require.NoError(t, err)
	assert.Equal(t, "Asha", found.Name)

	_, err = repo.FindByPhone(ctx, "+910000000000")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryClearDefaultAddress(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, db, "+919876543210")
	first := seedAddress(t, db, customer.ID, true)
	seedAddress(t, db, customer.ID, false)

	require.NoError(t, repo.ClearDefaultAddress(ctx, customer.ID))

	var reloaded models.CustomerAddress
	require.NoError(t, db.First(&reloaded, "id = ?", first.ID).Error)
	assert.False(t, reloaded.IsDefault)
}

func TestRepositoryCartItemLifecycle(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, db, "+919876543210")
	variantID := uuid.New()

	item := &models.CartItem{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		VariantID:  variantID,
		Quantity:   2,
		PriceAtAdd: decimal.NewFromInt(499),
	}
	require.NoError(t, repo.SaveCartItem(ctx, item))

	byVariant, err := repo.FindCartItemByVariant(ctx, customer.ID, variantID)
	require.NoError(t, err)
	assert.Equal(t, 2, byVariant.Quantity)

	byVariant.Quantity = 5
	require.NoError(t, repo.SaveCartItem(ctx, byVariant))

	items, err := repo.ListCartItems(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	require.NoError(t, repo.ClearCart(ctx, customer.ID))
	items, err = repo.ListCartItems(ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepositoryWishlistAddIsIdempotent(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customer := seedCustomer(t, db, "+919876543210")
	productID := uuid.New()

	for i := 0; i < 2; i++ {
		err := repo.AddWishlistItem(ctx, &models.WishlistItem{
			ID:         uuid.New(),
			CustomerID: customer.ID,
			ProductID:  productID,
		})
		require.NoError(t, err)
	}

	items, err := repo.ListWishlist(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.RemoveWishlistItem(ctx, customer.ID, productID))
	items, err = repo.ListWishlist(ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
