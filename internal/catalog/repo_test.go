package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  category TEXT NOT NULL,
  image_urls TEXT,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  created_at DATETIME,
  updated_at DATETIME
);`
	variants := `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  price NUMERIC NOT NULL,
  discount_type TEXT,
  discount_value NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  weight TEXT,
  dimensions TEXT,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec("DROP TABLE IF EXISTS products").Error)
	require.NoError(t, db.Exec("DROP TABLE IF EXISTS product_variants").Error)
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(variants).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, title, category string, status enums.ProductStatus, createdAt time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		Title:    title,
		Slug:     Slugify(title) + "-" + uuid.NewString()[:8],
		Category: category,
		Status:   status,
	}
	require.NoError(t, db.Create(product).Error)
	require.NoError(t, db.Model(product).UpdateColumn("created_at", createdAt).Error)
	product.CreatedAt = createdAt
	return product
}

func seedVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, sku string, stock int) *models.ProductVariant {
	t.Helper()

	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: productID,
		SKU:       sku,
		Title:     "250g",
		Price:     decimal.NewFromInt(499),
		Stock:     stock,
		Status:    enums.VariantStatusActive,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func TestRepositoryFindBySlugPreloadsVariants(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "Green Tea", "green", enums.ProductStatusActive, time.Now())
	seedVariant(t, db, product.ID, "GT-250", 10)
	seedVariant(t, db, product.ID, "GT-500", 0)

	found, err := repo.FindBySlug(ctx, product.Slug)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)
	assert.Len(t, found.Variants, 2)
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedProduct(t, db, fmt.Sprintf("Green Tea %d", i), "green", enums.ProductStatusActive, base.Add(time.Duration(i)*time.Minute))
	}
	seedProduct(t, db, "Black Tea", "black", enums.ProductStatusActive, base.Add(10*time.Minute))
	seedProduct(t, db, "Hidden Tea", "green", enums.ProductStatusDraft, base.Add(11*time.Minute))

	byCategory, err := repo.List(ctx, pagination.Params{}, ListFilters{
		Category: "green",
		Statuses: []enums.ProductStatus{enums.ProductStatusActive},
	})
	require.NoError(t, err)
	assert.Len(t, byCategory.Items, 3)

	page1, err := repo.List(ctx, pagination.Params{Limit: 2}, ListFilters{
		Statuses: []enums.ProductStatus{enums.ProductStatusActive},
	})
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	require.NotEmpty(t, page1.NextCursor)

	page2, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: page1.NextCursor}, ListFilters{
		Statuses: []enums.ProductStatus{enums.ProductStatusActive},
	})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)
	assert.Empty(t, page2.NextCursor)

	search, err := repo.List(ctx, pagination.Params{}, ListFilters{Query: "Black"})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Equal(t, "Black Tea", search.Items[0].Title)
}

func TestDecrementVariantStockGuardsOversell(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "Oolong", "oolong", enums.ProductStatusActive, time.Now())
	variant := seedVariant(t, db, product.ID, "OO-100", 3)

	ok, err := repo.DecrementVariantStock(ctx, variant.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementVariantStock(ctx, variant.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "expected oversell to be refused")

	var current models.ProductVariant
	require.NoError(t, db.First(&current, "id = ?", variant.ID).Error)
	assert.Equal(t, 1, current.Stock)

	require.NoError(t, repo.RestoreVariantStock(ctx, variant.ID, 2))
	require.NoError(t, db.First(&current, "id = ?", variant.ID).Error)
	assert.Equal(t, 3, current.Stock)
}
