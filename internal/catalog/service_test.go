package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	Repository

	products map[uuid.UUID]*models.Product
	bySlug   map[string]*models.Product
	variants map[uuid.UUID]*models.ProductVariant
	listResp *ProductList
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products: map[uuid.UUID]*models.Product{},
		bySlug:   map[string]*models.Product{},
		variants: map[uuid.UUID]*models.ProductVariant{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New()
	for i := range product.Variants {
		product.Variants[i].ID = uuid.New()
		product.Variants[i].ProductID = product.ID
		f.variants[product.Variants[i].ID] = &product.Variants[i]
	}
	f.products[product.ID] = product
	f.bySlug[product.Slug] = product
	return product, nil
}

func (f *fakeRepo) SaveProduct(ctx context.Context, product *models.Product) error {
	f.products[product.ID] = product
	f.bySlug[product.Slug] = product
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeRepo) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, ok := f.bySlug[slug]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductList, error) {
	if f.listResp != nil {
		return f.listResp, nil
	}
	return &ProductList{}, nil
}

func (f *fakeRepo) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	variant, ok := f.variants[variantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return variant, nil
}

func (f *fakeRepo) SaveVariant(ctx context.Context, variant *models.ProductVariant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	f.variants[variant.ID] = variant
	return nil
}

func newCatalogService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{})
	require.NoError(t, err)
	return svc
}

func TestCreateProductRequiresVariants(t *testing.T) {
	svc := newCatalogService(t, newFakeRepo())

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{Title: "Green Tea"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestCreateProductSlugAndDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc := newCatalogService(t, repo)

	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Title:    "Himalayan Green Tea!",
		Category: "green",
		Variants: []VariantInput{{
			SKU:   "hgt-250",
			Title: "250g",
			Price: decimal.NewFromInt(499),
			Stock: 12,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "himalayan-green-tea", dto.Slug)
	assert.Equal(t, enums.ProductStatusDraft, dto.Status)
	require.Len(t, dto.Variants, 1)
	assert.Equal(t, "HGT-250", dto.Variants[0].SKU)
	assert.Equal(t, enums.VariantStatusActive, dto.Variants[0].Status)
	assert.False(t, dto.Variants[0].Available, "draft product must not be available")
}

func TestGetProductBySlugHidesInactive(t *testing.T) {
	repo := newFakeRepo()
	svc := newCatalogService(t, repo)

	product := &models.Product{ID: uuid.New(), Title: "Old Tea", Slug: "old-tea", Status: enums.ProductStatusInactive}
	repo.products[product.ID] = product
	repo.bySlug[product.Slug] = product

	_, err := svc.GetProductBySlug(context.Background(), "old-tea")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestUpdateVariantRejectsNegativeStock(t *testing.T) {
	repo := newFakeRepo()
	svc := newCatalogService(t, repo)

	product := &models.Product{ID: uuid.New(), Title: "Tea", Slug: "tea", Status: enums.ProductStatusActive}
	repo.products[product.ID] = product
	variant := &models.ProductVariant{ID: uuid.New(), ProductID: product.ID, SKU: "T-1", Status: enums.VariantStatusActive}
	repo.variants[variant.ID] = variant

	bad := -1
	_, err := svc.UpdateVariant(context.Background(), product.ID, variant.ID, UpdateVariantInput{Stock: &bad})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestUpdateVariantOfDifferentProductIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newCatalogService(t, repo)

	product := &models.Product{ID: uuid.New(), Title: "Tea", Slug: "tea", Status: enums.ProductStatusActive}
	repo.products[product.ID] = product
	variant := &models.ProductVariant{ID: uuid.New(), ProductID: uuid.New(), SKU: "T-1"}
	repo.variants[variant.ID] = variant

	_, err := svc.UpdateVariant(context.Background(), product.ID, variant.ID, UpdateVariantInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
