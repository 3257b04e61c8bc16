package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

// Service exposes catalog browse and admin product management.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*ProductDTO, error)
	UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input UpdateVariantInput) (*ProductDTO, error)
	DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	dbClient txRunner
}

// NewService constructs the catalog service.
func NewService(repo Repository, dbClient txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if !input.IncludeAllStatuses {
		input.Filters.Statuses = []enums.ProductStatus{enums.ProductStatusActive}
	}

	list, err := s.repo.List(ctx, input.Pagination, input.Filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	result := &ProductListResult{
		Items:      make([]ProductDTO, 0, len(list.Items)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Items {
		result.Items = append(result.Items, *toProductDTO(&list.Items[i]))
	}
	return result, nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product by slug")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return toProductDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if len(input.Variants) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one variant is required")
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusDraft
	}

	product := &models.Product{
		Title:       strings.TrimSpace(input.Title),
		Slug:        Slugify(input.Title),
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		ImageURLs:   input.ImageURLs,
		Status:      status,
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, buildVariant(v))
	}

	var created *models.Product
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var err error
		created, err = txRepo.CreateProduct(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return toProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var updated *models.Product
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
		}

		if input.Title != nil {
			product.Title = strings.TrimSpace(*input.Title)
			product.Slug = Slugify(product.Title)
		}
		if input.Description != nil {
			product.Description = input.Description
		}
		if input.Category != nil {
			product.Category = strings.TrimSpace(*input.Category)
		}
		if input.ImageURLs != nil {
			product.ImageURLs = *input.ImageURLs
		}
		if input.Status != nil {
			product.Status = *input.Status
		}

		if err := txRepo.SaveProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save product")
		}
		updated = product
		return nil
	}); err != nil {
		return nil, err
	}
	return toProductDTO(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.findProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	variant := buildVariant(input)
	variant.ProductID = product.ID
	if err := s.repo.SaveVariant(ctx, &variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert variant")
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input UpdateVariantInput) (*ProductDTO, error) {
	variant, err := s.findVariantOf(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		variant.Title = strings.TrimSpace(*input.Title)
	}
	if input.Price != nil {
		variant.Price = *input.Price
	}
	if input.DiscountType != nil {
		variant.DiscountType = input.DiscountType
	}
	if input.DiscountValue != nil {
		variant.DiscountValue = *input.DiscountValue
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		variant.Stock = *input.Stock
	}
	if input.Weight != nil {
		variant.Weight = *input.Weight
	}
	if input.Dimensions != nil {
		variant.Dimensions = *input.Dimensions
	}
	if input.Status != nil {
		variant.Status = *input.Status
	}

	if err := s.repo.SaveVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save variant")
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	if _, err := s.findVariantOf(ctx, productID, variantID); err != nil {
		return err
	}
	if err := s.repo.DeleteVariant(ctx, variantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete variant")
	}
	return nil
}

func (s *service) findProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
	}
	return product, nil
}

func (s *service) findVariantOf(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.repo.FindVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find variant")
	}
	if variant.ProductID != productID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return variant, nil
}

func buildVariant(input VariantInput) models.ProductVariant {
	status := input.Status
	if status == "" {
		status = enums.VariantStatusActive
	}
	return models.ProductVariant{
		SKU:           strings.ToUpper(strings.TrimSpace(input.SKU)),
		Title:         strings.TrimSpace(input.Title),
		Price:         input.Price,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		Stock:         input.Stock,
		Weight:        input.Weight,
		Dimensions:    input.Dimensions,
		Status:        status,
	}
}
