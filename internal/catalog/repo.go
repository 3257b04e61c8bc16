package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category string
	Query    string
	Statuses []enums.ProductStatus
}

// ProductList is one page of products plus the cursor for the next page.
type ProductList struct {
	Items      []models.Product
	NextCursor string
}

// Repository defines persistence operations for the catalog tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	SaveProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductList, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	SaveVariant(ctx context.Context, variant *models.ProductVariant) error
	DeleteVariant(ctx context.Context, variantID uuid.UUID) error
	DecrementVariantStock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error)
	RestoreVariantStock(ctx context.Context, variantID uuid.UUID, qty int) error
	UpdateVariantStatus(ctx context.Context, variantID uuid.UUID, status enums.VariantStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductList, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Variants")

	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if trimmed := strings.TrimSpace(filters.Query); trimmed != "" {
		q = q.Where("title LIKE ?", "%"+trimmed+"%")
	}
	if len(filters.Statuses) > 0 {
		q = q.Where("status IN ?", filters.Statuses)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.LimitWithBuffer(params.Limit)

	var rows []models.Product
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ProductList{Items: rows}
	if len(rows) == limit {
		list.Items = rows[:limit-1]
		last := list.Items[len(list.Items)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) SaveVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

func (r *repository) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", variantID).Delete(&models.ProductVariant{}).Error
}

// DecrementVariantStock subtracts qty guarded against oversell. The false
// return means the variant was missing or had insufficient stock.
func (r *repository) DecrementVariantStock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RestoreVariantStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *repository) UpdateVariantStatus(ctx context.Context, variantID uuid.UUID, status enums.VariantStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("status", status).Error
}
