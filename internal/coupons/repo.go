package coupons

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
)

// Repository defines persistence operations for coupons.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Save(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListActive(ctx context.Context, now time.Time) ([]models.Coupon, error)
	ListAll(ctx context.Context) ([]models.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupons repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *repository) Save(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := r.db.WithContext(ctx).First(&coupon, "code = ?", normalized).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) ListActive(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.CouponStatusActive).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAll(ctx context.Context) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// IncrementUsage bumps used_count atomically so concurrent checkouts never
// lose an increment.
func (r *repository) IncrementUsage(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
}
