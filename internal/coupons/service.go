package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

// CouponDTO is the API projection of a coupon.
type CouponDTO struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	Type           enums.DiscountType `json:"type"`
	Value          decimal.Decimal    `json:"value"`
	MaxDiscount    *decimal.Decimal   `json:"max_discount,omitempty"`
	MinOrderAmount decimal.Decimal    `json:"min_order_amount"`
	UsageLimit     *int               `json:"usage_limit,omitempty"`
	UsedCount      int                `json:"used_count"`
	ExpiresAt      *time.Time         `json:"expires_at,omitempty"`
	Status         enums.CouponStatus `json:"status"`
}

// ValidationResult reports the discount a coupon would grant.
type ValidationResult struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PayableTotal   decimal.Decimal `json:"payable_total"`
}

// UpsertCouponInput holds the validated admin payload.
type UpsertCouponInput struct {
	Code           string
	Type           enums.DiscountType
	Value          decimal.Decimal
	MaxDiscount    *decimal.Decimal
	MinOrderAmount decimal.Decimal
	UsageLimit     *int
	ExpiresAt      *time.Time
	Status         enums.CouponStatus
}

// Service exposes coupon listing, validation, and admin management.
type Service interface {
	ListActive(ctx context.Context) ([]CouponDTO, error)
	ValidateCode(ctx context.Context, code string, itemsTotal decimal.Decimal) (*ValidationResult, error)
	ListAll(ctx context.Context) ([]CouponDTO, error)
	Create(ctx context.Context, input UpsertCouponInput) (*CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertCouponInput) (*CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs the coupons service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListActive(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list active coupons")
	}
	return toDTOs(rows), nil
}

func (s *service) ValidateCode(ctx context.Context, code string, itemsTotal decimal.Decimal) (*ValidationResult, error) {
	coupon, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := Validate(coupon, itemsTotal, s.now()); err != nil {
		return nil, err
	}

	discount := Discount(coupon, itemsTotal)
	return &ValidationResult{
		Code:           coupon.Code,
		DiscountAmount: discount,
		PayableTotal:   itemsTotal.Sub(discount),
	}, nil
}

func (s *service) ListAll(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list coupons")
	}
	return toDTOs(rows), nil
}

func (s *service) Create(ctx context.Context, input UpsertCouponInput) (*CouponDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		Code:           strings.ToUpper(strings.TrimSpace(input.Code)),
		Type:           input.Type,
		Value:          input.Value,
		MaxDiscount:    input.MaxDiscount,
		MinOrderAmount: input.MinOrderAmount,
		UsageLimit:     input.UsageLimit,
		ExpiresAt:      input.ExpiresAt,
		Status:         input.Status,
	}
	if coupon.Status == "" {
		coupon.Status = enums.CouponStatusActive
	}

	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert coupon")
	}
	dto := toDTO(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertCouponInput) (*CouponDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find coupon")
	}

	coupon.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	coupon.Type = input.Type
	coupon.Value = input.Value
	coupon.MaxDiscount = input.MaxDiscount
	coupon.MinOrderAmount = input.MinOrderAmount
	coupon.UsageLimit = input.UsageLimit
	coupon.ExpiresAt = input.ExpiresAt
	if input.Status != "" {
		coupon.Status = input.Status
	}

	if err := s.repo.Save(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save coupon")
	}
	dto := toDTO(coupon)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find coupon")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete coupon")
	}
	return nil
}

func (s *service) lookup(ctx context.Context, code string) (*models.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid coupon")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find coupon")
	}
	return coupon, nil
}

func validateInput(input UpsertCouponInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if !input.Value.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.Type == enums.DiscountTypePercent && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent discount cannot exceed 100")
	}
	return nil
}

func toDTO(coupon *models.Coupon) CouponDTO {
	return CouponDTO{
		ID:             coupon.ID,
		Code:           coupon.Code,
		Type:           coupon.Type,
		Value:          coupon.Value,
		MaxDiscount:    coupon.MaxDiscount,
		MinOrderAmount: coupon.MinOrderAmount,
		UsageLimit:     coupon.UsageLimit,
		UsedCount:      coupon.UsedCount,
		ExpiresAt:      coupon.ExpiresAt,
		Status:         coupon.Status,
	}
}

func toDTOs(rows []models.Coupon) []CouponDTO {
	out := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out
}
