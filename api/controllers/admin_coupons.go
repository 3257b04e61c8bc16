package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/coupons"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

type upsertCouponRequest struct {
	Code           string           `json:"code" validate:"required,max=40"`
	Type           string           `json:"type" validate:"required"`
	Value          decimal.Decimal  `json:"value" validate:"required"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount"`
	MinOrderAmount decimal.Decimal  `json:"minOrderAmount"`
	UsageLimit     *int             `json:"usageLimit" validate:"omitempty,min=1"`
	ExpiresAt      *time.Time       `json:"expiresAt"`
	Status         string           `json:"status"`
}

func (p upsertCouponRequest) toInput() (coupons.UpsertCouponInput, error) {
	input := coupons.UpsertCouponInput{
		Code:           strings.ToUpper(validators.SanitizeString(p.Code, 40)),
		Value:          p.Value,
		MaxDiscount:    p.MaxDiscount,
		MinOrderAmount: p.MinOrderAmount,
		UsageLimit:     p.UsageLimit,
		ExpiresAt:      p.ExpiresAt,
		Status:         enums.CouponStatusActive,
	}

	discountType := enums.DiscountType(strings.ToUpper(p.Type))
	if !discountType.IsValid() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon type")
	}
	input.Type = discountType

	if p.Status != "" {
		status := enums.CouponStatus(strings.ToUpper(p.Status))
		if !status.IsValid() {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon status")
		}
		input.Status = status
	}
	return input, nil
}

func AdminCouponsList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func AdminCouponCreate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func AdminCouponUpdate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := pathID(r, "couponID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload upsertCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Update(r.Context(), couponID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

func AdminCouponDelete(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := pathID(r, "couponID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
