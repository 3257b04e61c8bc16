package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/coupons"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

// CouponsList returns the coupons a customer can currently apply.
func CouponsList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		list, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type validateCouponRequest struct {
	Code       string          `json:"code" validate:"required"`
	ItemsTotal decimal.Decimal `json:"items_total" validate:"required"`
}

// CouponValidate reports the discount a code would grant on a cart total.
func CouponValidate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupons service unavailable"))
			return
		}

		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ValidateCode(r.Context(), payload.Code, payload.ItemsTotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
