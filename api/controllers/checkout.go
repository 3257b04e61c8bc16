package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	checkoutsvc "github.com/ledovalley/storefront-backend/internal/checkout"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID  uuid.UUID `json:"addressId" validate:"required"`
	CouponCode string    `json:"couponCode"`
}

// Checkout converts the cart into a pending order and returns the signed
// gateway form the frontend posts to PayU.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), id, checkoutsvc.Input{
			AddressID:  payload.AddressID,
			CouponCode: validators.SanitizeString(payload.CouponCode, 40),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
