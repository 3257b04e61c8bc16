package controllers

import (
	"net/http"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/customers"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

// ProfileGet returns the authenticated customer's profile.
func ProfileGet(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProfile(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// Absent fields stay unchanged; an empty email clears the stored one.
type updateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Email *string `json:"email"`
}

// ProfileUpdate updates name and email. The phone is the login identity
// and cannot change here.
func ProfileUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := customers.UpdateProfileInput{}
		if payload.Name != nil {
			name := validators.SanitizeString(*payload.Name, 120)
			input.Name = &name
		}
		if payload.Email != nil {
			email := validators.SanitizeString(*payload.Email, 254)
			input.Email = &email
		}

		profile, err := svc.UpdateProfile(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}
