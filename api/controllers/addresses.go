package controllers

import (
	"net/http"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/customers"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

type addressRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Phone        string  `json:"phone" validate:"required,max=20"`
	AddressLine1 string  `json:"addressLine1" validate:"required,max=255"`
	AddressLine2 *string `json:"addressLine2" validate:"omitempty,max=255"`
	City         string  `json:"city" validate:"required,max=120"`
	State        string  `json:"state" validate:"required,max=120"`
	Pincode      string  `json:"pincode" validate:"required,min=6,max=6"`
	IsDefault    bool    `json:"isDefault"`
}

func (p addressRequest) toInput() customers.AddressInput {
	input := customers.AddressInput{
		Name:         validators.SanitizeString(p.Name, 120),
		Phone:        validators.SanitizeString(p.Phone, 20),
		AddressLine1: validators.SanitizeString(p.AddressLine1, 255),
		City:         validators.SanitizeString(p.City, 120),
		State:        validators.SanitizeString(p.State, 120),
		Pincode:      validators.SanitizeString(p.Pincode, 6),
		IsDefault:    p.IsDefault,
	}
	if p.AddressLine2 != nil {
		line2 := validators.SanitizeString(*p.AddressLine2, 255)
		if line2 != "" {
			input.AddressLine2 = &line2
		}
	}
	return input
}

func AddressesList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAddresses(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func AddressAdd(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.AddAddress(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, address)
	}
}

func AddressUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address, err := svc.UpdateAddress(r.Context(), id, addressID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, address)
	}
}

func AddressDelete(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAddress(r.Context(), id, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AddressSetDefault(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathID(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetDefaultAddress(r.Context(), id, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "default_set"})
	}
}
