package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/customers"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

func CartGet(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetCart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

type addToCartRequest struct {
	VariantID uuid.UUID `json:"variantId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

func CartAdd(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addToCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddToCart(r.Context(), id, customers.AddToCartInput{
			VariantID: payload.VariantID,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func CartUpdateItem(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateCartItem(r.Context(), id, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

func CartRemoveItem(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveCartItem(r.Context(), id, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

func CartClear(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearCart(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
