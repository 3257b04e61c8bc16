package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/catalog"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
)

// ProductsList is the public catalog browse endpoint. Only active products
// with sellable variants appear.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), catalog.ListProductsInput{
			Filters: catalog.ListFilters{
				Category: strings.TrimSpace(r.URL.Query().Get("category")),
				Query:    validators.SanitizeString(r.URL.Query().Get("q"), 120),
			},
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ProductGet returns one product by its public slug.
func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product slug required"))
			return
		}

		product, err := svc.GetProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
