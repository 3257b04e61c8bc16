package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/catalog"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

type variantPayload struct {
	SKU           string           `json:"sku" validate:"required,max=64"`
	Title         string           `json:"title" validate:"required,max=120"`
	Price         decimal.Decimal  `json:"price" validate:"required"`
	DiscountType  *string          `json:"discountType"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	Stock         int              `json:"stock" validate:"min=0"`
	Weight        types.Weight     `json:"weight"`
	Dimensions    types.Dimensions `json:"dimensions"`
	Status        string           `json:"status"`
}

func (p variantPayload) toInput() (catalog.VariantInput, error) {
	input := catalog.VariantInput{
		SKU:           validators.SanitizeString(p.SKU, 64),
		Title:         validators.SanitizeString(p.Title, 120),
		Price:         p.Price,
		DiscountValue: p.DiscountValue,
		Stock:         p.Stock,
		Weight:        p.Weight,
		Dimensions:    p.Dimensions,
		Status:        enums.VariantStatusActive,
	}
	if p.DiscountType != nil {
		dt := enums.DiscountType(strings.ToUpper(*p.DiscountType))
		if !dt.IsValid() {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
		}
		input.DiscountType = &dt
	}
	if p.Status != "" {
		status := enums.VariantStatus(strings.ToUpper(p.Status))
		if !status.IsValid() {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant status")
		}
		input.Status = status
	}
	return input, nil
}

type createProductRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description *string          `json:"description"`
	Category    string           `json:"category" validate:"required,max=120"`
	ImageURLs   []string         `json:"imageUrls" validate:"omitempty,dive,url"`
	Status      string           `json:"status"`
	Variants    []variantPayload `json:"variants" validate:"required,min=1,dive"`
}

func AdminProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
			IncludeAllStatuses: true,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.CreateProductInput{
			Title:       validators.SanitizeString(payload.Title, 200),
			Description: payload.Description,
			Category:    validators.SanitizeString(payload.Category, 120),
			ImageURLs:   payload.ImageURLs,
			Status:      enums.ProductStatusDraft,
		}
		if payload.Status != "" {
			status := enums.ProductStatus(strings.ToUpper(payload.Status))
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status"))
				return
			}
			input.Status = status
		}
		for _, v := range payload.Variants {
			variant, err := v.toInput()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Variants = append(input.Variants, variant)
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Title       *string   `json:"title" validate:"omitempty,max=200"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" validate:"omitempty,max=120"`
	ImageURLs   *[]string `json:"imageUrls" validate:"omitempty,dive,url"`
	Status      *string   `json:"status"`
}

func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			Title:       payload.Title,
			Description: payload.Description,
			Category:    payload.Category,
			ImageURLs:   payload.ImageURLs,
		}
		if payload.Status != nil {
			status := enums.ProductStatus(strings.ToUpper(*payload.Status))
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status"))
				return
			}
			input.Status = &status
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func AdminProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminVariantAdd(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload variantPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddVariant(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateVariantRequest struct {
	Title         *string           `json:"title" validate:"omitempty,max=120"`
	Price         *decimal.Decimal  `json:"price"`
	DiscountType  *string           `json:"discountType"`
	DiscountValue *decimal.Decimal  `json:"discountValue"`
	Stock         *int              `json:"stock" validate:"omitempty,min=0"`
	Weight        *types.Weight     `json:"weight"`
	Dimensions    *types.Dimensions `json:"dimensions"`
	Status        *string           `json:"status"`
}

func AdminVariantUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateVariantInput{
			Title:         payload.Title,
			Price:         payload.Price,
			DiscountValue: payload.DiscountValue,
			Stock:         payload.Stock,
			Weight:        payload.Weight,
			Dimensions:    payload.Dimensions,
		}
		if payload.DiscountType != nil {
			dt := enums.DiscountType(strings.ToUpper(*payload.DiscountType))
			if !dt.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type"))
				return
			}
			input.DiscountType = &dt
		}
		if payload.Status != nil {
			status := enums.VariantStatus(strings.ToUpper(*payload.Status))
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant status"))
				return
			}
			input.Status = &status
		}

		product, err := svc.UpdateVariant(r.Context(), productID, variantID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func AdminVariantDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVariant(r.Context(), productID, variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
