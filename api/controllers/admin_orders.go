package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/fulfillment"
	"github.com/ledovalley/storefront-backend/internal/orders"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/pagination"
)

func AdminOrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseAdminOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAdminOrders(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func parseAdminOrderFilters(r *http.Request) (orders.AdminListFilters, error) {
	filters := orders.AdminListFilters{
		Search:        validators.SanitizeString(r.URL.Query().Get("q"), 120),
		SortAscending: strings.EqualFold(r.URL.Query().Get("sort"), "asc"),
	}

	var err error
	filters.Page, err = validators.ParseQueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		return filters, err
	}
	filters.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filters, err
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := enums.OrderStatus(strings.ToUpper(raw))
		if !status.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		status := enums.PaymentStatus(strings.ToUpper(raw))
		if !status.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter")
		}
		filters.PaymentStatus = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from date")
		}
		filters.From = &from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to date")
		}
		filters.To = &to
	}
	return filters, nil
}

func AdminOrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderChangeStatus moves an order through the lifecycle. Setting
// READY_TO_SHIP triggers carrier order creation, AWB assignment, and
// pickup scheduling.
func AdminOrderChangeStatus(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ChangeStatus(r.Context(), orderID, enums.OrderStatus(strings.ToUpper(payload.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func AdminOrderApproveReturn(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ApproveReturn(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func AdminOrderCompleteRefund(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CompleteRefund(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
