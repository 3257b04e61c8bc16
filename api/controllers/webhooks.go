package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/ledovalley/storefront-backend/api/responses"
	shippingwebhook "github.com/ledovalley/storefront-backend/internal/webhooks/shipping"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

// ShippingWebhook ingests carrier tracking callbacks. Unknown orders and
// unmapped statuses are acknowledged so the carrier stops retrying.
func ShippingWebhook(svc *shippingwebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Carrier payloads carry many fields beyond the ones modelled here,
		// so the strict request decoder is not used.
		var event shippingwebhook.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload"))
			return
		}

		if err := svc.Handle(r.Context(), event); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
