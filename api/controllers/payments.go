package controllers

import (
	"net/http"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/internal/payments"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/payu"
)

func payuReturnPayload(r *http.Request) (payu.ReturnPayload, error) {
	if err := r.ParseForm(); err != nil {
		return payu.ReturnPayload{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed gateway callback")
	}
	// r.Form covers both the POST body and query params, so the same
	// handler serves gateway POSTs and redirect GETs.
	return payu.ReturnPayload{
		TxnID:     r.Form.Get("txnid"),
		PaymentID: r.Form.Get("mihpayid"),
		Status:    r.Form.Get("status"),
		Hash:      r.Form.Get("hash"),
		Email:     r.Form.Get("email"),
		Firstname: r.Form.Get("firstname"),
		Amount:    r.Form.Get("amount"),
		Mode:      r.Form.Get("mode"),
		ErrorMsg:  r.Form.Get("error_Message"),
	}, nil
}

// PaymentSuccess receives the browser redirect from PayU after a captured
// payment. The customer always ends up back on the storefront, even when
// verification fails.
func PaymentSuccess(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := payuReturnPayload(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		redirectURL, err := svc.HandleSuccess(r.Context(), payload)
		if err != nil {
			logg.Error(r.Context(), "payment success callback failed", err)
		}
		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}

func PaymentFailure(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := payuReturnPayload(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		redirectURL, err := svc.HandleFailure(r.Context(), payload)
		if err != nil {
			logg.Error(r.Context(), "payment failure callback failed", err)
		}
		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}
