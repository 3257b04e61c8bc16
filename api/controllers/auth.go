package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/ledovalley/storefront-backend/api/responses"
	"github.com/ledovalley/storefront-backend/api/validators"
	"github.com/ledovalley/storefront-backend/internal/authn"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

type requestOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required,min=4,max=8"`
	Name  string `json:"name"`
}

// AuthRequestOTP sends a one-time code to the customer's phone.
func AuthRequestOTP(svc authn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload requestOTPRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.RequestOTP(r.Context(), authn.RequestOTPInput{
			Phone:    payload.Phone,
			ClientIP: clientIP(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "otp_sent"})
	}
}

// AuthVerifyOTP exchanges a valid code for an access token, creating the
// customer account on first login.
func AuthVerifyOTP(svc authn.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyOTP(r.Context(), authn.VerifyOTPInput{
			Phone: payload.Phone,
			Code:  payload.Code,
			Name:  validators.SanitizeString(payload.Name, 120),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// clientIP prefers the first hop of X-Forwarded-For, set by the load
// balancer, over the raw socket address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
