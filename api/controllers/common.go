package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledovalley/storefront-backend/api/middleware"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

// customerID extracts the authenticated customer's id from the request
// context. Auth middleware guarantees it is present on protected routes.
func customerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.CustomerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid customer id")
	}
	return id, nil
}

// pathID parses a uuid route parameter.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
