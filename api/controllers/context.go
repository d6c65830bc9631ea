package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/api/middleware"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

// currentUserID pulls the authenticated user out of the request context.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}

func currentRole(r *http.Request) enums.AccountRole {
	return enums.AccountRole(middleware.RoleFromContext(r.Context()))
}
