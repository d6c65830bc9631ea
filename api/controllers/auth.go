package controllers

import (
	"net/http"

	"github.com/cliqstr/cliqstr-backend/api/responses"
	"github.com/cliqstr/cliqstr-backend/api/validators"
	"github.com/cliqstr/cliqstr-backend/internal/auth"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
)

// AuthLogin wires the login endpoint into the HTTP layer. The identifier is
// an email for adults and a username for children.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
