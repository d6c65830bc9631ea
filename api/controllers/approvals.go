package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/api/middleware"
	"github.com/cliqstr/cliqstr-backend/api/responses"
	"github.com/cliqstr/cliqstr-backend/api/validators"
	"github.com/cliqstr/cliqstr-backend/internal/approvals"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
)

// ApprovalsRequest opens a consent request addressed to a parent's email.
// The actor is optional: a signed-in child asks from inside the app, while
// the public signup page asks with no session at all.
func ApprovalsRequest(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approval service unavailable"))
			return
		}

		var body approvals.RequestApprovalDTO
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := approvals.RequestApprovalInput{RequestApprovalDTO: body}
		if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				input.ActorUserID = &id
				input.ActorRole = currentRole(r)
			}
		}

		approval, err := svc.RequestApproval(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, approval)
	}
}

// ApprovalsValidate answers whether an approval token is still actionable.
// Public: the parent follows the emailed consent link.
func ApprovalsValidate(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approval service unavailable"))
			return
		}

		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "approval token required").WithReason(pkgerrors.ReasonMissingCode))
			return
		}

		result, err := svc.ValidateToken(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
