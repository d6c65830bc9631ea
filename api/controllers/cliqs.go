package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/api/responses"
	"github.com/cliqstr/cliqstr-backend/api/validators"
	"github.com/cliqstr/cliqstr-backend/internal/cliqs"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
)

type createCliqBody struct {
	Name        string            `json:"name" validate:"required,min=2,max=80"`
	Description *string           `json:"description,omitempty"`
	Privacy     enums.CliqPrivacy `json:"privacy" validate:"required"`
	MinAge      *int              `json:"min_age,omitempty"`
	MaxAge      *int              `json:"max_age,omitempty"`
}

// CliqsCreate opens a new cliq owned by the caller. Child accounts only get
// here when their permission grid allows cliq creation; the service checks.
func CliqsCreate(svc cliqs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cliq service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createCliqBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cliq, err := svc.CreateCliq(r.Context(), cliqs.CreateCliqInput{
			OwnerUserID: userID,
			OwnerRole:   currentRole(r),
			Name:        body.Name,
			Description: body.Description,
			Privacy:     body.Privacy,
			MinAge:      body.MinAge,
			MaxAge:      body.MaxAge,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, cliq)
	}
}

// CliqsListMine returns every cliq the caller belongs to.
func CliqsListMine(svc cliqs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cliq service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CliqsMembers returns the roster of a cliq the caller belongs to. Membership
// is enforced upstream by the cliq role middleware.
func CliqsMembers(svc cliqs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cliq service unavailable"))
			return
		}

		cliqID, err := uuid.Parse(chi.URLParam(r, "cliqId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cliq id"))
			return
		}

		members, err := svc.ListMembers(r.Context(), cliqID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": members})
	}
}
