package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/api/responses"
	"github.com/cliqstr/cliqstr-backend/api/validators"
	"github.com/cliqstr/cliqstr-backend/internal/childsettings"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
)

func childProfileID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "profileId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profile id")
	}
	return id, nil
}

// ChildPermissionsGet returns the permission grid for one of the caller's
// children. Guardianship is checked inside the service.
func ChildPermissionsGet(svc childsettings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "child settings service unavailable"))
			return
		}

		parentID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profileID, err := childProfileID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		perms, err := svc.GetPermissions(r.Context(), parentID, profileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, perms)
	}
}

// ChildPermissionsUpdate applies a partial update to the permission grid for
// one of the caller's children. Flags left out of the body keep their stored
// value.
func ChildPermissionsUpdate(svc childsettings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "child settings service unavailable"))
			return
		}

		parentID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profileID, err := childProfileID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body childsettings.PermissionsPatch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		perms, err := svc.UpdatePermissions(r.Context(), parentID, profileID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, perms)
	}
}
