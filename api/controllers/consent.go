package controllers

import (
	"net/http"
	"time"

	"github.com/cliqstr/cliqstr-backend/api/responses"
	"github.com/cliqstr/cliqstr-backend/api/validators"
	"github.com/cliqstr/cliqstr-backend/internal/childsettings"
	"github.com/cliqstr/cliqstr-backend/internal/consent"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
)

type consentChildBody struct {
	Code          string `json:"code,omitempty"`
	ApprovalToken string `json:"approval_token,omitempty"`

	Username       string    `json:"username" validate:"required"`
	Password       string    `json:"password" validate:"required"`
	ChildFirstName string    `json:"child_first_name" validate:"required"`
	ChildLastName  string    `json:"child_last_name" validate:"required"`
	ChildBirthdate time.Time `json:"child_birthdate" validate:"required"`
	ChildEmail     string    `json:"child_email,omitempty"`

	Permissions           *childsettings.Permissions `json:"permissions,omitempty"`
	AcceptSafetyAgreement bool                       `json:"accept_safety_agreement"`
}

type consentDeclineBody struct {
	ApprovalToken string `json:"approval_token" validate:"required"`
}

// ConsentChild is the consent submission: the signed-in parent redeems an
// invite code or approval token and the child account is created atomically.
func ConsentChild(svc consent.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "consent service unavailable"))
			return
		}

		parentID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body consentChildBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		perms := childsettings.RegularPreset()
		if body.Permissions != nil {
			perms = *body.Permissions
		}

		result, err := svc.CreateChildAccount(r.Context(), consent.CreateChildInput{
			ParentUserID:          parentID,
			ParentRole:            currentRole(r),
			Code:                  body.Code,
			ApprovalToken:         body.ApprovalToken,
			Username:              body.Username,
			Password:              body.Password,
			ChildFirstName:        body.ChildFirstName,
			ChildLastName:         body.ChildLastName,
			ChildBirthdate:        body.ChildBirthdate,
			ChildEmail:            body.ChildEmail,
			Permissions:           perms,
			AcceptSafetyAgreement: body.AcceptSafetyAgreement,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ConsentDecline settles a pending approval as declined. Public by token:
// the parent clicks straight through from the email.
func ConsentDecline(svc consent.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "consent service unavailable"))
			return
		}

		var body consentDeclineBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Decline(r.Context(), body.ApprovalToken); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "declined"})
	}
}
