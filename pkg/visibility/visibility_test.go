package visibility

import (
	"testing"
	"time"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

func TestEnsureProfileVisible(t *testing.T) {
	profile := &models.Profile{Username: "kiddo"}

	cases := []struct {
		name     string
		input    ProfileVisibilityInput
		wantCode pkgerrors.Code
	}{
		{
			name: "owner always sees own profile",
			input: ProfileVisibilityInput{
				Profile:         profile,
				ViewerUserID:    "u1",
				OwnerUserID:     "u1",
				OwnerRole:       enums.AccountRoleChild,
				VisibilityLevel: enums.VisibilityLevelPrivate,
			},
		},
		{
			name: "parent bypasses visibility gates",
			input: ProfileVisibilityInput{
				Profile:         profile,
				ViewerUserID:    "u2",
				OwnerUserID:     "u1",
				OwnerRole:       enums.AccountRoleChild,
				VisibilityLevel: enums.VisibilityLevelPrivate,
				ViewerIsParent:  true,
			},
		},
		{
			name: "adult profiles are not gated",
			input: ProfileVisibilityInput{
				Profile:      profile,
				ViewerUserID: "u2",
				OwnerUserID:  "u1",
				OwnerRole:    enums.AccountRoleAdult,
			},
		},
		{
			name: "private child profile hidden from strangers",
			input: ProfileVisibilityInput{
				Profile:         profile,
				ViewerUserID:    "u2",
				OwnerUserID:     "u1",
				OwnerRole:       enums.AccountRoleChild,
				VisibilityLevel: enums.VisibilityLevelPrivate,
			},
			wantCode: pkgerrors.CodeNotFound,
		},
		{
			name: "cliqs only requires shared cliq",
			input: ProfileVisibilityInput{
				Profile:         profile,
				ViewerUserID:    "u2",
				OwnerUserID:     "u1",
				OwnerRole:       enums.AccountRoleChild,
				VisibilityLevel: enums.VisibilityLevelCliqsOnly,
			},
			wantCode: pkgerrors.CodeNotFound,
		},
		{
			name: "cliqs only passes with shared cliq",
			input: ProfileVisibilityInput{
				Profile:         profile,
				ViewerUserID:    "u2",
				OwnerUserID:     "u1",
				OwnerRole:       enums.AccountRoleChild,
				VisibilityLevel: enums.VisibilityLevelCliqsOnly,
				SharesCliq:      true,
			},
		},
		{
			name:     "nil profile is not found",
			input:    ProfileVisibilityInput{ViewerUserID: "u2", OwnerUserID: "u1"},
			wantCode: pkgerrors.CodeNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureProfileVisible(tc.input)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected visible, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error code %s", tc.wantCode)
			}
			typed, ok := err.(*pkgerrors.Error)
			if !ok {
				t.Fatalf("expected typed error, got %T", err)
			}
			if typed.Code() != tc.wantCode {
				t.Fatalf("expected code %s got %s", tc.wantCode, typed.Code())
			}
		})
	}
}

func TestDisplayBirthday(t *testing.T) {
	bday := time.Date(2014, time.July, 4, 0, 0, 0, 0, time.UTC)

	if got := DisplayBirthday(nil, true, true); got != "" {
		t.Fatalf("expected empty for nil birthday, got %q", got)
	}
	if got := DisplayBirthday(&bday, true, true); got != "July 4, 2014" {
		t.Fatalf("unexpected full display %q", got)
	}
	if got := DisplayBirthday(&bday, false, true); got != "July 4" {
		t.Fatalf("unexpected month-day display %q", got)
	}
	if got := DisplayBirthday(&bday, true, false); got != "2014" {
		t.Fatalf("unexpected year display %q", got)
	}
	if got := DisplayBirthday(&bday, false, false); got != "" {
		t.Fatalf("expected empty display, got %q", got)
	}
}
