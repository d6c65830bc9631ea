package visibility

import (
	"fmt"
	"time"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

// ProfileVisibilityInput drives the shared visibility checks for member-facing
// profile reads.
type ProfileVisibilityInput struct {
	Profile         *models.Profile
	ViewerUserID    string
	OwnerUserID     string
	OwnerRole       enums.AccountRole
	VisibilityLevel enums.VisibilityLevel
	SharesCliq      bool
	ViewerIsParent  bool
}

// EnsureProfileVisible enforces canonical rules so gated child profiles never
// leak through member queries. A profile's own parent and the owner always
// pass.
func EnsureProfileVisible(input ProfileVisibilityInput) error {
	if input.Profile == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	if input.ViewerUserID == input.OwnerUserID {
		return nil
	}
	if input.ViewerIsParent {
		return nil
	}
	if input.OwnerRole != enums.AccountRoleChild {
		return nil
	}

	switch input.VisibilityLevel {
	case enums.VisibilityLevelPrivate:
		return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	case enums.VisibilityLevelCliqsOnly:
		if !input.SharesCliq {
			return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil
	case enums.VisibilityLevelStandard:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown visibility level %q", input.VisibilityLevel))
	}
}

// DisplayBirthday formats the social birthday honoring the owner's show flags.
// It returns an empty string when nothing may be shown.
func DisplayBirthday(birthday *time.Time, showYear, showMonthDay bool) string {
	if birthday == nil {
		return ""
	}
	switch {
	case showYear && showMonthDay:
		return birthday.Format("January 2, 2006")
	case showMonthDay:
		return birthday.Format("January 2")
	case showYear:
		return birthday.Format("2006")
	default:
		return ""
	}
}
