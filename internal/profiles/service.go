package profiles

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/visibility"
)

var usernameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.]{2,29}$`)

type profileReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByUsername(ctx context.Context, username string) (*models.Profile, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type accountReader interface {
	FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
}

type settingsReader interface {
	FindByProfileID(ctx context.Context, profileID uuid.UUID) (*models.ChildSettings, error)
}

type membershipChecker interface {
	ShareCliq(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// Service exposes profile reads and the username availability probe.
type Service interface {
	CheckUsername(ctx context.Context, username string) error
	GetProfile(ctx context.Context, viewer Viewer, profileID uuid.UUID) (*ProfileDTO, error)
}

// Viewer identifies the requesting member for visibility checks.
type Viewer struct {
	UserID   uuid.UUID
	Role     enums.AccountRole
	IsParent bool
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Profiles    profileReader
	Accounts    accountReader
	Settings    settingsReader
	Memberships membershipChecker
	Now         func() time.Time
}

type service struct {
	profiles    profileReader
	accounts    accountReader
	settings    settingsReader
	memberships membershipChecker
	now         func() time.Time
}

// NewService builds a profile service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if params.Memberships == nil {
		return nil, fmt.Errorf("membership checker required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		profiles:    params.Profiles,
		accounts:    params.Accounts,
		settings:    params.Settings,
		memberships: params.Memberships,
		now:         now,
	}, nil
}

// CheckUsername validates format and probes availability. Callers still race
// against the unique index; the orchestrator re-checks at write time.
func (s *service) CheckUsername(ctx context.Context, username string) error {
	normalized := NormalizeUsername(username)
	if !usernameRe.MatchString(normalized) {
		return pkgerrors.New(pkgerrors.CodeValidation, "username must be 3-30 characters: letters, digits, dot, underscore").
			WithReason(pkgerrors.ReasonMalformed)
	}
	exists, err := s.profiles.UsernameExists(ctx, normalized)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking username availability")
	}
	if exists {
		return pkgerrors.New(pkgerrors.CodeConflict, "username is already taken").
			WithReason(pkgerrors.ReasonUsernameTaken)
	}
	return nil
}

// GetProfile loads a profile honoring child visibility gates. The moderation
// level is derived from the account birthdate.
func (s *service) GetProfile(ctx context.Context, viewer Viewer, profileID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading profile")
	}

	account, err := s.accounts.FindAccountByUserID(ctx, profile.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account for profile")
	}

	visibilityLevel := enums.VisibilityLevelStandard
	if account.Role == enums.AccountRoleChild {
		settings, err := s.settings.FindByProfileID(ctx, profile.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading child settings")
		}
		if settings != nil {
			visibilityLevel = settings.VisibilityLevel
		} else {
			visibilityLevel = enums.VisibilityLevelPrivate
		}
	}

	sharesCliq := false
	if viewer.UserID != profile.UserID {
		sharesCliq, err = s.memberships.ShareCliq(ctx, viewer.UserID, profile.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking shared cliqs")
		}
	}

	if err := visibility.EnsureProfileVisible(visibility.ProfileVisibilityInput{
		Profile:         profile,
		ViewerUserID:    viewer.UserID.String(),
		OwnerUserID:     profile.UserID.String(),
		OwnerRole:       account.Role,
		VisibilityLevel: visibilityLevel,
		SharesCliq:      sharesCliq,
		ViewerIsParent:  viewer.IsParent,
	}); err != nil {
		return nil, err
	}

	dto := FromModel(profile, account.Birthdate, s.now())
	dto.DisplayBirthday = visibility.DisplayBirthday(profile.Birthday, profile.ShowYear, profile.ShowMonthDay)
	return dto, nil
}
