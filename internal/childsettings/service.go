package childsettings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

type settingsRepo interface {
	FindByProfileID(ctx context.Context, profileID uuid.UUID) (*models.ChildSettings, error)
	Update(ctx context.Context, profileID uuid.UUID, perms Permissions) error
}

type profileReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type accountReader interface {
	FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
}

type guardianChecker interface {
	IsGuardianOf(ctx context.Context, parentUserID, childUserID uuid.UUID) (bool, error)
	ChildUserIDs(ctx context.Context, parentUserID uuid.UUID) ([]uuid.UUID, error)
}

// ChildSummary is one row of a parent's dashboard listing.
type ChildSummary struct {
	ProfileID   uuid.UUID   `json:"profile_id"`
	UserID      uuid.UUID   `json:"user_id"`
	Username    string      `json:"username"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Permissions Permissions `json:"permissions"`
}

// Service exposes the parent-facing permission surface.
type Service interface {
	GetPermissions(ctx context.Context, parentUserID, profileID uuid.UUID) (*Permissions, error)
	UpdatePermissions(ctx context.Context, parentUserID, profileID uuid.UUID, patch PermissionsPatch) (*Permissions, error)
	ListChildren(ctx context.Context, parentUserID uuid.UUID) ([]ChildSummary, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Settings  settingsRepo
	Profiles  profileReader
	Accounts  accountReader
	Guardians guardianChecker
}

type service struct {
	settings  settingsRepo
	profiles  profileReader
	accounts  accountReader
	guardians guardianChecker
}

// NewService builds a child settings service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Settings == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if params.Guardians == nil {
		return nil, fmt.Errorf("guardian checker required")
	}
	return &service{
		settings:  params.Settings,
		profiles:  params.Profiles,
		accounts:  params.Accounts,
		guardians: params.Guardians,
	}, nil
}

// GetPermissions returns the capability sheet for a child the caller parents.
func (s *service) GetPermissions(ctx context.Context, parentUserID, profileID uuid.UUID) (*Permissions, error) {
	settings, err := s.authorize(ctx, parentUserID, profileID)
	if err != nil {
		return nil, err
	}
	perms := PermissionsFromModel(settings)
	return &perms, nil
}

// UpdatePermissions merges the patch into the stored capability sheet.
// Omitted flags keep their value; any flag may be changed, including ones
// the invited-child preset forced off at creation.
func (s *service) UpdatePermissions(ctx context.Context, parentUserID, profileID uuid.UUID, patch PermissionsPatch) (*Permissions, error) {
	settings, err := s.authorize(ctx, parentUserID, profileID)
	if err != nil {
		return nil, err
	}
	if patch.VisibilityLevel != nil && !patch.VisibilityLevel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid visibility level %q", *patch.VisibilityLevel)).
			WithReason(pkgerrors.ReasonMalformed)
	}
	perms := patch.Apply(PermissionsFromModel(settings))
	if err := s.settings.Update(ctx, profileID, perms); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating child settings")
	}
	return &perms, nil
}

// ListChildren returns every child the parent has an approved consent for.
// Children whose profile or settings rows are missing are skipped rather than
// failing the whole listing.
func (s *service) ListChildren(ctx context.Context, parentUserID uuid.UUID) ([]ChildSummary, error) {
	childIDs, err := s.guardians.ChildUserIDs(ctx, parentUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing guardianships")
	}

	summaries := make([]ChildSummary, 0, len(childIDs))
	for _, childID := range childIDs {
		profile, err := s.profiles.FindByUserID(ctx, childID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading child profile")
		}
		settings, err := s.settings.FindByProfileID(ctx, profile.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading child settings")
		}
		summaries = append(summaries, ChildSummary{
			ProfileID:   profile.ID,
			UserID:      profile.UserID,
			Username:    profile.Username,
			FirstName:   profile.FirstName,
			LastName:    profile.LastName,
			Permissions: PermissionsFromModel(settings),
		})
	}
	return summaries, nil
}

func (s *service) authorize(ctx context.Context, parentUserID, profileID uuid.UUID) (*models.ChildSettings, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "child profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading child profile")
	}

	account, err := s.accounts.FindAccountByUserID(ctx, profile.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading child account")
	}
	if account.Role != enums.AccountRoleChild {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "child profile not found")
	}

	isGuardian, err := s.guardians.IsGuardianOf(ctx, parentUserID, profile.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking guardianship")
	}
	if !isGuardian {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the child's parent may manage permissions")
	}

	settings, err := s.settings.FindByProfileID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "child settings not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading child settings")
	}
	return settings, nil
}
