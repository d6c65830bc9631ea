package cliqs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type profilesReader interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type settingsReader interface {
	FindByProfileID(ctx context.Context, profileID uuid.UUID) (*models.ChildSettings, error)
}

// Service exposes cliq creation and the reads other workflows lean on.
type Service interface {
	CreateCliq(ctx context.Context, input CreateCliqInput) (*models.Cliq, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Cliq, error)
	ListMembers(ctx context.Context, cliqID uuid.UUID) ([]MemberSummary, error)
}

// MemberSummary is one roster row: the membership joined with the member's
// display identity.
type MemberSummary struct {
	UserID   uuid.UUID            `json:"user_id"`
	Username string               `json:"username"`
	Role     enums.CliqMemberRole `json:"role"`
	JoinedAt time.Time            `json:"joined_at"`
}

// CreateCliqInput pairs the acting user with the cliq request.
type CreateCliqInput struct {
	OwnerUserID uuid.UUID
	OwnerRole   enums.AccountRole
	Name        string
	Description *string
	Privacy     enums.CliqPrivacy
	MinAge      *int
	MaxAge      *int
}

// ServiceParams collects the cliq service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Profiles profilesReader
	Settings settingsReader
}

type service struct {
	repo     Repository
	tx       txRunner
	profiles profilesReader
	settings settingsReader
}

// NewService builds a cliq service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cliq repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		profiles: params.Profiles,
		settings: params.Settings,
	}, nil
}

// CreateCliq creates the circle and seats the creator as owner in the same
// transaction. Child accounts must hold the can_create_cliqs capability.
func (s *service) CreateCliq(ctx context.Context, input CreateCliqInput) (*models.Cliq, error) {
	if input.OwnerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cliq name is required").
			WithReason(pkgerrors.ReasonMalformed)
	}
	privacy := input.Privacy
	if privacy == "" {
		privacy = enums.CliqPrivacyPrivate
	}
	if !privacy.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid privacy %q", input.Privacy)).
			WithReason(pkgerrors.ReasonMalformed)
	}
	if input.MinAge != nil && input.MaxAge != nil && *input.MinAge > *input.MaxAge {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min age cannot exceed max age").
			WithReason(pkgerrors.ReasonMalformed)
	}

	if input.OwnerRole == enums.AccountRoleChild {
		allowed, err := s.childMayCreate(ctx, input.OwnerUserID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "your permissions do not allow creating cliqs")
		}
	}

	cliq := &models.Cliq{
		ID:          uuid.New(),
		Name:        name,
		Description: input.Description,
		OwnerUserID: input.OwnerUserID,
		Privacy:     privacy,
		MinAge:      input.MinAge,
		MaxAge:      input.MaxAge,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, cliq); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cliq")
		}
		if _, err := repo.CreateMembership(ctx, NewOwnerMembership(cliq.ID, input.OwnerUserID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seat cliq owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cliq, nil
}

// ListMine returns the caller's cliqs.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Cliq, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cliqs")
	}
	return rows, nil
}

// ListMembers returns the cliq roster. Members whose profile row is missing
// are listed without a username rather than dropped.
func (s *service) ListMembers(ctx context.Context, cliqID uuid.UUID) ([]MemberSummary, error) {
	if cliqID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cliq id is required").
			WithReason(pkgerrors.ReasonMalformed)
	}
	rows, err := s.repo.ListMembers(ctx, cliqID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cliq members")
	}

	members := make([]MemberSummary, 0, len(rows))
	for _, row := range rows {
		summary := MemberSummary{
			UserID:   row.UserID,
			Role:     row.Role,
			JoinedAt: row.CreatedAt,
		}
		profile, err := s.profiles.FindByUserID(ctx, row.UserID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member profile")
			}
		} else {
			summary.Username = profile.Username
		}
		members = append(members, summary)
	}
	return members, nil
}

func (s *service) childMayCreate(ctx context.Context, userID uuid.UUID) (bool, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load child profile")
	}
	settings, err := s.settings.FindByProfileID(ctx, profile.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load child settings")
	}
	return settings.CanCreateCliqs, nil
}
