package invites

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox/payloads"
	pkgpagination "github.com/cliqstr/cliqstr-backend/pkg/pagination"
	"github.com/cliqstr/cliqstr-backend/pkg/security"
)

var inviteCodeRe = regexp.MustCompile(`^[A-F0-9]{16}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type usersReader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type accountsReader interface {
	FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
}

type cliqsReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cliq, error)
}

type profilesReader interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// Service exposes invite creation, validation, listing, and cancellation.
type Service interface {
	CreateInvite(ctx context.Context, input CreateInviteInput) (*models.Invite, error)
	ValidateCode(ctx context.Context, code string) (*ValidationResult, error)
	ListInvites(ctx context.Context, params ListParams) (*ListResult, error)
	CancelInvite(ctx context.Context, inviterUserID uuid.UUID, code string) error
}

// CreateInviteInput pairs the acting user with the invite request.
type CreateInviteInput struct {
	InviterUserID uuid.UUID
	InviterRole   enums.AccountRole
	CreateInviteDTO
}

// ServiceParams collects the invite service dependencies.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Users     usersReader
	Accounts  accountsReader
	Cliqs     cliqsReader
	Profiles  profilesReader
	InviteTTL time.Duration
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	users     usersReader
	accounts  accountsReader
	cliqs     cliqsReader
	profiles  profilesReader
	inviteTTL time.Duration
}

// NewService builds an invite service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invite repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if params.Cliqs == nil {
		return nil, fmt.Errorf("cliqs repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if params.InviteTTL <= 0 {
		return nil, fmt.Errorf("invite ttl must be positive")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		users:     params.Users,
		accounts:  params.Accounts,
		cliqs:     params.Cliqs,
		profiles:  params.Profiles,
		inviteTTL: params.InviteTTL,
	}, nil
}

// CreateInvite mints a code, classifies the target against the users table,
// and queues the delivery email through the outbox in the same transaction.
func (s *service) CreateInvite(ctx context.Context, input CreateInviteInput) (*models.Invite, error) {
	if input.InviterUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.InviterRole == enums.AccountRoleChild {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "children cannot send invites")
	}
	email := strings.ToLower(strings.TrimSpace(input.InviteeEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid invitee email is required").
			WithReason(pkgerrors.ReasonMalformed)
	}
	if !input.InvitedRole.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid invited role %q", input.InvitedRole)).
			WithReason(pkgerrors.ReasonMalformed)
	}

	targetState, err := s.classifyTarget(ctx, email)
	if err != nil {
		return nil, err
	}
	if targetState == enums.InviteTargetInvalidChild {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "that email belongs to a child account and cannot receive invites").
			WithReason(pkgerrors.ReasonMalformed)
	}

	code, err := security.GenerateInviteCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invite code")
	}

	invite := input.CreateInviteDTO.ToModel(code, input.InviterUserID, targetState, time.Now().Add(s.inviteTTL))

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, invite); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invite")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventInviteCreated,
			AggregateType: enums.AggregateInvite,
			AggregateID:   invite.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.InviterUserID, Role: input.InviterRole.String()},
			Data: payloads.InviteCreatedEvent{
				InviteID:     invite.ID,
				Code:         invite.Code,
				InviteeEmail: invite.InviteeEmail,
				InvitedRole:  invite.InvitedRole,
				CliqID:       invite.CliqID,
				ExpiresAt:    invite.ExpiresAt,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// ValidateCode answers whether a code can still be used. Read-only: expiry is
// judged against the clock at call time even when the stored status lags.
func (s *service) ValidateCode(ctx context.Context, code string) (*ValidationResult, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if !inviteCodeRe.MatchString(normalized) {
		return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonMalformed)}, nil
	}

	invite, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonNotFound)}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invite")
	}

	if invite.Used || invite.Status == enums.InviteStatusCompleted {
		return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonAlreadyUsed)}, nil
	}
	if invite.Status == enums.InviteStatusCanceled {
		return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonNotFound)}, nil
	}
	if invite.Status == enums.InviteStatusExpired || time.Now().After(invite.ExpiresAt) {
		return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonExpired)}, nil
	}

	// Re-classify at read time; the target may have signed up since creation.
	targetState, err := s.classifyTarget(ctx, invite.InviteeEmail)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Valid:       true,
		TargetState: targetState,
		InvitedRole: invite.InvitedRole,
	}
	if invite.CliqID != nil {
		cliq, err := s.cliqs.FindByID(ctx, *invite.CliqID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cliq")
		}
		if cliq != nil {
			result.CliqName = cliq.Name
		}
	}
	inviterName, err := s.inviterDisplayName(ctx, invite.InviterUserID)
	if err != nil {
		return nil, err
	}
	result.InviterName = inviterName
	return result, nil
}

// ListInvites returns one inviter-scoped page, newest first.
func (s *service) ListInvites(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.InviterUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		inviterUserID: params.InviterUserID,
		limit:         pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invites")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	now := time.Now()
	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row, now)
	}

	return &ListResult{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}

// CancelInvite retires a pending invite owned by the caller.
func (s *service) CancelInvite(ctx context.Context, inviterUserID uuid.UUID, code string) error {
	if inviterUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	normalized := strings.ToUpper(strings.TrimSpace(code))

	invite, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invite not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invite")
	}
	if invite.InviterUserID != inviterUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "invite does not belong to caller")
	}

	rows, err := s.repo.Cancel(ctx, invite.ID, inviterUserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel invite")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invite is no longer pending").
			WithReason(pkgerrors.ReasonNotPending)
	}
	return nil
}

// classifyTarget resolves who sits behind the invitee email right now.
func (s *service) classifyTarget(ctx context.Context, email string) (enums.InviteTargetState, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.InviteTargetNew, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "classify invite target")
	}

	account, err := s.accounts.FindAccountByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.InviteTargetNew, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "classify invite target")
	}

	switch {
	case account.Role == enums.AccountRoleChild:
		return enums.InviteTargetInvalidChild, nil
	case user.IsParent || account.Role == enums.AccountRoleParent:
		return enums.InviteTargetExistingParent, nil
	default:
		return enums.InviteTargetExistingNonParent, nil
	}
}

func (s *service) inviterDisplayName(ctx context.Context, inviterUserID uuid.UUID) (string, error) {
	profile, err := s.profiles.FindByUserID(ctx, inviterUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inviter profile")
	}
	name := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	if name == "" {
		name = profile.Username
	}
	return name, nil
}
