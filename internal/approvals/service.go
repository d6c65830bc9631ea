package approvals

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
	"github.com/cliqstr/cliqstr-backend/pkg/security"
)

var approvalTokenRe = regexp.MustCompile(`^[a-f0-9]{48}$`)

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

// Service exposes the parent approval lifecycle short of the final consent
// submission, which the consent orchestrator owns.
type Service interface {
	RequestApproval(ctx context.Context, input RequestApprovalInput) (*models.ParentApproval, error)
	ValidateToken(ctx context.Context, token string) (*ValidationResult, error)
	Decline(ctx context.Context, token string) error
}

// RequestApprovalInput pairs the optional acting user with the request.
type RequestApprovalInput struct {
	ActorUserID *uuid.UUID
	ActorRole   enums.AccountRole
	RequestApprovalDTO
}

// ServiceParams collects the approval service dependencies.
type ServiceParams struct {
	Repo        Repository
	Tx          txRunner
	Outbox      outboxPublisher
	Users       usersReader
	Accounts    accountsReader
	ApprovalTTL time.Duration
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	users       usersReader
	accounts    accountsReader
	approvalTTL time.Duration
}

// NewService builds an approval service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("approvals repository required")
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
	if params.ApprovalTTL <= 0 {
		return nil, fmt.Errorf("approval ttl must be positive")
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		outbox:      params.Outbox,
		users:       params.Users,
		accounts:    params.Accounts,
		approvalTTL: params.ApprovalTTL,
	}, nil
}

// RequestApproval records a pending consent request and queues the approval
// link email through the outbox in the same transaction.
func (s *service) RequestApproval(ctx context.Context, input RequestApprovalInput) (*models.ParentApproval, error) {
	if strings.TrimSpace(input.ChildFirstName) == "" || strings.TrimSpace(input.ChildLastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "child first and last name are required").
			WithReason(pkgerrors.ReasonMalformed)
	}
	email := strings.ToLower(strings.TrimSpace(input.ParentEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid parent email is required").
			WithReason(pkgerrors.ReasonMalformed)
	}
	if !input.Context.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid approval context %q", input.Context)).
			WithReason(pkgerrors.ReasonMalformed)
	}
	now := time.Now()
	if input.ChildBirthdate.IsZero() || input.ChildBirthdate.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid child birthdate is required").
			WithReason(pkgerrors.ReasonMalformed)
	}
	if enums.AgeGroupFor(input.ChildBirthdate, now) == enums.AgeGroupAdult {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent approval only applies to children under 18").
			WithReason(pkgerrors.ReasonMalformed)
	}

	parentState, parentUserID, err := s.classifyParent(ctx, email)
	if err != nil {
		return nil, err
	}

	token, err := security.GenerateApprovalToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate approval token")
	}

	approval := input.RequestApprovalDTO.ToModel(token, parentState, parentUserID, now.Add(s.approvalTTL))

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, approval); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create approval")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventApprovalRequested,
			AggregateType: enums.AggregateParentApproval,
			AggregateID:   approval.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: payloads.ApprovalRequestedEvent{
				ApprovalID:     approval.ID,
				ApprovalToken:  approval.ApprovalToken,
				ParentEmail:    approval.ParentEmail,
				ChildFirstName: approval.ChildFirstName,
				Context:        approval.Context,
				ParentState:    approval.ParentState,
				ExpiresAt:      approval.ExpiresAt,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return approval, nil
}

// ValidateToken answers whether an approval link can still be acted on.
// Expiry is judged against the clock at call time, whatever the stored
// status says.
func (s *service) ValidateToken(ctx context.Context, token string) (*ValidationResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	if !approvalTokenRe.MatchString(normalized) {
		return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonMalformed)}, nil
	}

	approval, err := s.repo.FindByToken(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonNotFound)}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load approval")
	}

	if time.Now().After(approval.ExpiresAt) {
		return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonExpired)}, nil
	}
	if approval.Status != enums.ApprovalStatusPending {
		return &ValidationResult{Valid: false, Reason: string(pkgerrors.ReasonAlreadyUsed)}, nil
	}

	return &ValidationResult{
		Valid:          true,
		ApprovalID:     approval.ID,
		ChildFirstName: approval.ChildFirstName,
		Context:        approval.Context,
		ParentState:    approval.ParentState,
		InviteID:       approval.InviteID,
		ExpiresAt:      approval.ExpiresAt,
	}, nil
}

// Decline settles a pending approval as declined. Terminal: the token cannot
// be revived afterwards.
func (s *service) Decline(ctx context.Context, token string) error {
	normalized := strings.ToLower(strings.TrimSpace(token))
	if !approvalTokenRe.MatchString(normalized) {
		return pkgerrors.New(pkgerrors.CodeValidation, "malformed approval token").
			WithReason(pkgerrors.ReasonMalformed)
	}

	approval, err := s.repo.FindByToken(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "approval not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load approval")
	}

	now := time.Now()
	if now.After(approval.ExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "approval has expired").
			WithReason(pkgerrors.ReasonExpired)
	}
	if approval.Status != enums.ApprovalStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "approval has already been decided").
			WithReason(pkgerrors.ReasonAlreadyUsed)
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.MarkDeclined(ctx, approval.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decline approval")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "approval has already been decided").
				WithReason(pkgerrors.ReasonAlreadyUsed)
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventApprovalDecided,
			AggregateType: enums.AggregateParentApproval,
			AggregateID:   approval.ID,
			Version:       1,
			Data: payloads.ApprovalDecidedEvent{
				ApprovalID: approval.ID,
				Status:     enums.ApprovalStatusDeclined,
				DecidedAt:  now,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// classifyParent resolves who sits behind the parent email right now.
func (s *service) classifyParent(ctx context.Context, email string) (enums.ParentState, *uuid.UUID, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.ParentStateNew, nil, nil
		}
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "classify parent state")
	}

	account, err := s.accounts.FindAccountByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enums.ParentStateNew, nil, nil
		}
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "classify parent state")
	}

	if account.Role == enums.AccountRoleChild {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "that email belongs to a child account and cannot grant consent").
			WithReason(pkgerrors.ReasonMalformed)
	}
	if user.IsParent || account.Role == enums.AccountRoleParent {
		return enums.ParentStateExistingParent, &user.ID, nil
	}
	return enums.ParentStateExistingAdult, &user.ID, nil
}

func buildActor(userID *uuid.UUID, role enums.AccountRole) *outbox.ActorRef {
	if userID == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: *userID, Role: role.String()}
}
