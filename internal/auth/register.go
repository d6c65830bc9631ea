package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/internal/cliqs"
	"github.com/cliqstr/cliqstr-backend/internal/invites"
	"github.com/cliqstr/cliqstr-backend/internal/users"
	"github.com/cliqstr/cliqstr-backend/pkg/config"
	"github.com/cliqstr/cliqstr-backend/pkg/db"
	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox/payloads"
	"github.com/cliqstr/cliqstr-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RegisterService handles adult and parent self-signup. A signup that
// presents a child invite code turns the registrant into a parent whose
// consent submission is still pending; an adult invite joins its cliq
// immediately and burns the code.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	Tx             txRunner
	Users          *users.Repository
	Invites        invites.Repository
	Cliqs          cliqs.Repository
	Outbox         outboxPublisher
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	users       *users.Repository
	invites     invites.Repository
	cliqs       cliqs.Repository
	outbox      outboxPublisher
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Invites == nil {
		return nil, fmt.Errorf("invites repository required")
	}
	if params.Cliqs == nil {
		return nil, fmt.Errorf("cliqs repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &registerService{
		tx:          params.Tx,
		users:       params.Users,
		invites:     params.Invites,
		cliqs:       params.Cliqs,
		outbox:      params.Outbox,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.AcceptTOS {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "accept_tos must be true")
	}

	now := time.Now().UTC()
	if req.Birthdate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "birthdate is required")
	}
	if enums.AgeGroupFor(req.Birthdate, now) != enums.AgeGroupAdult {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "you must be 18 or older to sign up; child accounts are created by a parent")
	}

	if err := security.ValidatePolicy(req.Password, s.passwordCfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "password does not meet the policy").
			WithReason(pkgerrors.ReasonWeakPassword)
	}
	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var result *RegisterResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersTx := s.users.WithTx(tx)

		if _, err := usersTx.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered").
				WithReason(pkgerrors.ReasonEmailTaken)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		var invite *models.Invite
		if req.InviteCode != nil && strings.TrimSpace(*req.InviteCode) != "" {
			loaded, err := s.resolveInvite(ctx, tx, *req.InviteCode, now)
			if err != nil {
				return err
			}
			invite = loaded
		}

		role := enums.AccountRoleAdult
		if invite != nil && (invite.InvitedRole == enums.AccountRoleChild || invite.InvitedRole == enums.AccountRoleParent) {
			role = enums.AccountRoleParent
		}

		user, err := usersTx.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			IsParent:     role == enums.AccountRoleParent,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "email") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered").
					WithReason(pkgerrors.ReasonEmailTaken)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if _, err := usersTx.CreateAccount(ctx, users.CreateAccountDTO{
			UserID:     user.ID,
			Role:       role,
			Birthdate:  req.Birthdate,
			IsApproved: true,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
		}

		result = &RegisterResult{UserID: user.ID, Role: role}
		if invite == nil {
			return nil
		}

		if invite.InvitedRole == enums.AccountRoleChild {
			// The code stays unburned: the new parent still has to submit
			// the consent form before the child account exists.
			rows, err := s.invites.WithTx(tx).MarkAccepted(ctx, invite.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "accept invite")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "invite already used").
					WithReason(pkgerrors.ReasonAlreadyUsed)
			}
			result.InviteAccepted = true
			return nil
		}

		return s.consumeAdultInvite(ctx, tx, invite, user.ID, role, now, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveInvite loads and vets the code inside the signup transaction so the
// state it checks is the state that gets updated.
func (s *registerService) resolveInvite(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Invite, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	invite, err := s.invites.WithTx(tx).FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invite not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invite")
	}

	switch {
	case invite.Used || invite.Status == enums.InviteStatusCompleted:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "invite already used").
			WithReason(pkgerrors.ReasonAlreadyUsed)
	case invite.Status == enums.InviteStatusCanceled:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invite not found")
	case invite.Status == enums.InviteStatusExpired || now.After(invite.ExpiresAt):
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invite expired").
			WithReason(pkgerrors.ReasonExpired)
	}
	return invite, nil
}

func (s *registerService) consumeAdultInvite(ctx context.Context, tx *gorm.DB, invite *models.Invite, userID uuid.UUID, role enums.AccountRole, now time.Time, result *RegisterResult) error {
	rows, err := s.invites.WithTx(tx).MarkConsumed(ctx, invite.ID, userID, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume invite")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "invite already used").
			WithReason(pkgerrors.ReasonAlreadyUsed)
	}

	actor := &outbox.ActorRef{UserID: userID, Role: string(role)}
	accepted := outbox.DomainEvent{
		EventType:     enums.EventInviteAccepted,
		AggregateType: enums.AggregateInvite,
		AggregateID:   invite.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.InviteAcceptedEvent{
			InviteID:     invite.ID,
			UsedByUserID: userID,
			UsedAt:       now,
		},
		OccurredAt: now,
	}
	if err := s.outbox.Emit(ctx, tx, accepted); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit invite accepted")
	}
	result.InviteAccepted = true

	if invite.CliqID == nil {
		return nil
	}
	membership := cliqs.NewInviteMembership(*invite.CliqID, userID, invite.ID)
	if _, err := s.cliqs.WithTx(tx).CreateMembership(ctx, membership); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create membership")
	}
	joined := outbox.DomainEvent{
		EventType:     enums.EventMemberJoinedCliq,
		AggregateType: enums.AggregateCliq,
		AggregateID:   *invite.CliqID,
		Version:       1,
		Actor:         actor,
		Data: payloads.MemberJoinedCliqEvent{
			CliqID:   *invite.CliqID,
			UserID:   userID,
			InviteID: &invite.ID,
			JoinedAt: now,
		},
		OccurredAt: now,
	}
	if err := s.outbox.Emit(ctx, tx, joined); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit member joined")
	}
	result.JoinedCliqID = invite.CliqID
	return nil
}
