package consent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/internal/approvals"
	"github.com/cliqstr/cliqstr-backend/internal/childsettings"
	"github.com/cliqstr/cliqstr-backend/internal/cliqs"
	"github.com/cliqstr/cliqstr-backend/internal/invites"
	"github.com/cliqstr/cliqstr-backend/internal/profiles"
	"github.com/cliqstr/cliqstr-backend/internal/users"
	"github.com/cliqstr/cliqstr-backend/pkg/config"
	dbpkg "github.com/cliqstr/cliqstr-backend/pkg/db"
	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
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

type usernameChecker interface {
	CheckUsername(ctx context.Context, username string) error
}

// Service is the consent orchestrator: it turns a still-valid invite code or
// approval token plus the parent's submission into a child account, and burns
// the guard record in the same transaction.
type Service interface {
	CreateChildAccount(ctx context.Context, input CreateChildInput) (*Result, error)
	Decline(ctx context.Context, token string) error
}

// CreateChildInput is the parent's consent submission.
type CreateChildInput struct {
	ParentUserID  uuid.UUID
	ParentRole    enums.AccountRole
	Code          string
	ApprovalToken string

	Username       string
	Password       string
	ChildFirstName string
	ChildLastName  string
	ChildBirthdate time.Time
	ChildEmail     string

	Permissions           childsettings.Permissions
	AcceptSafetyAgreement bool
}

// Result identifies the created child account.
type Result struct {
	ChildUserID uuid.UUID `json:"child_user_id"`
	ProfileID   uuid.UUID `json:"profile_id"`
	Username    string    `json:"username"`
}

// ServiceParams collects the orchestrator dependencies.
type ServiceParams struct {
	Tx        txRunner
	Users     *users.Repository
	Profiles  *profiles.Repository
	Settings  *childsettings.Repository
	Invites   invites.Repository
	Approvals approvals.Repository
	Cliqs     cliqs.Repository
	Usernames usernameChecker
	Decliner  approvals.Service
	Outbox    outboxPublisher
	Password  config.PasswordConfig
	Logger    *logger.Logger
}

type service struct {
	tx        txRunner
	users     *users.Repository
	profiles  *profiles.Repository
	settings  *childsettings.Repository
	invites   invites.Repository
	approvals approvals.Repository
	cliqs     cliqs.Repository
	usernames usernameChecker
	decliner  approvals.Service
	outbox    outboxPublisher
	password  config.PasswordConfig
	logg      *logger.Logger
}

// NewService builds the consent orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if params.Invites == nil {
		return nil, fmt.Errorf("invites repository required")
	}
	if params.Approvals == nil {
		return nil, fmt.Errorf("approvals repository required")
	}
	if params.Cliqs == nil {
		return nil, fmt.Errorf("cliqs repository required")
	}
	if params.Usernames == nil {
		return nil, fmt.Errorf("username checker required")
	}
	if params.Decliner == nil {
		return nil, fmt.Errorf("approvals service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:        params.Tx,
		users:     params.Users,
		profiles:  params.Profiles,
		settings:  params.Settings,
		invites:   params.Invites,
		approvals: params.Approvals,
		cliqs:     params.Cliqs,
		usernames: params.Usernames,
		decliner:  params.Decliner,
		outbox:    params.Outbox,
		password:  params.Password,
		logg:      params.Logger,
	}, nil
}

// CreateChildAccount runs the whole consent step inside one transaction:
// guard validation, child record creation, conditional guard consumption, and
// the outbox emits. A duplicate submission rolls everything back and surfaces
// already_used; no second child survives.
func (s *service) CreateChildAccount(ctx context.Context, input CreateChildInput) (*Result, error) {
	if input.ParentUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	token := strings.ToLower(strings.TrimSpace(input.ApprovalToken))
	if code == "" && token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an invite code or approval token is required").
			WithReason(pkgerrors.ReasonMissingCode)
	}
	if code != "" && token != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provide either an invite code or an approval token, not both").
			WithReason(pkgerrors.ReasonMalformed)
	}
	if !input.AcceptSafetyAgreement {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the monitoring and safety agreement must be acknowledged").
			WithReason(pkgerrors.ReasonMalformed)
	}
	if err := s.usernames.CheckUsername(ctx, input.Username); err != nil {
		return nil, err
	}
	if err := security.ValidatePolicy(input.Password, s.password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "password does not meet the policy").
			WithReason(pkgerrors.ReasonWeakPassword)
	}

	guard, err := s.resolveGuard(ctx, code, token, input)
	if err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	username := profiles.NormalizeUsername(input.Username)
	childEmail := strings.ToLower(strings.TrimSpace(input.ChildEmail))
	if childEmail == "" {
		// Children sign in with their username; the placeholder address only
		// satisfies the users.email uniqueness contract.
		childEmail = username + "@children.cliqstr.app"
	}

	var result *Result
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := time.Now()
		usersRepo := s.users.WithTx(tx)

		user, err := usersRepo.Create(ctx, users.CreateUserDTO{
			Email:        childEmail,
			PasswordHash: hash,
			IsParent:     false,
			IsVerified:   true,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a child account already exists for this consent").
					WithReason(pkgerrors.ReasonDuplicateChild)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create child user")
		}

		if _, err := usersRepo.CreateAccount(ctx, users.CreateAccountDTO{
			UserID:     user.ID,
			Role:       enums.AccountRoleChild,
			Birthdate:  guard.birthdate,
			IsApproved: true,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create child account")
		}

		profile, err := s.profiles.WithTx(tx).Create(ctx, profiles.CreateProfileDTO{
			UserID:    user.ID,
			Username:  username,
			FirstName: guard.firstName,
			LastName:  guard.lastName,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "username") {
				return pkgerrors.New(pkgerrors.CodeConflict, "that username is already taken").
					WithReason(pkgerrors.ReasonUsernameTaken)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create child profile")
		}

		resolved := childsettings.ResolvePreset(guard.viaInvite, input.Permissions)
		if _, err := s.settings.WithTx(tx).Create(ctx, profile.ID, resolved); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create child settings")
		}

		approvalID, err := s.consumeGuard(ctx, tx, guard, input, user.ID, now)
		if err != nil {
			return err
		}

		if guard.invite != nil && guard.invite.CliqID != nil {
			membership := cliqs.NewInviteMembership(*guard.invite.CliqID, user.ID, guard.invite.ID)
			if _, err := s.cliqs.WithTx(tx).CreateMembership(ctx, membership); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cliq membership")
			}
			joined := outbox.DomainEvent{
				EventType:     enums.EventMemberJoinedCliq,
				AggregateType: enums.AggregateCliq,
				AggregateID:   *guard.invite.CliqID,
				Version:       1,
				Actor:         s.actor(input),
				Data: payloads.MemberJoinedCliqEvent{
					CliqID:   *guard.invite.CliqID,
					UserID:   user.ID,
					InviteID: &guard.invite.ID,
					JoinedAt: now,
				},
			}
			if err := s.outbox.Emit(ctx, tx, joined); err != nil {
				return err
			}
		}

		var inviteID *uuid.UUID
		if guard.invite != nil {
			inviteID = &guard.invite.ID
		}
		created := outbox.DomainEvent{
			EventType:     enums.EventChildAccountCreated,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Version:       1,
			Actor:         s.actor(input),
			Data: payloads.ChildAccountCreatedEvent{
				ChildUserID:  user.ID,
				ParentUserID: input.ParentUserID,
				ApprovalID:   approvalID,
				InviteID:     inviteID,
				Username:     username,
			},
		}
		if err := s.outbox.Emit(ctx, tx, created); err != nil {
			return err
		}

		result = &Result{
			ChildUserID: user.ID,
			ProfileID:   profile.ID,
			Username:    username,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"child_id":  result.ChildUserID.String(),
			"parent_id": input.ParentUserID.String(),
		}), "child account created")
	}
	return result, nil
}

// Decline forwards the parent's rejection to the approval lifecycle.
func (s *service) Decline(ctx context.Context, token string) error {
	return s.decliner.Decline(ctx, token)
}

// guardRecord is the resolved invite-or-approval plus the child identity facts
// it vouches for.
type guardRecord struct {
	invite    *models.Invite
	approval  *models.ParentApproval
	viaInvite bool
	firstName string
	lastName  string
	birthdate time.Time
}

func (s *service) resolveGuard(ctx context.Context, code, token string, input CreateChildInput) (*guardRecord, error) {
	if code != "" {
		return s.resolveInvite(ctx, code, input)
	}
	return s.resolveApproval(ctx, token, input)
}

// verifySubmitter ties the guard record to the signed-in parent. Invites are
// bound to the invitee email; approvals to the requesting parent's email or,
// once decided, their user id. Anyone else holding the code or token is
// rejected before the guard is consumed.
func (s *service) verifySubmitter(ctx context.Context, sessionUserID uuid.UUID, guardEmail string, guardUserID *uuid.UUID) error {
	if guardUserID != nil {
		if *guardUserID != sessionUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "this consent request belongs to a different parent")
		}
		return nil
	}
	user, err := s.users.FindByID(ctx, sessionUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submitting user")
	}
	if !strings.EqualFold(strings.TrimSpace(user.Email), strings.TrimSpace(guardEmail)) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "this consent request belongs to a different parent")
	}
	return nil
}

func (s *service) resolveInvite(ctx context.Context, code string, input CreateChildInput) (*guardRecord, error) {
	invite, err := s.invites.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invite not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invite")
	}
	if invite.Used || invite.Status == enums.InviteStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "this invite has already been used").
			WithReason(pkgerrors.ReasonAlreadyUsed)
	}
	if invite.Status == enums.InviteStatusCanceled {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invite not found")
	}
	if invite.Status == enums.InviteStatusExpired || time.Now().After(invite.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "this invite has expired").
			WithReason(pkgerrors.ReasonExpired)
	}
	if invite.InvitedRole != enums.AccountRoleChild {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "this invite does not create a child account").
			WithReason(pkgerrors.ReasonMalformed)
	}
	if err := s.verifySubmitter(ctx, input.ParentUserID, invite.InviteeEmail, nil); err != nil {
		return nil, err
	}

	birthdate := input.ChildBirthdate
	if birthdate.IsZero() || birthdate.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid child birthdate is required").
			WithReason(pkgerrors.ReasonMalformed)
	}
	if enums.AgeGroupFor(birthdate, time.Now()) == enums.AgeGroupAdult {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the consent flow only creates accounts for children under 18").
			WithReason(pkgerrors.ReasonMalformed)
	}

	firstName := strings.TrimSpace(input.ChildFirstName)
	lastName := strings.TrimSpace(input.ChildLastName)
	if firstName == "" && invite.ChildFirstName != nil {
		firstName = *invite.ChildFirstName
	}
	if lastName == "" && invite.ChildLastName != nil {
		lastName = *invite.ChildLastName
	}
	if firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "child first and last name are required").
			WithReason(pkgerrors.ReasonMalformed)
	}

	return &guardRecord{
		invite:    invite,
		viaInvite: true,
		firstName: firstName,
		lastName:  lastName,
		birthdate: birthdate,
	}, nil
}

func (s *service) resolveApproval(ctx context.Context, token string, input CreateChildInput) (*guardRecord, error) {
	approval, err := s.approvals.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "approval not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load approval")
	}
	if time.Now().After(approval.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "this approval has expired").
			WithReason(pkgerrors.ReasonExpired)
	}
	if approval.Status != enums.ApprovalStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "this approval has already been decided").
			WithReason(pkgerrors.ReasonAlreadyUsed)
	}
	if err := s.verifySubmitter(ctx, input.ParentUserID, approval.ParentEmail, approval.ParentUserID); err != nil {
		return nil, err
	}

	return &guardRecord{
		approval:  approval,
		firstName: approval.ChildFirstName,
		lastName:  approval.ChildLastName,
		birthdate: approval.ChildBirthdate,
	}, nil
}

// consumeGuard burns the guard record with a conditional update. Zero
// affected rows means another submission won; the whole transaction rolls
// back. The invite path also writes an approved consent record so the
// parent-child guardianship link is durable for both paths.
func (s *service) consumeGuard(ctx context.Context, tx *gorm.DB, guard *guardRecord, input CreateChildInput, childUserID uuid.UUID, now time.Time) (uuid.UUID, error) {
	if guard.viaInvite {
		rows, err := s.invites.WithTx(tx).MarkConsumed(ctx, guard.invite.ID, childUserID, now)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume invite")
		}
		if rows == 0 {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeConflict, "this invite has already been used").
				WithReason(pkgerrors.ReasonAlreadyUsed)
		}

		accepted := outbox.DomainEvent{
			EventType:     enums.EventInviteAccepted,
			AggregateType: enums.AggregateInvite,
			AggregateID:   guard.invite.ID,
			Version:       1,
			Actor:         s.actor(input),
			Data: payloads.InviteAcceptedEvent{
				InviteID:     guard.invite.ID,
				UsedByUserID: childUserID,
				UsedAt:       now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, accepted); err != nil {
			return uuid.Nil, err
		}

		token, err := security.GenerateApprovalToken()
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate approval token")
		}
		parentUserID := input.ParentUserID
		record := &models.ParentApproval{
			ID:             uuid.New(),
			ApprovalToken:  token,
			ChildFirstName: guard.firstName,
			ChildLastName:  guard.lastName,
			ChildBirthdate: guard.birthdate,
			ParentEmail:    guard.invite.InviteeEmail,
			Status:         enums.ApprovalStatusApproved,
			Context:        enums.ApprovalContextChildInvite,
			ParentState:    enums.ParentStateExistingParent,
			InviteID:       &guard.invite.ID,
			ParentUserID:   &parentUserID,
			ChildUserID:    &childUserID,
			ApprovedAt:     &now,
			ExpiresAt:      guard.invite.ExpiresAt,
		}
		if _, err := s.approvals.WithTx(tx).Create(ctx, record); err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record consent")
		}
		return record.ID, nil
	}

	rows, err := s.approvals.WithTx(tx).MarkApproved(ctx, guard.approval.ID, input.ParentUserID, childUserID, now)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume approval")
	}
	if rows == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeConflict, "this approval has already been decided").
			WithReason(pkgerrors.ReasonAlreadyUsed)
	}

	decided := outbox.DomainEvent{
		EventType:     enums.EventApprovalDecided,
		AggregateType: enums.AggregateParentApproval,
		AggregateID:   guard.approval.ID,
		Version:       1,
		Actor:         s.actor(input),
		Data: payloads.ApprovalDecidedEvent{
			ApprovalID:   guard.approval.ID,
			Status:       enums.ApprovalStatusApproved,
			ParentUserID: &input.ParentUserID,
			ChildUserID:  &childUserID,
			DecidedAt:    now,
		},
	}
	if err := s.outbox.Emit(ctx, tx, decided); err != nil {
		return uuid.Nil, err
	}
	return guard.approval.ID, nil
}

func (s *service) actor(input CreateChildInput) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: input.ParentUserID, Role: input.ParentRole.String()}
}
