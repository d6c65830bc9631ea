package approvals

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
)

type stubApprovalsRepo struct {
	approval *models.ParentApproval
	created  *models.ParentApproval
	declines int64
}

func (s *stubApprovalsRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubApprovalsRepo) Create(_ context.Context, approval *models.ParentApproval) (*models.ParentApproval, error) {
	s.created = approval
	return approval, nil
}

func (s *stubApprovalsRepo) FindByToken(_ context.Context, token string) (*models.ParentApproval, error) {
	if s.approval == nil || s.approval.ApprovalToken != token {
		return nil, gorm.ErrRecordNotFound
	}
	return s.approval, nil
}

func (s *stubApprovalsRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.ParentApproval, error) {
	if s.approval == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.approval, nil
}

func (s *stubApprovalsRepo) MarkApproved(_ context.Context, _ uuid.UUID, _, _ uuid.UUID, _ time.Time) (int64, error) {
	return 0, nil
}

func (s *stubApprovalsRepo) MarkDeclined(_ context.Context, _ uuid.UUID, _ time.Time) (int64, error) {
	return s.declines, nil
}

func (s *stubApprovalsRepo) FindDueForExpiry(_ context.Context, _ time.Time, _ int) ([]models.ParentApproval, error) {
	return nil, nil
}

func (s *stubApprovalsRepo) MarkExpired(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubApprovalsRepo) HasApprovedLink(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubApprovalsRepo) ApprovedChildIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubUsersReader struct {
	user *models.User
}

func (s *stubUsersReader) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type stubAccountsReader struct {
	account *models.Account
}

func (s *stubAccountsReader) FindAccountByUserID(_ context.Context, _ uuid.UUID) (*models.Account, error) {
	if s.account == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.account, nil
}

type approvalFixture struct {
	repo     *stubApprovalsRepo
	outbox   *stubOutbox
	users    *stubUsersReader
	accounts *stubAccountsReader
	svc      Service
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()
	f := &approvalFixture{
		repo:     &stubApprovalsRepo{},
		outbox:   &stubOutbox{},
		users:    &stubUsersReader{},
		accounts: &stubAccountsReader{},
	}
	svc, err := NewService(ServiceParams{
		Repo:        f.repo,
		Tx:          stubTxRunner{},
		Outbox:      f.outbox,
		Users:       f.users,
		Accounts:    f.accounts,
		ApprovalTTL: 72 * time.Hour,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func childBirthdate() time.Time {
	return time.Now().AddDate(-10, 0, 0)
}

func TestRequestApprovalClassifiesNewParent(t *testing.T) {
	f := newApprovalFixture(t)

	approval, err := f.svc.RequestApproval(context.Background(), RequestApprovalInput{
		RequestApprovalDTO: RequestApprovalDTO{
			ChildFirstName: "Robin",
			ChildLastName:  "Day",
			ChildBirthdate: childBirthdate(),
			ParentEmail:    "New.Parent@Example.com",
			Context:        enums.ApprovalContextDirectSignup,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "new.parent@example.com", approval.ParentEmail)
	assert.Equal(t, enums.ParentStateNew, approval.ParentState)
	assert.Equal(t, enums.ApprovalStatusPending, approval.Status)
	assert.Len(t, approval.ApprovalToken, 48)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), approval.ExpiresAt, time.Minute)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventApprovalRequested, f.outbox.events[0].EventType)
	assert.Equal(t, approval.ID, f.outbox.events[0].AggregateID)
}

func TestRequestApprovalClassifiesExistingAdult(t *testing.T) {
	f := newApprovalFixture(t)
	adultID := uuid.New()
	f.users.user = &models.User{ID: adultID, Email: "adult@example.com"}
	f.accounts.account = &models.Account{UserID: adultID, Role: enums.AccountRoleAdult}

	approval, err := f.svc.RequestApproval(context.Background(), RequestApprovalInput{
		RequestApprovalDTO: RequestApprovalDTO{
			ChildFirstName: "Robin",
			ChildLastName:  "Day",
			ChildBirthdate: childBirthdate(),
			ParentEmail:    "adult@example.com",
			Context:        enums.ApprovalContextChildInvite,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ParentStateExistingAdult, approval.ParentState)
	require.NotNil(t, approval.ParentUserID)
	assert.Equal(t, adultID, *approval.ParentUserID)
}

func TestRequestApprovalRejectsAdultBirthdate(t *testing.T) {
	f := newApprovalFixture(t)

	_, err := f.svc.RequestApproval(context.Background(), RequestApprovalInput{
		RequestApprovalDTO: RequestApprovalDTO{
			ChildFirstName: "Robin",
			ChildLastName:  "Day",
			ChildBirthdate: time.Now().AddDate(-21, 0, 0),
			ParentEmail:    "parent@example.com",
			Context:        enums.ApprovalContextDirectSignup,
		},
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestValidateTokenExpiryBeatsStoredStatus(t *testing.T) {
	f := newApprovalFixture(t)
	token := strings.Repeat("ab", 24)
	f.repo.approval = &models.ParentApproval{
		ID:            uuid.New(),
		ApprovalToken: token,
		Status:        enums.ApprovalStatusPending,
		ExpiresAt:     time.Now().Add(-time.Minute),
	}

	result, err := f.svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "expired", result.Reason)
}

func TestValidateTokenShapes(t *testing.T) {
	token := strings.Repeat("0f", 24)

	t.Run("malformed", func(t *testing.T) {
		f := newApprovalFixture(t)
		result, err := f.svc.ValidateToken(context.Background(), "nope")
		require.NoError(t, err)
		assert.Equal(t, "malformed", result.Reason)
	})

	t.Run("not found", func(t *testing.T) {
		f := newApprovalFixture(t)
		result, err := f.svc.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "not_found", result.Reason)
	})

	t.Run("already decided", func(t *testing.T) {
		f := newApprovalFixture(t)
		f.repo.approval = &models.ParentApproval{
			ID:            uuid.New(),
			ApprovalToken: token,
			Status:        enums.ApprovalStatusApproved,
			ExpiresAt:     time.Now().Add(time.Hour),
		}
		result, err := f.svc.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "already_used", result.Reason)
	})

	t.Run("pending and in window", func(t *testing.T) {
		f := newApprovalFixture(t)
		f.repo.approval = &models.ParentApproval{
			ID:             uuid.New(),
			ApprovalToken:  token,
			ChildFirstName: "Robin",
			Status:         enums.ApprovalStatusPending,
			Context:        enums.ApprovalContextDirectSignup,
			ParentState:    enums.ParentStateNew,
			ExpiresAt:      time.Now().Add(time.Hour),
		}
		result, err := f.svc.ValidateToken(context.Background(), " "+strings.ToUpper(token)+" ")
		require.NoError(t, err)
		require.True(t, result.Valid)
		assert.Equal(t, "Robin", result.ChildFirstName)
		assert.Equal(t, enums.ApprovalContextDirectSignup, result.Context)
	})
}

func TestDeclinePendingApproval(t *testing.T) {
	f := newApprovalFixture(t)
	token := strings.Repeat("cd", 24)
	f.repo.approval = &models.ParentApproval{
		ID:            uuid.New(),
		ApprovalToken: token,
		Status:        enums.ApprovalStatusPending,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	f.repo.declines = 1

	require.NoError(t, f.svc.Decline(context.Background(), token))
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventApprovalDecided, f.outbox.events[0].EventType)
}

func TestDeclineRacingDecisionSurfacesAlreadyUsed(t *testing.T) {
	f := newApprovalFixture(t)
	token := strings.Repeat("ef", 24)
	f.repo.approval = &models.ParentApproval{
		ID:            uuid.New(),
		ApprovalToken: token,
		Status:        enums.ApprovalStatusPending,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	f.repo.declines = 0

	err := f.svc.Decline(context.Background(), token)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ReasonAlreadyUsed, appErr.Reason())
	assert.Empty(t, f.outbox.events)
}
