package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/internal/cliqs"
	"github.com/cliqstr/cliqstr-backend/internal/invites"
	"github.com/cliqstr/cliqstr-backend/internal/users"
	"github.com/cliqstr/cliqstr-backend/pkg/config"
	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox"
)

var registerTables = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_parent INTEGER NOT NULL DEFAULT 0,
		is_verified INTEGER NOT NULL DEFAULT 0,
		verification_token TEXT,
		verification_token_expiry DATETIME,
		reset_token TEXT,
		reset_token_expiry DATETIME,
		last_login_at DATETIME,
		deleted_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		birthdate DATE NOT NULL,
		is_approved INTEGER NOT NULL DEFAULT 0,
		suspended INTEGER NOT NULL DEFAULT 0,
		plan TEXT,
		stripe_customer_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE invites (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		invitee_email TEXT NOT NULL,
		invited_role TEXT NOT NULL,
		target_state TEXT NOT NULL DEFAULT 'new',
		status TEXT NOT NULL DEFAULT 'pending',
		used INTEGER NOT NULL DEFAULT 0,
		used_at DATETIME,
		used_by_user_id TEXT,
		cliq_id TEXT,
		inviter_user_id TEXT NOT NULL,
		child_first_name TEXT,
		child_last_name TEXT,
		personal_message TEXT,
		expires_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE cliqs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		owner_user_id TEXT NOT NULL,
		privacy TEXT NOT NULL DEFAULT 'private',
		min_age INTEGER,
		max_age INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE cliq_memberships (
		id TEXT PRIMARY KEY,
		cliq_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		joined_via_invite TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (cliq_id, user_id)
	)`,
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

type registerFixture struct {
	db      *gorm.DB
	users   *users.Repository
	invites invites.Repository
	cliqs   cliqs.Repository
	outbox  *recordingOutbox
	svc     RegisterService
}

func newRegisterFixture(t *testing.T) *registerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range registerTables {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		for _, table := range []string{"cliq_memberships", "cliqs", "invites", "accounts", "users"} {
			db.Exec("DROP TABLE " + table)
		}
	})

	f := &registerFixture{
		db:      db,
		users:   users.NewRepository(db),
		invites: invites.NewRepository(db),
		cliqs:   cliqs.NewRepository(db),
		outbox:  &recordingOutbox{},
	}

	svc, err := NewRegisterService(RegisterServiceParams{
		Tx:             gormTxRunner{db: db},
		Users:          f.users,
		Invites:        f.invites,
		Cliqs:          f.cliqs,
		Outbox:         f.outbox,
		PasswordConfig: config.PasswordConfig{MinLength: 8},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *registerFixture) seedInvite(t *testing.T, invite *models.Invite) *models.Invite {
	t.Helper()
	if invite.ID == uuid.Nil {
		invite.ID = uuid.New()
	}
	if invite.Status == "" {
		invite.Status = enums.InviteStatusPending
	}
	if invite.ExpiresAt.IsZero() {
		invite.ExpiresAt = time.Now().Add(168 * time.Hour)
	}
	require.NoError(t, f.db.Create(invite).Error)
	return invite
}

func adultBirthdate() time.Time {
	return time.Now().AddDate(-30, 0, 0)
}

func TestRegisterCreatesAdultAccount(t *testing.T) {
	f := newRegisterFixture(t)

	result, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:     "  Casey@Example.COM ",
		Password:  "Secur3!!",
		Birthdate: adultBirthdate(),
		AcceptTOS: true,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AccountRoleAdult, result.Role)
	assert.False(t, result.InviteAccepted)

	user, err := f.users.FindByEmail(context.Background(), "casey@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsParent)

	account, err := f.users.FindAccountByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AccountRoleAdult, account.Role)
	assert.True(t, account.IsApproved)
}

func TestRegisterWithChildInviteBecomesParent(t *testing.T) {
	f := newRegisterFixture(t)
	invite := f.seedInvite(t, &models.Invite{
		Code:          "A1B2C3D4E5F60718",
		InviteeEmail:  "parent@example.com",
		InvitedRole:   enums.AccountRoleChild,
		InviterUserID: uuid.New(),
	})

	code := invite.Code
	result, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:      "parent@example.com",
		Password:   "Secur3!!",
		Birthdate:  adultBirthdate(),
		InviteCode: &code,
		AcceptTOS:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AccountRoleParent, result.Role)
	assert.True(t, result.InviteAccepted)

	user, err := f.users.FindByEmail(context.Background(), "parent@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsParent)

	// The code survives signup unburned; consent still has to consume it.
	stored, err := f.invites.FindByID(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InviteStatusAccepted, stored.Status)
	assert.False(t, stored.Used)
}

func TestRegisterWithAdultInviteJoinsCliq(t *testing.T) {
	f := newRegisterFixture(t)
	cliqID := uuid.New()
	require.NoError(t, f.db.Create(&models.Cliq{
		ID:          cliqID,
		Name:        "Book Club",
		OwnerUserID: uuid.New(),
		Privacy:     enums.CliqPrivacyPrivate,
	}).Error)
	invite := f.seedInvite(t, &models.Invite{
		Code:          "B1B2C3D4E5F60718",
		InviteeEmail:  "friend@example.com",
		InvitedRole:   enums.AccountRoleAdult,
		InviterUserID: uuid.New(),
		CliqID:        &cliqID,
	})

	code := invite.Code
	result, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:      "friend@example.com",
		Password:   "Secur3!!",
		Birthdate:  adultBirthdate(),
		InviteCode: &code,
		AcceptTOS:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AccountRoleAdult, result.Role)
	require.NotNil(t, result.JoinedCliqID)
	assert.Equal(t, cliqID, *result.JoinedCliqID)

	stored, err := f.invites.FindByID(context.Background(), invite.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InviteStatusCompleted, stored.Status)
	assert.True(t, stored.Used)

	member, err := f.cliqs.IsMember(context.Background(), cliqID, result.UserID)
	require.NoError(t, err)
	assert.True(t, member)

	types := make([]enums.OutboxEventType, 0, len(f.outbox.events))
	for _, event := range f.outbox.events {
		types = append(types, event.EventType)
	}
	assert.Contains(t, types, enums.EventInviteAccepted)
	assert.Contains(t, types, enums.EventMemberJoinedCliq)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newRegisterFixture(t)
	req := RegisterRequest{
		Email:     "casey@example.com",
		Password:  "Secur3!!",
		Birthdate: adultBirthdate(),
		AcceptTOS: true,
	}

	_, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Equal(t, pkgerrors.ReasonEmailTaken, pkgerrors.As(err).Reason())
}

func TestRegisterRejectsMinors(t *testing.T) {
	f := newRegisterFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:     "teen@example.com",
		Password:  "Secur3!!",
		Birthdate: time.Now().AddDate(-15, 0, 0),
		AcceptTOS: true,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newRegisterFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:     "casey@example.com",
		Password:  "short",
		Birthdate: adultBirthdate(),
		AcceptTOS: true,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonWeakPassword, pkgerrors.As(err).Reason())
}

func TestRegisterRequiresTOSAcceptance(t *testing.T) {
	f := newRegisterFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:     "casey@example.com",
		Password:  "Secur3!!",
		Birthdate: adultBirthdate(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRegisterRejectsExpiredInvite(t *testing.T) {
	f := newRegisterFixture(t)
	invite := f.seedInvite(t, &models.Invite{
		Code:          "C1B2C3D4E5F60718",
		InviteeEmail:  "parent@example.com",
		InvitedRole:   enums.AccountRoleChild,
		InviterUserID: uuid.New(),
		ExpiresAt:     time.Now().Add(-time.Hour),
	})

	code := invite.Code
	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:      "parent@example.com",
		Password:   "Secur3!!",
		Birthdate:  adultBirthdate(),
		InviteCode: &code,
		AcceptTOS:  true,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ReasonExpired, pkgerrors.As(err).Reason())

	// The failed signup must not leave an account behind.
	_, err = f.users.FindByEmail(context.Background(), "parent@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
