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

	"github.com/cliqstr/cliqstr-backend/internal/users"
	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	pkgerrors "github.com/cliqstr/cliqstr-backend/pkg/errors"
)

type upgradeFixture struct {
	db    *gorm.DB
	users *users.Repository
	svc   UpgradeService
}

func newUpgradeFixture(t *testing.T) *upgradeFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range registerTables[:2] {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		db.Exec("DROP TABLE accounts")
		db.Exec("DROP TABLE users")
	})

	repo := users.NewRepository(db)
	svc, err := NewUpgradeService(UpgradeServiceParams{
		Tx:    gormTxRunner{db: db},
		Users: repo,
	})
	require.NoError(t, err)
	return &upgradeFixture{db: db, users: repo, svc: svc}
}

func (f *upgradeFixture) seedAccount(t *testing.T, role enums.AccountRole) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, f.db.Create(&models.User{
		ID:           userID,
		Email:        userID.String() + "@example.com",
		PasswordHash: "x",
		IsParent:     role == enums.AccountRoleParent,
	}).Error)
	require.NoError(t, f.db.Create(&models.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		Birthdate: time.Now().AddDate(-30, 0, 0),
	}).Error)
	return userID
}

func TestUpgradeAdultToParent(t *testing.T) {
	f := newUpgradeFixture(t)
	userID := f.seedAccount(t, enums.AccountRoleAdult)

	result, err := f.svc.UpgradeToParent(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, enums.AccountRoleParent, result.Role)
	assert.False(t, result.AlreadyParent)

	account, err := f.users.FindAccountByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, enums.AccountRoleParent, account.Role)

	user, err := f.users.FindByID(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, user.IsParent)
}

func TestUpgradeIsIdempotentForParents(t *testing.T) {
	f := newUpgradeFixture(t)
	userID := f.seedAccount(t, enums.AccountRoleParent)

	result, err := f.svc.UpgradeToParent(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyParent)
	assert.Equal(t, enums.AccountRoleParent, result.Role)
}

func TestUpgradeForbiddenForChildren(t *testing.T) {
	f := newUpgradeFixture(t)
	userID := f.seedAccount(t, enums.AccountRoleChild)

	_, err := f.svc.UpgradeToParent(context.Background(), userID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestUpgradeUnknownAccount(t *testing.T) {
	f := newUpgradeFixture(t)

	_, err := f.svc.UpgradeToParent(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
