package cliqs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

func setupCliqsDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
		CREATE TABLE cliqs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			owner_user_id TEXT NOT NULL,
			privacy TEXT NOT NULL DEFAULT 'private',
			min_age INTEGER,
			max_age INTEGER,
			created_at DATETIME,
			updated_at DATETIME
		)`).Error)
	require.NoError(t, db.Exec(`
		CREATE TABLE cliq_memberships (
			id TEXT PRIMARY KEY,
			cliq_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'member',
			joined_via_invite TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (cliq_id, user_id)
		)`).Error)

	t.Cleanup(func() {
		db.Exec("DROP TABLE cliq_memberships")
		db.Exec("DROP TABLE cliqs")
	})
	return db
}

func seedCliq(t *testing.T, repo Repository, ownerID uuid.UUID, name string) *models.Cliq {
	t.Helper()
	cliq, err := repo.Create(context.Background(), &models.Cliq{
		ID:          uuid.New(),
		Name:        name,
		OwnerUserID: ownerID,
		Privacy:     enums.CliqPrivacyPrivate,
	})
	require.NoError(t, err)
	_, err = repo.CreateMembership(context.Background(), NewOwnerMembership(cliq.ID, ownerID))
	require.NoError(t, err)
	return cliq
}

func TestMembershipUniquePerCliq(t *testing.T) {
	repo := NewRepository(setupCliqsDB(t))
	ctx := context.Background()
	ownerID := uuid.New()
	cliq := seedCliq(t, repo, ownerID, "Book Club")

	_, err := repo.CreateMembership(ctx, NewOwnerMembership(cliq.ID, ownerID))
	require.Error(t, err, "second membership for the same user must hit the unique index")

	member, err := repo.IsMember(ctx, cliq.ID, ownerID)
	require.NoError(t, err)
	assert.True(t, member)
}

func TestShareCliq(t *testing.T) {
	repo := NewRepository(setupCliqsDB(t))
	ctx := context.Background()
	ownerID := uuid.New()
	childID := uuid.New()
	outsiderID := uuid.New()
	cliq := seedCliq(t, repo, ownerID, "Family")

	inviteID := uuid.New()
	_, err := repo.CreateMembership(ctx, NewInviteMembership(cliq.ID, childID, inviteID))
	require.NoError(t, err)

	shared, err := repo.ShareCliq(ctx, ownerID, childID)
	require.NoError(t, err)
	assert.True(t, shared)

	shared, err = repo.ShareCliq(ctx, ownerID, outsiderID)
	require.NoError(t, err)
	assert.False(t, shared)
}

func TestListByMember(t *testing.T) {
	repo := NewRepository(setupCliqsDB(t))
	ctx := context.Background()
	ownerID := uuid.New()
	seedCliq(t, repo, ownerID, "Family")
	seedCliq(t, repo, ownerID, "Soccer")
	seedCliq(t, repo, uuid.New(), "Not Mine")

	rows, err := repo.ListByMember(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestInviteMembershipCarriesInviteRef(t *testing.T) {
	repo := NewRepository(setupCliqsDB(t))
	ctx := context.Background()
	cliq := seedCliq(t, repo, uuid.New(), "Chess")
	userID := uuid.New()
	inviteID := uuid.New()

	membership, err := repo.CreateMembership(ctx, NewInviteMembership(cliq.ID, userID, inviteID))
	require.NoError(t, err)
	assert.Equal(t, enums.CliqMemberRoleMember, membership.Role)
	require.NotNil(t, membership.JoinedViaInvite)
	assert.Equal(t, inviteID, *membership.JoinedViaInvite)
}

func TestListMembersReturnsRoster(t *testing.T) {
	repo := NewRepository(setupCliqsDB(t))
	ctx := context.Background()
	ownerID := uuid.New()
	cliq := seedCliq(t, repo, ownerID, "Family")
	memberID := uuid.New()
	_, err := repo.CreateMembership(ctx, NewInviteMembership(cliq.ID, memberID, uuid.New()))
	require.NoError(t, err)

	rows, err := repo.ListMembers(ctx, cliq.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.CliqMemberRoleOwner, rows[0].Role)
	assert.Equal(t, ownerID, rows[0].UserID)
	assert.Equal(t, memberID, rows[1].UserID)
}

func TestUserHasRoleDistinguishesRoles(t *testing.T) {
	repo := NewRepository(setupCliqsDB(t))
	ctx := context.Background()
	ownerID := uuid.New()
	cliq := seedCliq(t, repo, ownerID, "Book Club")
	memberID := uuid.New()
	_, err := repo.CreateMembership(ctx, NewInviteMembership(cliq.ID, memberID, uuid.New()))
	require.NoError(t, err)

	ok, err := repo.UserHasRole(ctx, cliq.ID, ownerID, enums.CliqMemberRoleOwner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UserHasRole(ctx, cliq.ID, memberID, enums.CliqMemberRoleOwner, enums.CliqMemberRoleModerator)
	require.NoError(t, err)
	assert.False(t, ok)
}
