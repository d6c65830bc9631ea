package childsettings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

func setupSettingsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
		CREATE TABLE child_settings (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL UNIQUE,
			can_post_images BOOLEAN NOT NULL DEFAULT FALSE,
			can_invite_friends BOOLEAN NOT NULL DEFAULT FALSE,
			can_join_new_cliqs BOOLEAN NOT NULL DEFAULT FALSE,
			can_create_cliqs BOOLEAN NOT NULL DEFAULT FALSE,
			can_upload_videos BOOLEAN NOT NULL DEFAULT FALSE,
			can_send_messages BOOLEAN NOT NULL DEFAULT FALSE,
			can_share_youtube BOOLEAN NOT NULL DEFAULT FALSE,
			can_access_games BOOLEAN NOT NULL DEFAULT FALSE,
			is_monitored BOOLEAN NOT NULL DEFAULT TRUE,
			silent_monitoring BOOLEAN NOT NULL DEFAULT FALSE,
			visibility_level TEXT NOT NULL DEFAULT 'private',
			created_at DATETIME,
			updated_at DATETIME
		)`).Error)

	t.Cleanup(func() {
		db.Exec("DROP TABLE child_settings")
	})
	return db
}

func TestCreateAndFindSettings(t *testing.T) {
	repo := NewRepository(setupSettingsDB(t))
	ctx := context.Background()
	profileID := uuid.New()

	created, err := repo.Create(ctx, profileID, InvitedChildPreset())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByProfileID(ctx, profileID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.False(t, found.CanInviteFriends)
	require.True(t, found.IsMonitored)
	require.Equal(t, enums.VisibilityLevelPrivate, found.VisibilityLevel)
}

func TestUpdateSettingsOverwritesAllFlags(t *testing.T) {
	repo := NewRepository(setupSettingsDB(t))
	ctx := context.Background()
	profileID := uuid.New()

	_, err := repo.Create(ctx, profileID, InvitedChildPreset())
	require.NoError(t, err)

	loosened := InvitedChildPreset()
	loosened.CanInviteFriends = true
	loosened.CanUploadVideos = true
	loosened.VisibilityLevel = enums.VisibilityLevelStandard
	require.NoError(t, repo.Update(ctx, profileID, loosened))

	found, err := repo.FindByProfileID(ctx, profileID)
	require.NoError(t, err)
	got := PermissionsFromModel(found)
	require.True(t, got.CanInviteFriends)
	require.True(t, got.CanUploadVideos)
	require.False(t, got.CanJoinNewCliqs)
	require.Equal(t, enums.VisibilityLevelStandard, got.VisibilityLevel)
}

func TestFindSettingsMissingProfile(t *testing.T) {
	repo := NewRepository(setupSettingsDB(t))

	_, err := repo.FindByProfileID(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
