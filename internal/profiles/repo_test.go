package profiles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupProfilesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	profilesTable := `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  about TEXT,
  image_url TEXT,
  banner_image_url TEXT,
  birthday DATE,
  show_year INTEGER NOT NULL DEFAULT 0,
  show_month_day INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(profilesTable).Error)
	return db
}

func TestCreateNormalizesUsername(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateProfileDTO{
		UserID:    uuid.New(),
		Username:  "  KidDo42 ",
		FirstName: " Sam ",
		LastName:  "Reed",
	})
	require.NoError(t, err)
	assert.Equal(t, "kiddo42", created.Username)
	assert.Equal(t, "Sam", created.FirstName)

	found, err := repo.FindByUsername(ctx, "KIDDO42")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestUsernameExists(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateProfileDTO{
		UserID:    uuid.New(),
		Username:  "taken",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)

	exists, err := repo.UsernameExists(ctx, "TAKEN")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "free")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUniqueUsernameIndexClosesRace(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateProfileDTO{
		UserID:    uuid.New(),
		Username:  "samesame",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateProfileDTO{
		UserID:    uuid.New(),
		Username:  "SameSame",
		FirstName: "C",
		LastName:  "D",
	})
	assert.Error(t, err)
}
