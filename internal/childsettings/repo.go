package childsettings

import (
	"context"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes child settings persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a child settings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the settings row for a child profile.
func (r *Repository) Create(ctx context.Context, profileID uuid.UUID, perms Permissions) (*models.ChildSettings, error) {
	settings := &models.ChildSettings{
		ID:               uuid.New(),
		ProfileID:        profileID,
		CanPostImages:    perms.CanPostImages,
		CanInviteFriends: perms.CanInviteFriends,
		CanJoinNewCliqs:  perms.CanJoinNewCliqs,
		CanCreateCliqs:   perms.CanCreateCliqs,
		CanUploadVideos:  perms.CanUploadVideos,
		CanSendMessages:  perms.CanSendMessages,
		CanShareYoutube:  perms.CanShareYoutube,
		CanAccessGames:   perms.CanAccessGames,
		IsMonitored:      perms.IsMonitored,
		SilentMonitoring: perms.SilentMonitoring,
		VisibilityLevel:  perms.VisibilityLevel,
	}
	if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// FindByProfileID loads the settings row attached to a child profile.
func (r *Repository) FindByProfileID(ctx context.Context, profileID uuid.UUID) (*models.ChildSettings, error) {
	var settings models.ChildSettings
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update overwrites the capability sheet for a child profile.
func (r *Repository) Update(ctx context.Context, profileID uuid.UUID, perms Permissions) error {
	return r.db.WithContext(ctx).
		Model(&models.ChildSettings{}).
		Where("profile_id = ?", profileID).
		Updates(map[string]any{
			"can_post_images":    perms.CanPostImages,
			"can_invite_friends": perms.CanInviteFriends,
			"can_join_new_cliqs": perms.CanJoinNewCliqs,
			"can_create_cliqs":   perms.CanCreateCliqs,
			"can_upload_videos":  perms.CanUploadVideos,
			"can_send_messages":  perms.CanSendMessages,
			"can_share_youtube":  perms.CanShareYoutube,
			"can_access_games":   perms.CanAccessGames,
			"is_monitored":       perms.IsMonitored,
			"silent_monitoring":  perms.SilentMonitoring,
			"visibility_level":   perms.VisibilityLevel,
		}).Error
}

// PermissionsFromModel maps a settings row back into the capability sheet.
func PermissionsFromModel(m *models.ChildSettings) Permissions {
	if m == nil {
		return Permissions{}
	}
	return Permissions{
		CanPostImages:    m.CanPostImages,
		CanInviteFriends: m.CanInviteFriends,
		CanJoinNewCliqs:  m.CanJoinNewCliqs,
		CanCreateCliqs:   m.CanCreateCliqs,
		CanUploadVideos:  m.CanUploadVideos,
		CanSendMessages:  m.CanSendMessages,
		CanShareYoutube:  m.CanShareYoutube,
		CanAccessGames:   m.CanAccessGames,
		IsMonitored:      m.IsMonitored,
		SilentMonitoring: m.SilentMonitoring,
		VisibilityLevel:  m.VisibilityLevel,
	}
}
