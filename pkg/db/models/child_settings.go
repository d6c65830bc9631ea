package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// ChildSettings is the per-child capability sheet a parent controls. One row
// per child profile; defaults are the most restrictive preset.
type ChildSettings struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProfileID        uuid.UUID             `gorm:"column:profile_id;type:uuid;not null;uniqueIndex"`
	CanPostImages    bool                  `gorm:"column:can_post_images;not null;default:false"`
	CanInviteFriends bool                  `gorm:"column:can_invite_friends;not null;default:false"`
	CanJoinNewCliqs  bool                  `gorm:"column:can_join_new_cliqs;not null;default:false"`
	CanCreateCliqs   bool                  `gorm:"column:can_create_cliqs;not null;default:false"`
	CanUploadVideos  bool                  `gorm:"column:can_upload_videos;not null;default:false"`
	CanSendMessages  bool                  `gorm:"column:can_send_messages;not null;default:false"`
	CanShareYoutube  bool                  `gorm:"column:can_share_youtube;not null;default:false"`
	CanAccessGames   bool                  `gorm:"column:can_access_games;not null;default:false"`
	IsMonitored      bool                  `gorm:"column:is_monitored;not null;default:true"`
	SilentMonitoring bool                  `gorm:"column:silent_monitoring;not null;default:false"`
	VisibilityLevel  enums.VisibilityLevel `gorm:"column:visibility_level;type:visibility_level;not null;default:'private'"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
