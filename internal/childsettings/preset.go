package childsettings

import (
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// Permissions is the capability sheet a parent grants a child.
type Permissions struct {
	CanPostImages    bool                  `json:"can_post_images"`
	CanInviteFriends bool                  `json:"can_invite_friends"`
	CanJoinNewCliqs  bool                  `json:"can_join_new_cliqs"`
	CanCreateCliqs   bool                  `json:"can_create_cliqs"`
	CanUploadVideos  bool                  `json:"can_upload_videos"`
	CanSendMessages  bool                  `json:"can_send_messages"`
	CanShareYoutube  bool                  `json:"can_share_youtube"`
	CanAccessGames   bool                  `json:"can_access_games"`
	IsMonitored      bool                  `json:"is_monitored"`
	SilentMonitoring bool                  `json:"silent_monitoring"`
	VisibilityLevel  enums.VisibilityLevel `json:"visibility_level"`
}

// RegularPreset is the default grant for a parent-initiated child.
func RegularPreset() Permissions {
	return Permissions{
		CanPostImages:   true,
		CanSendMessages: true,
		CanShareYoutube: true,
		CanAccessGames:  true,
		IsMonitored:     true,
		VisibilityLevel: enums.VisibilityLevelCliqsOnly,
	}
}

// InvitedChildPreset is the restricted grant for a child arriving through
// another member's invite.
func InvitedChildPreset() Permissions {
	p := RegularPreset()
	p.CanInviteFriends = false
	p.CanJoinNewCliqs = false
	p.CanCreateCliqs = false
	p.CanUploadVideos = false
	p.VisibilityLevel = enums.VisibilityLevelPrivate
	return p
}

// ResolvePreset merges the parent's requested grant with the applicable
// preset. For invited children the social-reach capabilities are forced off
// at creation no matter what was requested; the parent can loosen them later
// through the update path.
func ResolvePreset(viaInvite bool, requested Permissions) Permissions {
	resolved := requested
	if !resolved.VisibilityLevel.IsValid() {
		if viaInvite {
			resolved.VisibilityLevel = enums.VisibilityLevelPrivate
		} else {
			resolved.VisibilityLevel = enums.VisibilityLevelCliqsOnly
		}
	}
	if viaInvite {
		resolved.CanInviteFriends = false
		resolved.CanJoinNewCliqs = false
		resolved.CanCreateCliqs = false
		resolved.CanUploadVideos = false
	}
	return resolved
}

// PermissionsPatch is a partial capability-sheet update. Nil fields keep the
// stored value, so a parent can flip one flag without restating the rest.
type PermissionsPatch struct {
	CanPostImages    *bool                  `json:"can_post_images,omitempty"`
	CanInviteFriends *bool                  `json:"can_invite_friends,omitempty"`
	CanJoinNewCliqs  *bool                  `json:"can_join_new_cliqs,omitempty"`
	CanCreateCliqs   *bool                  `json:"can_create_cliqs,omitempty"`
	CanUploadVideos  *bool                  `json:"can_upload_videos,omitempty"`
	CanSendMessages  *bool                  `json:"can_send_messages,omitempty"`
	CanShareYoutube  *bool                  `json:"can_share_youtube,omitempty"`
	CanAccessGames   *bool                  `json:"can_access_games,omitempty"`
	IsMonitored      *bool                  `json:"is_monitored,omitempty"`
	SilentMonitoring *bool                  `json:"silent_monitoring,omitempty"`
	VisibilityLevel  *enums.VisibilityLevel `json:"visibility_level,omitempty"`
}

// Apply overlays the patch onto the stored sheet.
func (p PermissionsPatch) Apply(base Permissions) Permissions {
	if p.CanPostImages != nil {
		base.CanPostImages = *p.CanPostImages
	}
	if p.CanInviteFriends != nil {
		base.CanInviteFriends = *p.CanInviteFriends
	}
	if p.CanJoinNewCliqs != nil {
		base.CanJoinNewCliqs = *p.CanJoinNewCliqs
	}
	if p.CanCreateCliqs != nil {
		base.CanCreateCliqs = *p.CanCreateCliqs
	}
	if p.CanUploadVideos != nil {
		base.CanUploadVideos = *p.CanUploadVideos
	}
	if p.CanSendMessages != nil {
		base.CanSendMessages = *p.CanSendMessages
	}
	if p.CanShareYoutube != nil {
		base.CanShareYoutube = *p.CanShareYoutube
	}
	if p.CanAccessGames != nil {
		base.CanAccessGames = *p.CanAccessGames
	}
	if p.IsMonitored != nil {
		base.IsMonitored = *p.IsMonitored
	}
	if p.SilentMonitoring != nil {
		base.SilentMonitoring = *p.SilentMonitoring
	}
	if p.VisibilityLevel != nil {
		base.VisibilityLevel = *p.VisibilityLevel
	}
	return base
}
