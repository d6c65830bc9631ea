package profiles

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliqstr/cliqstr-backend/pkg/db/models"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
)

// ProfileDTO is the transport shape for member-facing profile reads.
type ProfileDTO struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"user_id"`
	Username        string                `json:"username"`
	FirstName       string                `json:"first_name"`
	LastName        string                `json:"last_name"`
	About           *string               `json:"about,omitempty"`
	ImageURL        *string               `json:"image_url,omitempty"`
	BannerImageURL  *string               `json:"banner_image_url,omitempty"`
	DisplayBirthday string                `json:"display_birthday,omitempty"`
	AgeGroup        enums.AgeGroup        `json:"age_group"`
	ModerationLevel enums.ModerationLevel `json:"moderation_level"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// CreateProfileDTO holds the data required to persist a new profile.
type CreateProfileDTO struct {
	UserID    uuid.UUID
	Username  string
	FirstName string
	LastName  string
	About     *string
}

func (c CreateProfileDTO) ToModel() *models.Profile {
	return &models.Profile{
		ID:        uuid.New(),
		UserID:    c.UserID,
		Username:  NormalizeUsername(c.Username),
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		About:     c.About,
	}
}

// NormalizeUsername lowercases and trims a username. The DB stores the
// normalized form and the unique index operates on it.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// FromModel maps a profile row into the transport shape. The age group comes
// from the account birthdate, never the profile's social birthday.
func FromModel(p *models.Profile, birthdate time.Time, now time.Time) *ProfileDTO {
	if p == nil {
		return nil
	}

	ageGroup := enums.AgeGroupFor(birthdate, now)
	return &ProfileDTO{
		ID:              p.ID,
		UserID:          p.UserID,
		Username:        p.Username,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		About:           p.About,
		ImageURL:        p.ImageURL,
		BannerImageURL:  p.BannerImageURL,
		AgeGroup:        ageGroup,
		ModerationLevel: ageGroup.ModerationLevel(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
