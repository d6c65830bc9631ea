package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the social identity shown to other members. Username is stored
// lowercase; the unique index is what actually closes the check/insert race.
type Profile struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Username       string     `gorm:"column:username;type:text;not null;uniqueIndex"`
	FirstName      string     `gorm:"column:first_name;not null"`
	LastName       string     `gorm:"column:last_name;not null"`
	About          *string    `gorm:"column:about"`
	ImageURL       *string    `gorm:"column:image_url"`
	BannerImageURL *string    `gorm:"column:banner_image_url"`
	Birthday       *time.Time `gorm:"column:birthday;type:date"`
	ShowYear       bool       `gorm:"column:show_year;not null;default:false"`
	ShowMonthDay   bool       `gorm:"column:show_month_day;not null;default:false"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
