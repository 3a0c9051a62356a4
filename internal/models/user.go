package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account of the intake portal: a client filing their own cases
// or a staff member assisting in person.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:255" json:"name,omitempty"`
	Password  string         `gorm:"size:255;not null" json:"-"` // bcrypt hash
	// Lang is the preferred interface language, used when no other hint exists.
	Lang string `gorm:"size:5;default:'fr'" json:"lang"`
	// ProfileID links the user to an authorization profile.
	// A nil value means the user has no profile assigned and can do nothing.
	ProfileID *uint    `gorm:"index" json:"profile_id,omitempty"`
	Profile   *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}

// ProfileName returns the name of the loaded profile, or "".
func (u *User) ProfileName() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Name
}
