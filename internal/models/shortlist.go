package models

import "time"

// Shortlist marks one profile as saved by another user. Toggling removes the
// row again, so the pair is the natural primary key.
type Shortlist struct {
	UserID            string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	ShortlistedUserID string    `gorm:"type:uuid;primaryKey" json:"shortlisted_user_id"`
	CreatedAt         time.Time `json:"created_at"`

	User            *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ShortlistedUser *User `gorm:"foreignKey:ShortlistedUserID;constraint:OnDelete:CASCADE" json:"-"`
}
