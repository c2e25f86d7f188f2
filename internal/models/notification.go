package models

// Notification types created by the notification generator.
const (
	NotificationProfileView       = "profile_view"
	NotificationInterestReceived  = "interest_received"
	NotificationInterestAccepted  = "interest_accepted"
	NotificationProfileVerified   = "profile_verified"
	NotificationPremiumMembership = "premium_membership"
	NotificationSystem            = "system"
)

// Notification represents a persisted in-app notification. Durability comes
// from this row; the websocket push is best effort only.
type Notification struct {
	BaseModel

	UserID  string `gorm:"type:uuid;index;not null" json:"user_id"`
	Type    string `gorm:"type:varchar(64);not null;index" json:"type"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	// RelatedUserID points at the counterpart of the event, e.g. the viewer
	// of a profile or the sender of an interest.
	RelatedUserID *string `gorm:"type:uuid;index" json:"related_user_id,omitempty"`

	IsRead bool `gorm:"default:false;index" json:"is_read"`
}
