package models

// Interest status values.
const (
	InterestPending  = "pending"
	InterestAccepted = "accepted"
	InterestDeclined = "declined"
)

// Interest records one user expressing interest in another.
type Interest struct {
	BaseModel

	SenderID   string `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID string `gorm:"type:uuid;index;not null" json:"receiver_id"`
	Status     string `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`

	Sender   *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver *User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
}
