package models

// ChatMessage is a direct message between two users. Rows are also created by
// the interest-accepted greeting rule.
type ChatMessage struct {
	BaseModel

	SenderID   string `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID string `gorm:"type:uuid;index;not null" json:"receiver_id"`
	Text       string `gorm:"type:text" json:"text"`
	Attachment string `gorm:"type:text" json:"attachment,omitempty"`
	IsRead     bool   `gorm:"default:false;index" json:"is_read"`

	Sender   *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver *User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
}
