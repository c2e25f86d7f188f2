package models

// Admin is a back-office operator account. Admins receive audit broadcasts on
// a dedicated websocket namespace.
type Admin struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Phone    string `gorm:"uniqueIndex;not null" json:"phone"`
	Password string `gorm:"not null" json:"-"`
}
