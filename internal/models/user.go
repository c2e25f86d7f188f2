package models

import (
	"time"

	"gorm.io/datatypes"
)

// User describes a matrimonial profile together with its premium
// subscription state.
type User struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Phone    string `gorm:"uniqueIndex;not null" json:"phone"`
	Email    string `json:"email"`
	Password string `gorm:"not null" json:"-"`

	Age           int     `gorm:"not null" json:"age"`
	Height        float64 `gorm:"not null" json:"height"`
	Gender        string  `gorm:"not null" json:"gender"`
	MaritalStatus string  `gorm:"not null" json:"marital_status"`
	Religion      string  `gorm:"not null" json:"religion"`
	Caste         string  `gorm:"not null" json:"caste"`
	SubCaste      string  `json:"sub_caste"`
	MotherTongue  string  `json:"mother_tongue"`

	Education  string `json:"education"`
	Occupation string `json:"occupation"`
	Company    string `json:"company"`
	Income     string `json:"income"`
	Location   string `json:"location"`
	Hometown   string `json:"hometown"`
	WorkMode   string `json:"work_mode"`

	FatherName       string `json:"father_name"`
	FatherOccupation string `json:"father_occupation"`
	MotherName       string `json:"mother_name"`
	MotherOccupation string `json:"mother_occupation"`
	Siblings         int    `gorm:"default:0" json:"siblings"`

	Photos             datatypes.JSONSlice[string] `json:"photos"`
	Bio                string                      `gorm:"type:text" json:"bio"`
	PartnerPreferences string                      `gorm:"type:text" json:"partner_preferences"`

	HoroscopeImageURL string `gorm:"type:text" json:"horoscope_image_url"`
	Rashi             string `json:"rashi"`
	Nakshatra         string `json:"nakshatra"`
	BirthTime         string `json:"birth_time"`
	BirthPlace        string `json:"birth_place"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`
	ViewCount  int  `gorm:"default:0" json:"view_count"`

	IsPremium           bool       `gorm:"default:false;index" json:"is_premium"`
	PremiumExpiryDate   *time.Time `json:"premium_expiry_date"`
	LastPremiumReminder *string    `gorm:"type:varchar(16)" json:"last_premium_reminder"`
}
