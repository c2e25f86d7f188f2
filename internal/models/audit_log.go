package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is the durable mirror of an admin broadcast: who did what, when.
type AuditLog struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID   *string        `gorm:"type:uuid;index" json:"actor_id"`
	ActorName string         `json:"actor_name"`
	Action    string         `gorm:"not null;index" json:"action"`
	Metadata  datatypes.JSON `json:"metadata"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
