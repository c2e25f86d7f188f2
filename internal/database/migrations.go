package database

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Interest{},
		&models.Shortlist{},
		&models.ChatMessage{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// At most one unread profile_view notification per (owner, viewer) pair,
	// enforced even under concurrent viewers. MySQL has no partial indexes;
	// there the dedup relies on the check-then-insert inside the notification
	// transaction alone.
	if db.Dialector.Name() != "mysql" {
		if err := db.Exec(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_unread_profile_view " +
				"ON notifications (user_id, related_user_id) " +
				"WHERE is_read = false AND type = 'profile_view'",
		).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedData inserts a default admin account when none exists yet. The
// password must be rotated after first login.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.Admin{
		Name:     "Administrator",
		Phone:    "0000000000",
		Password: string(hash),
	}
	return db.Create(&admin).Error
}
