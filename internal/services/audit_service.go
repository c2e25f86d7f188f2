package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/realtime"
)

// AuditEntry captures a single admin-relevant action.
type AuditEntry struct {
	Action    string
	ActorID   string
	ActorName string
	Metadata  map[string]any
}

// AuditService persists audit entries and mirrors them onto the admin
// websocket namespace. The persisted row is the durable record; the broadcast
// is best effort.
type AuditService struct {
	db         *gorm.DB
	dispatcher *realtime.Dispatcher
}

// NewAuditService constructs an AuditService.
func NewAuditService(db *gorm.DB, dispatcher *realtime.Dispatcher) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, dispatcher: dispatcher}, nil
}

// Record stores the entry and broadcasts it to connected admins.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if trimmed(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}

	row := models.AuditLog{
		ActorName: trimmed(entry.ActorName),
		Action:    trimmed(entry.Action),
	}
	if id := trimmed(entry.ActorID); id != "" {
		row.ActorID = &id
	}
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(encoded)
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("audit service: create entry: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.BroadcastToAdmins(realtime.AdminEvent(row.Action, entry.ActorID, row.ActorName, entry.Metadata))
	}
	return nil
}

// List returns the most recent audit entries, newest first.
func (s *AuditService) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []models.AuditLog
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit service: list entries: %w", err)
	}
	return rows, nil
}

// CleanupOlderThan removes audit entries older than the retention window in days.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
