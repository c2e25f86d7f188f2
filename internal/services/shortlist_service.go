package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/realtime"
	apperrors "github.com/sangamlabs/sangam/pkg/errors"
)

// ShortlistService manages the per-user shortlist toggle.
type ShortlistService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewShortlistService constructs a ShortlistService.
func NewShortlistService(db *gorm.DB, audit *AuditService) (*ShortlistService, error) {
	if db == nil {
		return nil, errors.New("shortlist service: db is required")
	}
	return &ShortlistService{db: db, audit: audit}, nil
}

// Toggle adds the target profile to the user's shortlist, or removes it when
// already present. Returns true when the profile ends up shortlisted.
func (s *ShortlistService) Toggle(ctx context.Context, userID, targetID string) (bool, error) {
	ctx = ensureContext(ctx)

	userID = trimmed(userID)
	targetID = trimmed(targetID)
	if userID == "" || targetID == "" {
		return false, apperrors.NewBadRequest("user and target are required")
	}
	if userID == targetID {
		return false, apperrors.NewBadRequest("cannot shortlist yourself")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrNotFound
		}
		return false, fmt.Errorf("shortlist service: load user: %w", err)
	}

	shortlisted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Shortlist
		err := tx.Where("user_id = ? AND shortlisted_user_id = ?", userID, targetID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("shortlist service: remove entry: %w", err)
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := models.Shortlist{UserID: userID, ShortlistedUserID: targetID}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("shortlist service: create entry: %w", err)
			}
			shortlisted = true
			return nil
		default:
			return fmt.Errorf("shortlist service: load entry: %w", err)
		}
	})
	if err != nil {
		return false, err
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, AuditEntry{
			Action:    realtime.EventShortlistToggled,
			ActorID:   user.ID,
			ActorName: user.Name,
			Metadata:  map[string]any{"target_id": targetID, "shortlisted": shortlisted},
		}); err != nil {
			return shortlisted, err
		}
	}
	return shortlisted, nil
}

// List returns the profiles the user has shortlisted, newest first.
func (s *ShortlistService) List(ctx context.Context, userID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN shortlists ON shortlists.shortlisted_user_id = users.id").
		Where("shortlists.user_id = ?", trimmed(userID)).
		Order("shortlists.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("shortlist service: list entries: %w", err)
	}
	return users, nil
}
