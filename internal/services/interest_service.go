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

// InterestService manages interests between profiles and the notifications
// their transitions produce.
type InterestService struct {
	db       *gorm.DB
	notifier *NotificationService
	audit    *AuditService
}

// NewInterestService constructs an InterestService.
func NewInterestService(db *gorm.DB, notifier *NotificationService, audit *AuditService) (*InterestService, error) {
	if db == nil {
		return nil, errors.New("interest service: db is required")
	}
	if notifier == nil {
		return nil, errors.New("interest service: notification service is required")
	}
	return &InterestService{db: db, notifier: notifier, audit: audit}, nil
}

// Send creates a pending interest from sender to receiver. Re-sending to the
// same profile is rejected while an interest already exists.
func (s *InterestService) Send(ctx context.Context, senderID, receiverID string) (*models.Interest, error) {
	ctx = ensureContext(ctx)

	senderID = trimmed(senderID)
	receiverID = trimmed(receiverID)
	if senderID == "" || receiverID == "" {
		return nil, apperrors.NewBadRequest("sender and receiver are required")
	}
	if senderID == receiverID {
		return nil, apperrors.NewBadRequest("cannot send interest to yourself")
	}

	var sender models.User
	if err := s.db.WithContext(ctx).Where("id = ?", senderID).First(&sender).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("interest service: load sender: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Interest{}).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("interest service: check existing: %w", err)
	}
	if count > 0 {
		return nil, apperrors.NewBadRequest("interest already sent to this profile")
	}

	interest := models.Interest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.InterestPending,
	}
	if err := s.db.WithContext(ctx).Create(&interest).Error; err != nil {
		return nil, fmt.Errorf("interest service: create interest: %w", err)
	}

	if err := s.notifier.InterestReceived(ctx, &interest, sender.Name); err != nil {
		return nil, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, AuditEntry{
			Action:    realtime.EventInterestSent,
			ActorID:   sender.ID,
			ActorName: sender.Name,
			Metadata:  map[string]any{"receiver_id": receiverID},
		}); err != nil {
			return nil, err
		}
	}
	return &interest, nil
}

// UpdateStatus moves an interest to accepted or declined. Only the receiver
// may respond, and the accepted notification fires only on the transition
// into accepted.
func (s *InterestService) UpdateStatus(ctx context.Context, interestID, responderID, status string) (*models.Interest, error) {
	ctx = ensureContext(ctx)

	if status != models.InterestAccepted && status != models.InterestDeclined {
		return nil, apperrors.NewBadRequest("status must be accepted or declined")
	}

	var interest models.Interest
	if err := s.db.WithContext(ctx).Where("id = ?", trimmed(interestID)).First(&interest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("interest service: load interest: %w", err)
	}
	if interest.ReceiverID != responderID {
		return nil, apperrors.ErrForbidden
	}

	becameAccepted := status == models.InterestAccepted && interest.Status != models.InterestAccepted

	interest.Status = status
	if err := s.db.WithContext(ctx).Model(&interest).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("interest service: update status: %w", err)
	}

	if becameAccepted {
		var receiver models.User
		if err := s.db.WithContext(ctx).Where("id = ?", interest.ReceiverID).First(&receiver).Error; err != nil {
			return nil, fmt.Errorf("interest service: load receiver: %w", err)
		}
		if err := s.notifier.InterestAccepted(ctx, &interest, receiver.Name); err != nil {
			return nil, err
		}
		if s.audit != nil {
			if err := s.audit.Record(ctx, AuditEntry{
				Action:    realtime.EventInterestAccepted,
				ActorID:   receiver.ID,
				ActorName: receiver.Name,
				Metadata:  map[string]any{"sender_id": interest.SenderID},
			}); err != nil {
				return nil, err
			}
		}
	}
	return &interest, nil
}

// Sent lists interests the user has sent, newest first.
func (s *InterestService) Sent(ctx context.Context, userID string) ([]models.Interest, error) {
	ctx = ensureContext(ctx)

	var interests []models.Interest
	if err := s.db.WithContext(ctx).
		Where("sender_id = ?", trimmed(userID)).
		Order("created_at DESC").
		Find(&interests).Error; err != nil {
		return nil, fmt.Errorf("interest service: list sent: %w", err)
	}
	return interests, nil
}

// Received lists interests sent to the user, newest first.
func (s *InterestService) Received(ctx context.Context, userID string) ([]models.Interest, error) {
	ctx = ensureContext(ctx)

	var interests []models.Interest
	if err := s.db.WithContext(ctx).
		Where("receiver_id = ?", trimmed(userID)).
		Order("created_at DESC").
		Find(&interests).Error; err != nil {
		return nil, fmt.Errorf("interest service: list received: %w", err)
	}
	return interests, nil
}
