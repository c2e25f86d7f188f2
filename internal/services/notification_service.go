package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/realtime"
	apperrors "github.com/sangamlabs/sangam/pkg/errors"
	"github.com/sangamlabs/sangam/pkg/metrics"
)

// NotificationService maps domain actions onto persisted notification rows
// and best-effort live pushes. Every created row triggers exactly one
// SendToUser call to the owning user.
type NotificationService struct {
	db         *gorm.DB
	dispatcher *realtime.Dispatcher
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, dispatcher *realtime.Dispatcher) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, dispatcher: dispatcher}, nil
}

// createInput describes a notification row to persist.
type createInput struct {
	UserID        string
	Type          string
	Title         string
	Message       string
	RelatedUserID string
}

// create persists the row. Live delivery happens separately via Announce so
// that a push never precedes the commit of the row it describes.
func (s *NotificationService) create(ctx context.Context, tx *gorm.DB, input createInput) (*models.Notification, error) {
	if tx == nil {
		tx = s.db
	}

	row := models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
	}
	if related := trimmed(input.RelatedUserID); related != "" {
		row.RelatedUserID = &related
	}

	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	metrics.NotificationsCreated.WithLabelValues(row.Type).Inc()
	return &row, nil
}

// Announce pushes the live event for a committed notification row.
func (s *NotificationService) Announce(row *models.Notification) {
	if row == nil {
		return
	}
	s.dispatch(row.UserID, realtime.NotificationEvent(row.Title))
}

// AnnounceProfileUpdate tells the user's clients to refetch the profile.
func (s *NotificationService) AnnounceProfileUpdate(userID string) {
	s.dispatch(userID, realtime.ProfileUpdatedEvent(userID))
}

func (s *NotificationService) dispatch(userID string, event realtime.Event) {
	if s.dispatcher != nil {
		s.dispatcher.SendToUser(userID, event)
	}
}

// findUnread returns the unread notification matching the dedup triple, or
// nil when none exists.
func (s *NotificationService) findUnread(ctx context.Context, tx *gorm.DB, userID, notificationType, relatedUserID string) (*models.Notification, error) {
	if tx == nil {
		tx = s.db
	}
	query := tx.WithContext(ctx).
		Where("user_id = ? AND type = ? AND is_read = ?", userID, notificationType, false)
	if relatedUserID != "" {
		query = query.Where("related_user_id = ?", relatedUserID)
	}

	var row models.Notification
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("notification service: find unread: %w", err)
	}
	return &row, nil
}

// ProfileViewed records a profile view: bumps the owner's view counter and
// creates at most one unread profile_view notification per viewer.
func (s *NotificationService) ProfileViewed(ctx context.Context, ownerID, viewerID, viewerName string) error {
	ctx = ensureContext(ctx)

	ownerID = trimmed(ownerID)
	viewerID = trimmed(viewerID)
	if ownerID == "" || viewerID == "" || ownerID == viewerID {
		return nil
	}

	var created *models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", ownerID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			return fmt.Errorf("notification service: bump view count: %w", err)
		}

		existing, err := s.findUnread(ctx, tx, ownerID, models.NotificationProfileView, viewerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		// ON CONFLICT DO NOTHING pairs with the partial unique index on the
		// unread triple: a concurrent view that wins the race leaves this
		// insert a no-op instead of aborting the transaction.
		row := models.Notification{
			UserID:        ownerID,
			Type:          models.NotificationProfileView,
			Title:         "Profile Viewed",
			Message:       fmt.Sprintf("%s viewed your profile", viewerName),
			RelatedUserID: &viewerID,
		}
		result := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return fmt.Errorf("notification service: create notification: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		metrics.NotificationsCreated.WithLabelValues(row.Type).Inc()
		created = &row
		return nil
	})
	if err != nil {
		return err
	}
	s.Announce(created)
	return nil
}

// InterestReceived notifies the receiver of a new interest. Always creates.
func (s *NotificationService) InterestReceived(ctx context.Context, interest *models.Interest, senderName string) error {
	ctx = ensureContext(ctx)
	if interest == nil {
		return errors.New("notification service: interest is required")
	}

	row, err := s.create(ctx, nil, createInput{
		UserID:        interest.ReceiverID,
		Type:          models.NotificationInterestReceived,
		Title:         "New Interest",
		Message:       fmt.Sprintf("%s has shown interest in your profile", senderName),
		RelatedUserID: interest.SenderID,
	})
	if err != nil {
		return err
	}
	s.Announce(row)
	return nil
}

// InterestAccepted fires on the transition into accepted: it notifies the
// original sender and seeds the conversation with a greeting message for both
// parties.
func (s *NotificationService) InterestAccepted(ctx context.Context, interest *models.Interest, receiverName string) error {
	ctx = ensureContext(ctx)
	if interest == nil {
		return errors.New("notification service: interest is required")
	}

	var created *models.Notification
	greetings := []models.ChatMessage{
		{SenderID: interest.ReceiverID, ReceiverID: interest.SenderID, Text: "Hi! I accepted your interest. Nice to connect with you."},
		{SenderID: interest.SenderID, ReceiverID: interest.ReceiverID, Text: "Hello! Glad we matched. Looking forward to knowing you."},
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.create(ctx, tx, createInput{
			UserID:        interest.SenderID,
			Type:          models.NotificationInterestAccepted,
			Title:         "Interest Accepted",
			Message:       fmt.Sprintf("%s accepted your interest. Say hello!", receiverName),
			RelatedUserID: interest.ReceiverID,
		})
		if err != nil {
			return err
		}
		created = row

		for i := range greetings {
			if err := tx.Create(&greetings[i]).Error; err != nil {
				return fmt.Errorf("notification service: create greeting: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Announce(created)
	for i := range greetings {
		s.dispatch(greetings[i].ReceiverID, realtime.MessageEvent(greetings[i]))
	}
	return nil
}

// VerificationGranted fires on the false-to-true verification transition.
func (s *NotificationService) VerificationGranted(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	row, err := s.create(ctx, nil, createInput{
		UserID:  userID,
		Type:    models.NotificationProfileVerified,
		Title:   "Profile Verified",
		Message: "Congratulations! Your profile has been verified.",
	})
	if err != nil {
		return err
	}
	s.Announce(row)
	return nil
}

// VerificationRevoked removes previously issued verification notifications so
// a revoked badge leaves no stale congratulation behind.
func (s *NotificationService) VerificationRevoked(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, models.NotificationProfileVerified).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete verification notifications: %w", result.Error)
	}
	return nil
}

// PremiumActivated fires on the false-to-true premium transition. At most one
// unread premium notification exists at a time.
func (s *NotificationService) PremiumActivated(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	existing, err := s.findUnread(ctx, nil, userID, models.NotificationPremiumMembership, "")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	row, err := s.create(ctx, nil, createInput{
		UserID:  userID,
		Type:    models.NotificationPremiumMembership,
		Title:   "Premium Membership Activated",
		Message: "Welcome to premium! Enjoy unlimited contact views and priority support.",
	})
	if err != nil {
		return err
	}
	s.Announce(row)
	return nil
}

// ExpiryReminder persists one reminder notification for the supplied ladder
// token, e.g. "7d". Called by the premium expiry scheduler inside its
// per-user transaction; the scheduler announces the row after commit.
func (s *NotificationService) ExpiryReminder(ctx context.Context, tx *gorm.DB, userID, token string) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	return s.create(ctx, tx, createInput{
		UserID:  userID,
		Type:    models.NotificationSystem,
		Title:   "Premium Membership Expiring",
		Message: fmt.Sprintf("Your premium membership expires in %s. Renew now to keep your benefits.", reminderPhrase(token)),
	})
}

// MembershipExpired persists the terminal expiry notification. Same contract
// as ExpiryReminder: delivery is the caller's post-commit step.
func (s *NotificationService) MembershipExpired(ctx context.Context, tx *gorm.DB, userID string) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	return s.create(ctx, tx, createInput{
		UserID:  userID,
		Type:    models.NotificationSystem,
		Title:   "Membership Expired",
		Message: "Your premium membership has expired. Renew to regain premium benefits.",
	})
}

// ListForUser returns notifications for the supplied user ordered by recency.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	ctx = ensureContext(ctx)

	userID = trimmed(userID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}
	return rows, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	var row models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&row).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}
	row.IsRead = true
	return &row, nil
}

// MarkAllRead flags every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}
	return nil
}

func reminderPhrase(token string) string {
	switch token {
	case "1d":
		return "1 day"
	case "2d":
		return "2 days"
	case "3d":
		return "3 days"
	case "7d":
		return "7 days"
	case "14d":
		return "14 days"
	case "30d":
		return "30 days"
	default:
		return token
	}
}
