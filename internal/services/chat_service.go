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

// ChatService persists direct messages and pushes them to live receivers.
type ChatService struct {
	db         *gorm.DB
	dispatcher *realtime.Dispatcher
}

// NewChatService constructs a ChatService.
func NewChatService(db *gorm.DB, dispatcher *realtime.Dispatcher) (*ChatService, error) {
	if db == nil {
		return nil, errors.New("chat service: db is required")
	}
	return &ChatService{db: db, dispatcher: dispatcher}, nil
}

// Send stores a message and delivers it to the receiver's live connections.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID, text, attachment string) (*models.ChatMessage, error) {
	ctx = ensureContext(ctx)

	senderID = trimmed(senderID)
	receiverID = trimmed(receiverID)
	if senderID == "" || receiverID == "" {
		return nil, apperrors.NewBadRequest("sender and receiver are required")
	}
	if senderID == receiverID {
		return nil, apperrors.NewBadRequest("cannot message yourself")
	}
	if trimmed(text) == "" && trimmed(attachment) == "" {
		return nil, apperrors.NewBadRequest("message text or attachment is required")
	}

	message := models.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Attachment: attachment,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("chat service: create message: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.SendToUser(receiverID, realtime.MessageEvent(message))
	}
	return &message, nil
}

// Conversation returns the messages between two users, oldest first.
func (s *ChatService) Conversation(ctx context.Context, userID, otherID string) ([]models.ChatMessage, error) {
	ctx = ensureContext(ctx)

	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("chat service: load conversation: %w", err)
	}
	return messages, nil
}

// MarkConversationRead marks every message from otherID to userID as read.
func (s *ChatService) MarkConversationRead(ctx context.Context, userID, otherID string) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherID, userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("chat service: mark read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UnreadCount returns the number of unread messages addressed to the user.
func (s *ChatService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("receiver_id = ? AND is_read = ?", trimmed(userID), false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("chat service: count unread: %w", err)
	}
	return count, nil
}
