package realtime

import "time"

// Event types pushed to user connections.
const (
	EventNewNotification = "new_notification"
	EventNewMessage      = "new_message"
	EventProfileUpdated  = "profile_updated"
	EventTypingStarted   = "typing_started"
	EventTypingStopped   = "typing_stopped"
)

// Admin audit event types.
const (
	EventUserRegistered   = "user_registered"
	EventPaymentCompleted = "payment_completed"
	EventProfileDeleted   = "profile_deleted"
	EventInterestSent     = "interest_sent"
	EventInterestAccepted = "interest_accepted"
	EventShortlistToggled = "shortlist_toggled"
)

// Event is the JSON payload delivered over a live connection. Only fields
// relevant to the event type are populated.
type Event struct {
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SenderID  string `json:"sender_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	ActorName string `json:"actor_name,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NotificationEvent announces a freshly persisted notification.
func NotificationEvent(title string) Event {
	return Event{Type: EventNewNotification, Title: title}
}

// MessageEvent carries a chat message to the receiving user.
func MessageEvent(data any) Event {
	return Event{Type: EventNewMessage, Data: data}
}

// ProfileUpdatedEvent tells a client to refetch its own profile.
func ProfileUpdatedEvent(userID string) Event {
	return Event{Type: EventProfileUpdated, UserID: userID}
}

// TypingEvent relays a typing indicator from sender to receiver.
func TypingEvent(started bool, senderID string) Event {
	eventType := EventTypingStopped
	if started {
		eventType = EventTypingStarted
	}
	return Event{Type: eventType, SenderID: senderID}
}

// AdminEvent builds an audit payload for the admin namespace.
func AdminEvent(action, actorID, actorName string, data any) Event {
	return Event{
		Type:      action,
		ActorID:   actorID,
		ActorName: actorName,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
