package queue

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of session event
type EventType string

const (
	// EventTypeSignedIn is published after a successful sign-in
	EventTypeSignedIn EventType = "signed_in"
	// EventTypeSignedOut is published after a sign-out
	EventTypeSignedOut EventType = "signed_out"
	// EventTypeProfileSaved is published after a profile was stored
	EventTypeProfileSaved EventType = "profile_saved"
)

// IsValid reports whether t is a known event type
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeSignedIn, EventTypeSignedOut, EventTypeProfileSaved:
		return true
	default:
		return false
	}
}

// Event represents a session event on the bus
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	UserID     string         `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType, userID string, occurredAt time.Time) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
		Metadata:   make(map[string]any),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// CanRetry checks if the event can be retried
func (e *Event) CanRetry() bool {
	return e.RetryCount < e.MaxRetries
}

// IncrementRetry increments the retry count
func (e *Event) IncrementRetry() {
	e.RetryCount++
}

// RoutingKey is the routing key the event is published under
func (e *Event) RoutingKey() string {
	return "session." + string(e.Type)
}
