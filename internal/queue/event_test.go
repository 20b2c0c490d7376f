package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("TRT", 3*60*60))
	event := NewEvent(EventTypeSignedIn, "uid-1", at)

	if event.ID == uuid.Nil {
		t.Error("Expected event ID to be set")
	}
	if event.Type != EventTypeSignedIn {
		t.Errorf("Expected type %s, got %s", EventTypeSignedIn, event.Type)
	}
	if event.UserID != "uid-1" {
		t.Errorf("Expected user ID 'uid-1', got '%s'", event.UserID)
	}
	if event.OccurredAt.Location() != time.UTC || !event.OccurredAt.Equal(at) {
		t.Errorf("Expected UTC occurrence time equal to %v, got %v", at, event.OccurredAt)
	}
	if event.Metadata == nil {
		t.Error("Expected metadata to be initialized")
	}
	if event.MaxRetries != 3 {
		t.Errorf("Expected max retries 3, got %d", event.MaxRetries)
	}
	if event.RoutingKey() != "session.signed_in" {
		t.Errorf("Expected routing key 'session.signed_in', got '%s'", event.RoutingKey())
	}
}

func TestEvent_CanRetry(t *testing.T) {
	t.Parallel()

	event := NewEvent(EventTypeProfileSaved, "uid-1", time.Now())
	for i := 0; i < event.MaxRetries; i++ {
		if !event.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i)
		}
		event.IncrementRetry()
	}
	if event.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}
}

func TestEventType_IsValid(t *testing.T) {
	t.Parallel()

	for _, et := range []EventType{EventTypeSignedIn, EventTypeSignedOut, EventTypeProfileSaved} {
		if !et.IsValid() {
			t.Errorf("Expected %s to be valid", et)
		}
	}
	if EventType("deleted").IsValid() {
		t.Error("Expected unknown type to be invalid")
	}
}

func TestNoopPublisher(t *testing.T) {
	t.Parallel()

	if err := (NoopPublisher{}).Publish(context.Background(), NewEvent(EventTypeSignedOut, "uid-1", time.Now())); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}
