package queue

import (
	"context"
)

// MessageInterface defines the interface for queue messages
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetEvent() *Event
	Redelivered() bool
}

// Publisher publishes session events
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// EventQueue is the interface for the session event bus
type EventQueue interface {
	Publisher

	// Consume returns a channel of messages from the queue.
	// The caller is responsible for acknowledging each message.
	// Prefetch controls how many unacknowledged messages the consumer can hold.
	// The message channel is closed when the context is cancelled or an error occurs.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}

// NoopPublisher discards events. It is used when no broker is configured.
type NoopPublisher struct{}

// Publish implements Publisher
func (NoopPublisher) Publish(ctx context.Context, event *Event) error {
	return nil
}

var (
	_ Publisher        = NoopPublisher{}
	_ EventQueue       = (*RabbitMQQueue)(nil)
	_ MessageInterface = (*Message)(nil)
)
