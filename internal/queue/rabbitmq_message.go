package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is a decoded session event together with the delivery it came in
type Message struct {
	Event    *Event
	delivery amqp.Delivery
}

func (m *Message) Ack() error {
	return m.delivery.Ack(false)
}

// Nack rejects the delivery; without requeue it goes to the dead letter queue
func (m *Message) Nack(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}

func (m *Message) GetEvent() *Event {
	return m.Event
}

// Redelivered reports whether the broker delivered this message before
func (m *Message) Redelivered() bool {
	return m.delivery.Redelivered
}
