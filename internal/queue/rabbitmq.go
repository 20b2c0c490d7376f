package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchangeName is the topic exchange session events are published to
	DefaultExchangeName = "loginflow_session_events"
	// DefaultQueueName is the queue the activity worker consumes
	DefaultQueueName = "loginflow_session_activity"
	// DefaultDLQName is the dead letter queue for unprocessable events
	DefaultDLQName = "loginflow_session_activity_dlq"
	// DefaultDLXName is the exchange dead letters are routed through
	DefaultDLXName = "loginflow_session_events_dlx"

	sessionBindingKey = "session.*"
	dlqRoutingKey     = "dlq"
	consumerTag       = "loginflow-activity"
)

// RabbitMQQueue implements EventQueue using RabbitMQ
type RabbitMQQueue struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	publishMu    sync.Mutex
	queueName    string
	dlqName      string
	exchangeName string
	dlxName      string
}

// NewRabbitMQQueue connects to RabbitMQ and declares the session topology
func NewRabbitMQQueue(amqpURL string) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	queue := &RabbitMQQueue{
		conn:         conn,
		channel:      ch,
		queueName:    DefaultQueueName,
		dlqName:      DefaultDLQName,
		exchangeName: DefaultExchangeName,
		dlxName:      DefaultDLXName,
	}

	if err := queue.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup queues: %w", err)
	}

	return queue, nil
}

type queueBinding struct {
	queue    string
	key      string
	exchange string
	args     amqp.Table
}

// setup declares the session topic exchange, the activity queue bound to it
// and the dead letter path the activity queue rejects into. Every object is
// durable so events survive a broker restart.
func (q *RabbitMQQueue) setup() error {
	exchanges := []struct{ name, kind string }{
		{q.exchangeName, amqp.ExchangeTopic},
		{q.dlxName, amqp.ExchangeDirect},
	}
	for _, ex := range exchanges {
		if err := q.channel.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", ex.name, err)
		}
	}

	bindings := []queueBinding{
		{queue: q.dlqName, key: dlqRoutingKey, exchange: q.dlxName},
		{
			queue:    q.queueName,
			key:      sessionBindingKey,
			exchange: q.exchangeName,
			args: amqp.Table{
				"x-dead-letter-exchange":    q.dlxName,
				"x-dead-letter-routing-key": dlqRoutingKey,
			},
		},
	}
	for _, b := range bindings {
		if _, err := q.channel.QueueDeclare(b.queue, true, false, false, false, b.args); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		if err := q.channel.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}

// Publish sends an event to the session exchange
func (q *RabbitMQQueue) Publish(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		AppId:        "loginflow",
	}

	q.publishMu.Lock()
	defer q.publishMu.Unlock()

	err = q.channel.PublishWithContext(
		ctx,
		q.exchangeName,
		event.RoutingKey(),
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Consume returns a channel of messages from the activity queue
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	if prefetchCount <= 0 {
		prefetchCount = 1
	}

	// Separate channel for consuming
	consumeCh, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.queueName,
		consumerTag+"-"+uuid.NewString()[:8],
		false, // manual ack
		false, false, false, nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() {
			_ = consumeCh.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errChan <- fmt.Errorf("delivery channel closed")
					return
				}

				var event Event
				if err := json.Unmarshal(delivery.Body, &event); err != nil || !event.Type.IsValid() {
					// Unprocessable, dead-letter it
					_ = delivery.Nack(false, false)
					if err == nil {
						err = fmt.Errorf("unknown event type %q", event.Type)
					}
					select {
					case errChan <- fmt.Errorf("failed to decode event: %w", err):
					default:
					}
					continue
				}

				msg := &Message{Event: &event, delivery: delivery}

				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// HealthCheck verifies the connection and channel are open
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if q.conn == nil || q.conn.IsClosed() {
		return fmt.Errorf("RabbitMQ connection is closed")
	}
	if q.channel == nil || q.channel.IsClosed() {
		return fmt.Errorf("RabbitMQ channel is closed")
	}
	return nil
}

// Close closes the queue connection
func (q *RabbitMQQueue) Close() error {
	var err error
	if q.channel != nil {
		err = q.channel.Close()
	}
	if q.conn != nil {
		if closeErr := q.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
