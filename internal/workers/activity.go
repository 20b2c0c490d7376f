package workers

import (
	"context"
	"fmt"

	"github.com/emrepbu/loginflow/internal/database"
	"github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/queue"
	"go.uber.org/zap"
)

// ActivityRecorder folds session events into the per-user activity record
type ActivityRecorder struct {
	activityRepo database.ActivityStore
	publisher    queue.Publisher // for re-publishing failed events
	logger       *zap.Logger
}

// NewActivityRecorder creates a new activity recorder
func NewActivityRecorder(activityRepo database.ActivityStore, publisher queue.Publisher, log *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		activityRepo: activityRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// RecordEvent applies a single event to the activity record
func (a *ActivityRecorder) RecordEvent(ctx context.Context, event *queue.Event) error {
	if event.UserID == "" {
		return fmt.Errorf("event %s has no user id", event.ID)
	}

	switch event.Type {
	case queue.EventTypeSignedIn:
		return a.activityRepo.RecordSignIn(ctx, event.UserID, event.ID, event.OccurredAt)
	case queue.EventTypeSignedOut:
		return a.activityRepo.RecordSignOut(ctx, event.UserID, event.ID, event.OccurredAt)
	case queue.EventTypeProfileSaved:
		return a.activityRepo.RecordProfileSaved(ctx, event.UserID, event.ID, event.OccurredAt)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

// ProcessMessage records the message's event and acknowledges it
func (a *ActivityRecorder) ProcessMessage(ctx context.Context, msg queue.MessageInterface) error {
	event := msg.GetEvent()

	if !event.Type.IsValid() || event.UserID == "" {
		if nackErr := msg.Nack(false); nackErr != nil { // send to DLQ
			a.logger.Warn("failed_to_nack_invalid_event", zap.Error(nackErr))
		}
		return fmt.Errorf("invalid event %s of type %q", event.ID, event.Type)
	}

	if err := a.RecordEvent(ctx, event); err != nil {
		return a.handleEventError(ctx, msg, event, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack event: %w", ackErr)
	}

	a.logger.Debug("session_event_recorded",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", logger.SanitizeUserID(event.UserID)),
		zap.Bool("redelivered", msg.Redelivered()),
	)
	return nil
}

// handleEventError re-publishes the event with an incremented retry count,
// or dead-letters it once retries are exhausted
func (a *ActivityRecorder) handleEventError(ctx context.Context, msg queue.MessageInterface, event *queue.Event, err error) error {
	if event.CanRetry() && a.publisher != nil {
		retry := *event
		retry.IncrementRetry()

		if pubErr := a.publisher.Publish(ctx, &retry); pubErr != nil {
			a.logger.Warn("failed_to_republish_event",
				zap.String("event_id", event.ID.String()),
				zap.Error(pubErr),
			)
			// Fall back to broker redelivery
			if nackErr := msg.Nack(true); nackErr != nil {
				a.logger.Warn("failed_to_nack_event", zap.Error(nackErr))
			}
			return fmt.Errorf("event failed, re-publish failed: %w", err)
		}

		if ackErr := msg.Ack(); ackErr != nil {
			a.logger.Warn("failed_to_ack_retried_event", zap.Error(ackErr))
		}
		a.logger.Warn("session_event_retry_scheduled",
			zap.String("event_id", event.ID.String()),
			zap.Int("attempt", retry.RetryCount),
			zap.Int("max_retries", retry.MaxRetries),
			zap.String("error", logger.SanitizeError(err)),
		)
		return fmt.Errorf("event failed (will retry): %w", err)
	}

	a.logger.Error("session_event_dead_lettered",
		zap.String("event_id", event.ID.String()),
		zap.Int("max_retries", event.MaxRetries),
		zap.String("error", logger.SanitizeError(err)),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		a.logger.Warn("failed_to_nack_event_to_dlq", zap.Error(nackErr))
	}
	return fmt.Errorf("event failed (max retries): %w", err)
}

// Run consumes the activity queue until ctx is done. It returns an error
// when consuming cannot start or the broker closes the delivery stream.
func (a *ActivityRecorder) Run(ctx context.Context, q queue.EventQueue, prefetch int) error {
	msgs, errs, err := q.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	a.logger.Info("worker_started", zap.Int("prefetch", prefetch))
	return serve(ctx, a, msgs, errs)
}

func serve[M queue.MessageInterface](ctx context.Context, a *ActivityRecorder, msgs <-chan M, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("worker_stopping")
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.logger.Error("queue_error", zap.String("error", logger.SanitizeError(err)))
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("message channel closed")
			}
			if err := a.ProcessMessage(ctx, msg); err != nil {
				event := msg.GetEvent()
				a.logger.Error("failed_to_process_event",
					zap.String("event_id", event.ID.String()),
					zap.String("event_type", string(event.Type)),
					zap.String("user_id", logger.SanitizeUserID(event.UserID)),
					zap.String("error", logger.SanitizeError(err)),
				)
			}
		}
	}
}
