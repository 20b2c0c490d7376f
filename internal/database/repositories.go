package database

import (
	"context"
	"time"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/google/uuid"
)

// ActivityStore is the projection the activity worker maintains. Each
// Record call names the event it applies so a redelivered event is a no-op.
type ActivityStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserActivity, error)
	RecordSignIn(ctx context.Context, userID string, eventID uuid.UUID, at time.Time) error
	RecordSignOut(ctx context.Context, userID string, eventID uuid.UUID, at time.Time) error
	RecordProfileSaved(ctx context.Context, userID string, eventID uuid.UUID, at time.Time) error
}

var _ ActivityStore = (*UserActivityRepository)(nil)
