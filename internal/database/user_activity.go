package database

import (
	"context"
	"fmt"
	"time"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/google/uuid"
)

// UserActivityRepository handles user activity database operations.
// Every write carries the id of the event that caused it and is skipped
// when that event was already applied, so redelivered events are harmless.
type UserActivityRepository struct {
	db *DB
}

// NewUserActivityRepository creates a new user activity repository
func NewUserActivityRepository(db *DB) *UserActivityRepository {
	return &UserActivityRepository{db: db}
}

// GetByUserID retrieves user activity by user ID
func (r *UserActivityRepository) GetByUserID(ctx context.Context, userID string) (*models.UserActivity, error) {
	activity := &models.UserActivity{}

	query := `
		SELECT user_id, sign_in_count, last_sign_in_at, last_sign_out_at, profile_saved_at, created_at, updated_at
		FROM user_activity
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&activity.UserID,
		&activity.SignInCount,
		&activity.LastSignInAt,
		&activity.LastSignOutAt,
		&activity.ProfileSavedAt,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}

	return activity, nil
}

// RecordSignIn increments the sign-in count and sets the last sign-in time
func (r *UserActivityRepository) RecordSignIn(ctx context.Context, userID string, eventID uuid.UUID, at time.Time) error {
	query := `
		INSERT INTO user_activity (user_id, sign_in_count, last_sign_in_at, last_event_id, created_at, updated_at)
		VALUES ($1, 1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET sign_in_count = user_activity.sign_in_count + 1,
		    last_sign_in_at = EXCLUDED.last_sign_in_at,
		    last_event_id = EXCLUDED.last_event_id,
		    updated_at = EXCLUDED.updated_at
		WHERE user_activity.last_event_id IS DISTINCT FROM EXCLUDED.last_event_id
	`
	return r.exec(ctx, "record sign-in", query, userID, at, eventID, time.Now())
}

// RecordSignOut sets the last sign-out time
func (r *UserActivityRepository) RecordSignOut(ctx context.Context, userID string, eventID uuid.UUID, at time.Time) error {
	query := `
		INSERT INTO user_activity (user_id, last_sign_out_at, last_event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET last_sign_out_at = EXCLUDED.last_sign_out_at,
		    last_event_id = EXCLUDED.last_event_id,
		    updated_at = EXCLUDED.updated_at
		WHERE user_activity.last_event_id IS DISTINCT FROM EXCLUDED.last_event_id
	`
	return r.exec(ctx, "record sign-out", query, userID, at, eventID, time.Now())
}

// RecordProfileSaved sets the time the profile was last saved
func (r *UserActivityRepository) RecordProfileSaved(ctx context.Context, userID string, eventID uuid.UUID, at time.Time) error {
	query := `
		INSERT INTO user_activity (user_id, profile_saved_at, last_event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET profile_saved_at = EXCLUDED.profile_saved_at,
		    last_event_id = EXCLUDED.last_event_id,
		    updated_at = EXCLUDED.updated_at
		WHERE user_activity.last_event_id IS DISTINCT FROM EXCLUDED.last_event_id
	`
	return r.exec(ctx, "record profile save", query, userID, at, eventID, time.Now())
}

func (r *UserActivityRepository) exec(ctx context.Context, op, query string, userID string, at time.Time, eventID uuid.UUID, now time.Time) error {
	if _, err := r.db.ExecContext(ctx, query, userID, at, eventID, now); err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}
