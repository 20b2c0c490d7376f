package models

import "time"

// UserActivity summarises the session events seen for one user
type UserActivity struct {
	UserID         string     `json:"user_id"`
	SignInCount    int        `json:"sign_in_count"`
	LastSignInAt   *time.Time `json:"last_sign_in_at,omitempty"`
	LastSignOutAt  *time.Time `json:"last_sign_out_at,omitempty"`
	ProfileSavedAt *time.Time `json:"profile_saved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
