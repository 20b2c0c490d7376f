package models

import (
	"time"
)

// Document field names for a persisted user profile
const (
	FieldID                = "id"
	FieldDisplayName       = "displayName"
	FieldEmail             = "email"
	FieldPhotoURL          = "photoUrl"
	FieldAge               = "age"
	FieldBio               = "bio"
	FieldCreatedAt         = "createdAt"
	FieldIsProfileComplete = "isProfileComplete"
)

// UsersCollection is the document store collection holding user profiles
const UsersCollection = "users"

// User represents the signed-in identity together with its profile
type User struct {
	ID                string     `json:"id"`
	DisplayName       *string    `json:"display_name,omitempty"`
	Email             *string    `json:"email,omitempty"`
	PhotoURL          *string    `json:"photo_url,omitempty"`
	Age               *int       `json:"age,omitempty"`
	Bio               *string    `json:"bio,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	IsProfileComplete bool       `json:"is_profile_complete"`
}

// NewUserFromPrincipal builds the basic user from identity-provider claims.
// Profile fields are left empty; they are filled in by enrichment.
func NewUserFromPrincipal(id, displayName, email, photoURL string) *User {
	return &User{
		ID:          id,
		DisplayName: optionalString(displayName),
		Email:       optionalString(email),
		PhotoURL:    optionalString(photoURL),
	}
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.DisplayName = cloneString(u.DisplayName)
	c.Email = cloneString(u.Email)
	c.PhotoURL = cloneString(u.PhotoURL)
	c.Bio = cloneString(u.Bio)
	if u.Age != nil {
		age := *u.Age
		c.Age = &age
	}
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	return &c
}

// WithCompletedProfile returns a copy with the profile fields set and the
// profile marked complete. CreatedAt is preserved.
func (u *User) WithCompletedProfile(age int, bio string) *User {
	c := u.Clone()
	c.Age = &age
	c.Bio = optionalString(bio)
	c.IsProfileComplete = true
	return c
}

// Fields renders the user as a document for the document store
func (u *User) Fields() map[string]any {
	fields := map[string]any{
		FieldID:                u.ID,
		FieldDisplayName:       nil,
		FieldEmail:             nil,
		FieldPhotoURL:          nil,
		FieldAge:               nil,
		FieldBio:               nil,
		FieldCreatedAt:         nil,
		FieldIsProfileComplete: u.IsProfileComplete,
	}
	if u.DisplayName != nil {
		fields[FieldDisplayName] = *u.DisplayName
	}
	if u.Email != nil {
		fields[FieldEmail] = *u.Email
	}
	if u.PhotoURL != nil {
		fields[FieldPhotoURL] = *u.PhotoURL
	}
	if u.Age != nil {
		fields[FieldAge] = *u.Age
	}
	if u.Bio != nil {
		fields[FieldBio] = *u.Bio
	}
	if u.CreatedAt != nil {
		fields[FieldCreatedAt] = u.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return fields
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
