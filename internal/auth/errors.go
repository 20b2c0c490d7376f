package auth

import (
	"errors"
	"net/http"
)

// Failure classes carried as the cause of an AuthResult
var (
	ErrValidation   = errors.New("validation failed")
	ErrProvider     = errors.New("identity provider failure")
	ErrStore        = errors.New("document store failure")
	ErrUnauthorized = errors.New("no active session")
)

// User-facing messages
const (
	MsgBlankIDToken   = "ID token is blank"
	MsgNoUserReturned = "No user returned"
	MsgInvalidAge     = "Please enter a valid age"
	MsgInvalidBio     = "Bio is too long"
	MsgBlankAuthCode  = "Authorization code is blank"
	msgSignOutFailed  = "Sign out failed"
	msgSaveFailed     = "Failed to save profile"
	msgSignInFailed   = "Google sign in failed"
)

// StatusCode maps a failure cause to the HTTP status an API host returns
func StatusCode(cause error) int {
	switch {
	case cause == nil:
		return http.StatusOK
	case errors.Is(cause, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(cause, ErrUnauthorized), errors.Is(cause, ErrProvider):
		return http.StatusUnauthorized
	case errors.Is(cause, ErrStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
