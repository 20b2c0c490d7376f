package models

// AuthResultKind identifies the outcome of an auth operation
type AuthResultKind string

const (
	// AuthResultSuccess means the operation completed
	AuthResultSuccess AuthResultKind = "success"
	// AuthResultError means the operation failed with a message
	AuthResultError AuthResultKind = "error"
	// AuthResultUnauthorized means the operation needs an active session
	AuthResultUnauthorized AuthResultKind = "unauthorized"
)

// DefaultUnauthorizedMessage is used when an operation runs without a session
const DefaultUnauthorizedMessage = "User is not logged in"

// AuthResult is the outcome of a sign-in, sign-out or profile save.
// It carries no session data; session changes flow through the session source.
type AuthResult struct {
	Kind    AuthResultKind `json:"result"`
	Message string         `json:"message,omitempty"`
	// Cause classifies failures for callers; it is not serialized
	Cause error `json:"-"`
}

// Success returns a successful result
func Success() AuthResult {
	return AuthResult{Kind: AuthResultSuccess}
}

// Error returns a failed result with a human-readable message
func Error(message string, cause error) AuthResult {
	return AuthResult{Kind: AuthResultError, Message: message, Cause: cause}
}

// Unauthorized returns a result for an operation attempted without a session
func Unauthorized(message string, cause error) AuthResult {
	if message == "" {
		message = DefaultUnauthorizedMessage
	}
	return AuthResult{Kind: AuthResultUnauthorized, Message: message, Cause: cause}
}

// IsSuccess reports whether the result is a success
func (r AuthResult) IsSuccess() bool {
	return r.Kind == AuthResultSuccess
}
