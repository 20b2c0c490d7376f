package identity

import (
	"context"
)

// Principal is the identity provider's view of the signed-in account
type Principal struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Clone returns a copy of p, or nil when p is nil
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// SignInResult is the outcome of a successful credential exchange.
// User is nil when the provider accepted the credential but resolved no account.
type SignInResult struct {
	User      *Principal
	IsNewUser bool
}

// AuthStateListener receives the current principal (nil when signed out)
// after every change. Implementations must be comparable, typically a pointer.
type AuthStateListener interface {
	OnAuthStateChanged(principal *Principal)
}

// Provider is the external identity provider holding the device session
type Provider interface {
	// CurrentUser returns the signed-in principal or nil
	CurrentUser() *Principal
	SignInWithCredential(ctx context.Context, idToken string) (*SignInResult, error)
	SignOut(ctx context.Context) error
	AddAuthStateListener(listener AuthStateListener)
	RemoveAuthStateListener(listener AuthStateListener)
}
