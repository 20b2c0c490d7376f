package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// ErrNoIDToken is returned when the token endpoint response carries no id_token
var ErrNoIDToken = errors.New("token response did not include an id_token")

// GoogleEndpoint is Google's OAuth2 endpoint
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// GoogleSignInClient turns an authorization code into a Google ID token
type GoogleSignInClient struct {
	config *oauth2.Config
}

// NewGoogleSignInClient creates a sign-in client for the given OAuth2 client.
// A blank secret configures a public client.
func NewGoogleSignInClient(clientID, clientSecret, redirectURL string, endpoint oauth2.Endpoint) *GoogleSignInClient {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoint,
	}

	return &GoogleSignInClient{config: config}
}

// ExchangeForIDToken exchanges an authorization code and returns the id_token
func (c *GoogleSignInClient) ExchangeForIDToken(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("authorization code is blank")
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return "", ErrNoIDToken
	}
	return idToken, nil
}

// AuthCodeURL returns the Google consent URL for state
func (c *GoogleSignInClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}
