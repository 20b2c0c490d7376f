package models

// IDTokenClaims represents the claims extracted from a verified Google ID token
type IDTokenClaims struct {
	Sub           string `json:"sub"`            // Subject (stable Google account id)
	Email         string `json:"email"`          // Account email
	EmailVerified bool   `json:"email_verified"` // Whether Google verified the email
	Name          string `json:"name"`           // Display name
	Picture       string `json:"picture"`        // Profile photo URL
	Exp           int64  `json:"exp"`            // Expiration time
	Iat           int64  `json:"iat"`            // Issued at
	Iss           string `json:"iss"`            // Issuer
	Aud           string `json:"aud"`            // Audience (OAuth client id)
}
