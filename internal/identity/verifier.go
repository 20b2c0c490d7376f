package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Google issues ID tokens under either issuer spelling
var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// TokenVerifier verifies a raw ID token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*models.IDTokenClaims, error)
}

// Verifier verifies Google ID tokens against the published JWKS
type Verifier struct {
	jwksManager *JWKSManager
	jwksURL     string
	audience    string
	issuers     []string
}

// NewVerifier creates a verifier accepting tokens minted for clientID.
// When issuer is one of Google's issuer spellings both spellings are accepted.
func NewVerifier(jwksManager *JWKSManager, jwksURL, clientID, issuer string) *Verifier {
	issuers := []string{issuer}
	for _, gi := range googleIssuers {
		if gi == issuer {
			issuers = googleIssuers
			break
		}
	}
	return &Verifier{
		jwksManager: jwksManager,
		jwksURL:     jwksURL,
		audience:    clientID,
		issuers:     issuers,
	}
}

// Verify verifies signature, expiry, audience and issuer and extracts claims
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*models.IDTokenClaims, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := v.parse(rawToken, keys)
	if err != nil {
		// Google may have rotated keys since the set was cached
		fresh, refreshed, refreshErr := v.jwksManager.Refresh(ctx, v.jwksURL)
		if refreshErr != nil || !refreshed {
			return nil, fmt.Errorf("failed to parse/verify token: %w", err)
		}
		token, err = v.parse(rawToken, fresh)
		if err != nil {
			return nil, fmt.Errorf("failed to parse/verify token: %w", err)
		}
	}

	if !v.acceptsIssuer(token.Issuer()) {
		return nil, fmt.Errorf("token issuer mismatch: got %q", token.Issuer())
	}

	claims := &models.IDTokenClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Aud: v.audience,
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}
	claims.Email = stringClaim(token, "email")
	claims.Name = stringClaim(token, "name")
	claims.Picture = stringClaim(token, "picture")
	if verified, ok := token.Get("email_verified"); ok {
		if b, ok := verified.(bool); ok {
			claims.EmailVerified = b
		}
	}

	return claims, nil
}

func (v *Verifier) parse(rawToken string, keys jwk.Set) (jwt.Token, error) {
	return jwt.Parse([]byte(rawToken),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithAudience(v.audience),
		jwt.WithAcceptableSkew(30*time.Second),
	)
}

func (v *Verifier) acceptsIssuer(iss string) bool {
	for _, accepted := range v.issuers {
		if iss == accepted {
			return true
		}
	}
	return false
}

func stringClaim(token jwt.Token, name string) string {
	value, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

var _ TokenVerifier = (*Verifier)(nil)
