package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/time/rate"
)

// jwksCacheEntry caches the key set of one JWKS endpoint
type jwksCacheEntry struct {
	keys    jwk.Set
	expires time.Time
}

// JWKSManager fetches and caches the identity provider's signing keys
type JWKSManager struct {
	cache      map[string]*jwksCacheEntry
	mu         sync.RWMutex
	ttl        time.Duration
	httpClient *http.Client
	// refreshes bounds forced refetches triggered by unknown key ids
	refreshes *rate.Limiter
}

// NewJWKSManager creates a new JWKS manager. Google rotates its keys
// roughly daily, so an hour-long cache is safe.
func NewJWKSManager() *JWKSManager {
	return &JWKSManager{
		cache:      make(map[string]*jwksCacheEntry),
		ttl:        1 * time.Hour,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		refreshes:  rate.NewLimiter(rate.Every(time.Minute), 1),
	}
}

// WithHTTPClient sets the client used to fetch key sets
func (m *JWKSManager) WithHTTPClient(client *http.Client) *JWKSManager {
	m.httpClient = client
	return m
}

// GetJWKS retrieves the key set for jwksURL, with caching
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.RLock()
	entry, exists := m.cache[jwksURL]
	m.mu.RUnlock()

	if exists && time.Now().Before(entry.expires) && entry.keys != nil {
		return entry.keys, nil
	}

	keys, err := m.fetchJWKS(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	m.mu.Lock()
	m.cache[jwksURL] = &jwksCacheEntry{
		keys:    keys,
		expires: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()

	return keys, nil
}

// Refresh refetches the key set ahead of its expiry. It reports false
// without fetching when a forced refresh happened too recently.
func (m *JWKSManager) Refresh(ctx context.Context, jwksURL string) (jwk.Set, bool, error) {
	if !m.refreshes.Allow() {
		return nil, false, nil
	}

	m.mu.Lock()
	delete(m.cache, jwksURL)
	m.mu.Unlock()

	keys, err := m.GetJWKS(ctx, jwksURL)
	if err != nil {
		return nil, false, err
	}
	return keys, true, nil
}

func (m *JWKSManager) fetchJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	return keys, nil
}
