// Package session publishes the signed-in user and profile-completion state
// of the device session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/emrepbu/loginflow/internal/identity"
	"github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/observable"
	"go.uber.org/zap"
)

// DefaultEnrichTimeout bounds a single profile read
const DefaultEnrichTimeout = 10 * time.Second

// Source is the single subscriber to the identity provider. It publishes
// the basic user as soon as the provider reports a change and follows up
// with the enriched user once the stored profile has been read.
//
// Published users are shared snapshots; consumers must not modify them.
type Source struct {
	provider      identity.Provider
	enricher      *Enricher
	logger        *zap.Logger
	enrichTimeout time.Duration

	user            *observable.Value[*models.User]
	loggedIn        *observable.Value[bool]
	profileComplete *observable.Value[bool]

	mu      sync.Mutex
	started bool
	closed  bool
	// ordinal increases with every transition; enrichment results carrying
	// an older ordinal are discarded
	ordinal uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSource creates a session source. No listener is registered until
// Start or the first accessor call.
func NewSource(provider identity.Provider, enricher *Enricher, log *zap.Logger) *Source {
	ctx, cancel := context.WithCancel(context.Background())
	return &Source{
		provider:        provider,
		enricher:        enricher,
		logger:          log,
		enrichTimeout:   DefaultEnrichTimeout,
		user:            observable.New[*models.User](nil),
		loggedIn:        observable.New(false),
		profileComplete: observable.New(false),
		ctx:             ctx,
		cancel:          cancel,
	}
}

// SetEnrichTimeout overrides the per-read timeout
func (s *Source) SetEnrichTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrichTimeout = d
}

// Start registers the provider listener and publishes the provider's
// current principal. Later calls are no-ops.
func (s *Source) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true

	s.provider.AddAuthStateListener(s)
	current := s.provider.CurrentUser()
	s.logger.Debug("session_source_started",
		zap.String("user_id", logger.SanitizeUserID(uidOf(current))),
	)
	s.transitionLocked(current)
}

// CurrentUser returns the session user stream (nil when signed out)
func (s *Source) CurrentUser() observable.Readable[*models.User] {
	s.Start()
	return s.user
}

// IsLoggedIn returns whether a user is signed in
func (s *Source) IsLoggedIn() observable.Readable[bool] {
	s.Start()
	return s.loggedIn
}

// IsProfileComplete returns whether the session user completed their profile
func (s *Source) IsProfileComplete() observable.Readable[bool] {
	s.Start()
	return s.profileComplete
}

// OnAuthStateChanged implements identity.AuthStateListener
func (s *Source) OnAuthStateChanged(principal *identity.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.logger.Info("session_state_changed",
		zap.String("user_id", logger.SanitizeUserID(uidOf(principal))),
	)
	s.transitionLocked(principal)
}

// Refresh re-reads the provider's principal and its stored profile and
// publishes the result before returning it
func (s *Source) Refresh(ctx context.Context) *models.User {
	s.Start()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.ordinal++
	ord := s.ordinal
	s.mu.Unlock()

	principal := s.provider.CurrentUser()
	if principal == nil {
		s.mu.Lock()
		if !s.closed && ord == s.ordinal {
			s.publishSignedOutLocked()
		}
		s.mu.Unlock()
		return nil
	}

	enriched := s.enricher.Enrich(ctx, basicUser(principal))

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && ord == s.ordinal {
		s.publishUserLocked(enriched)
	}
	return enriched.Clone()
}

// ApplySavedProfile publishes a successfully saved profile. It is ignored
// unless user is still the session user. Enrichment reads in flight are
// superseded so they cannot overwrite the saved state.
func (s *Source) ApplySavedProfile(user *models.User) {
	if user == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	current := s.user.Get()
	if current == nil || current.ID != user.ID {
		s.logger.Debug("saved_profile_not_session_user",
			zap.String("user_id", logger.SanitizeUserID(user.ID)),
		)
		return
	}
	s.ordinal++
	s.publishUserLocked(user.Clone())
}

// Close deregisters the provider listener, drops pending enrichment
// results and closes every stream. Closing twice is a no-op.
func (s *Source) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.started {
		s.provider.RemoveAuthStateListener(s)
	}
	s.cancel()
	s.user.Close()
	s.loggedIn.Close()
	s.profileComplete.Close()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debug("session_source_closed")
}

// transitionLocked publishes the basic user for principal and starts its
// enrichment. Callers hold s.mu.
func (s *Source) transitionLocked(principal *identity.Principal) {
	s.ordinal++
	ord := s.ordinal

	if principal == nil {
		s.publishSignedOutLocked()
		return
	}

	basic := basicUser(principal)
	// A re-emission for the same account keeps the last known profile
	// until enrichment corrects it
	if last := s.user.Get(); last != nil && last.ID == basic.ID {
		basic.Age = last.Age
		basic.Bio = last.Bio
		basic.CreatedAt = last.CreatedAt
		basic.IsProfileComplete = last.IsProfileComplete
	}
	s.publishUserLocked(basic)

	pending := basic.Clone()
	timeout := s.enrichTimeout
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()
		enriched := s.enricher.Enrich(ctx, pending)
		s.publishEnriched(ord, enriched)
	}()
}

func (s *Source) publishEnriched(ord uint64, enriched *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || ord != s.ordinal {
		s.logger.Debug("stale_enrichment_discarded",
			zap.String("user_id", logger.SanitizeUserID(enriched.ID)),
		)
		return
	}
	s.publishUserLocked(enriched)
}

func (s *Source) publishUserLocked(user *models.User) {
	s.user.Set(user)
	s.loggedIn.Set(true)
	s.profileComplete.Set(user.IsProfileComplete)
}

func (s *Source) publishSignedOutLocked() {
	s.user.Set(nil)
	s.loggedIn.Set(false)
	s.profileComplete.Set(false)
}

func basicUser(p *identity.Principal) *models.User {
	return models.NewUserFromPrincipal(p.UID, p.DisplayName, p.Email, p.PhotoURL)
}

func uidOf(p *identity.Principal) string {
	if p == nil {
		return ""
	}
	return p.UID
}

var _ identity.AuthStateListener = (*Source)(nil)
