package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoogleProvider is the identity provider for Google sign-in. It verifies
// Google ID tokens, keeps the device session in a PrincipalStore and
// notifies listeners of every change on its own goroutine, in order.
// Listeners are not called on registration; read CurrentUser for the
// initial state.
type GoogleProvider struct {
	verifier   TokenVerifier
	store      PrincipalStore
	logger     *zap.Logger
	instanceID string

	mu        sync.Mutex
	current   *Principal
	listeners []AuthStateListener

	queueMu sync.Mutex
	pending []*Principal
	signal  chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// NewGoogleProvider creates a provider and starts its notification loop.
// Call Restore to load a persisted session.
func NewGoogleProvider(verifier TokenVerifier, store PrincipalStore, log *zap.Logger) *GoogleProvider {
	p := &GoogleProvider{
		verifier:   verifier,
		store:      store,
		logger:     log,
		instanceID: uuid.NewString(),
		signal:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go p.dispatch()
	return p
}

// InstanceID identifies this provider in cross-process change notifications
func (p *GoogleProvider) InstanceID() string {
	return p.instanceID
}

// CurrentUser returns a copy of the signed-in principal or nil
func (p *GoogleProvider) CurrentUser() *Principal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// SignInWithCredential verifies idToken and makes its account the session user
func (p *GoogleProvider) SignInWithCredential(ctx context.Context, idToken string) (*SignInResult, error) {
	claims, err := p.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("invalid Google credential: %w", err)
	}

	if claims.Sub == "" {
		p.logger.Warn("credential_without_subject", zap.String("issuer", claims.Iss))
		return &SignInResult{}, nil
	}

	principal := principalFromClaims(claims)

	isNewUser, err := p.store.MarkSeen(ctx, principal.UID)
	if err != nil {
		p.logger.Warn("failed_to_mark_account_seen",
			zap.String("user_id", logger.SanitizeUserID(principal.UID)),
			zap.String("error", logger.SanitizeError(err)),
		)
		isNewUser = false
	}

	if err := p.store.Save(ctx, principal); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	p.apply(principal, true)
	p.announce(ctx)

	p.logger.Info("provider_signed_in",
		zap.String("user_id", logger.SanitizeUserID(principal.UID)),
		zap.String("email_domain", logger.EmailDomain(principal.Email)),
		zap.Bool("is_new_user", isNewUser),
	)

	return &SignInResult{User: principal.Clone(), IsNewUser: isNewUser}, nil
}

// SignOut clears the session
func (p *GoogleProvider) SignOut(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	p.apply(nil, true)
	p.announce(ctx)

	p.logger.Info("provider_signed_out")
	return nil
}

// AddAuthStateListener registers listener for later changes
func (p *GoogleProvider) AddAuthStateListener(listener AuthStateListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, listener)
}

// RemoveAuthStateListener deregisters listener. Unknown listeners are ignored.
func (p *GoogleProvider) RemoveAuthStateListener(listener AuthStateListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, l := range p.listeners {
		if l == listener {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners
func (p *GoogleProvider) ListenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

// Restore loads the persisted session, notifying listeners if it differs
func (p *GoogleProvider) Restore(ctx context.Context) error {
	principal, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	p.apply(principal, false)
	return nil
}

// Watch follows session changes made by other processes until ctx is done.
// It returns immediately with nil when the store is not shared.
func (p *GoogleProvider) Watch(ctx context.Context) error {
	notifier, ok := p.store.(ChangeNotifier)
	if !ok {
		return nil
	}

	return notifier.SubscribeChanges(ctx, func(origin string) {
		if origin == p.instanceID {
			return
		}
		if err := p.Restore(ctx); err != nil {
			p.logger.Warn("failed_to_reload_session",
				zap.String("error", logger.SanitizeError(err)),
			)
		}
	})
}

// Close stops the notification loop. Pending notifications are dropped.
func (p *GoogleProvider) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// apply sets the current principal and queues a notification. Without
// force an unchanged principal is not re-announced.
func (p *GoogleProvider) apply(principal *Principal, force bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !force && samePrincipal(p.current, principal) {
		return
	}
	p.current = principal.Clone()

	// enqueue under mu so notification order matches apply order
	p.queueMu.Lock()
	p.pending = append(p.pending, principal.Clone())
	p.queueMu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *GoogleProvider) announce(ctx context.Context) {
	notifier, ok := p.store.(ChangeNotifier)
	if !ok {
		return
	}
	if err := notifier.PublishChange(ctx, p.instanceID); err != nil {
		p.logger.Warn("failed_to_publish_session_change",
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

func (p *GoogleProvider) dispatch() {
	for {
		select {
		case <-p.done:
			return
		case <-p.signal:
		}

		for {
			p.queueMu.Lock()
			if len(p.pending) == 0 {
				p.queueMu.Unlock()
				break
			}
			next := p.pending[0]
			p.pending = p.pending[1:]
			p.queueMu.Unlock()

			p.mu.Lock()
			listeners := append([]AuthStateListener(nil), p.listeners...)
			p.mu.Unlock()

			for _, l := range listeners {
				l.OnAuthStateChanged(next.Clone())
			}
		}
	}
}

func principalFromClaims(claims *models.IDTokenClaims) *Principal {
	return &Principal{
		UID:         claims.Sub,
		DisplayName: claims.Name,
		Email:       claims.Email,
		PhotoURL:    claims.Picture,
	}
}

func samePrincipal(a, b *Principal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

var _ Provider = (*GoogleProvider)(nil)
