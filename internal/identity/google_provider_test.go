package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emrepbu/loginflow/internal/models"
	"go.uber.org/zap"
)

type mockVerifier struct {
	VerifyFunc func(ctx context.Context, rawToken string) (*models.IDTokenClaims, error)
}

func (m *mockVerifier) Verify(ctx context.Context, rawToken string) (*models.IDTokenClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, rawToken)
	}
	return nil, errors.New("not implemented")
}

var _ TokenVerifier = (*mockVerifier)(nil)

type recordingListener struct {
	events chan *Principal
}

func newRecordingListener() *recordingListener {
	return &recordingListener{events: make(chan *Principal, 16)}
}

func (l *recordingListener) OnAuthStateChanged(principal *Principal) {
	l.events <- principal
}

func (l *recordingListener) next(t *testing.T) *Principal {
	t.Helper()
	select {
	case p := <-l.events:
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for auth state notification")
		return nil
	}
}

func (l *recordingListener) expectNone(t *testing.T) {
	t.Helper()
	select {
	case p := <-l.events:
		t.Fatalf("unexpected notification: %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func claimsVerifier(claims *models.IDTokenClaims) *mockVerifier {
	return &mockVerifier{
		VerifyFunc: func(ctx context.Context, rawToken string) (*models.IDTokenClaims, error) {
			return claims, nil
		},
	}
}

func newTestProvider(t *testing.T, verifier TokenVerifier, store PrincipalStore) *GoogleProvider {
	t.Helper()
	p := NewGoogleProvider(verifier, store, zap.NewNop())
	t.Cleanup(p.Close)
	return p
}

func TestGoogleProvider_SignInWithCredential(t *testing.T) {
	t.Parallel()

	claims := &models.IDTokenClaims{Sub: "uid-1", Name: "Ada", Email: "ada@example.com", Picture: "https://example.com/a.png"}
	store := NewMemoryPrincipalStore()
	p := newTestProvider(t, claimsVerifier(claims), store)
	listener := newRecordingListener()
	p.AddAuthStateListener(listener)

	result, err := p.SignInWithCredential(context.Background(), "token")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.User == nil || result.User.UID != "uid-1" {
		t.Fatalf("Expected user uid-1, got %+v", result.User)
	}
	if !result.IsNewUser {
		t.Error("Expected first sign-in to report a new user")
	}
	if result.User.DisplayName != "Ada" || result.User.Email != "ada@example.com" {
		t.Errorf("Expected claims to be mapped, got %+v", result.User)
	}

	if got := listener.next(t); got == nil || got.UID != "uid-1" {
		t.Errorf("Expected notification for uid-1, got %+v", got)
	}
	if current := p.CurrentUser(); current == nil || current.UID != "uid-1" {
		t.Errorf("Expected current user uid-1, got %+v", current)
	}
	if persisted, _ := store.Load(context.Background()); persisted == nil || persisted.UID != "uid-1" {
		t.Errorf("Expected session to be persisted, got %+v", persisted)
	}

	again, err := p.SignInWithCredential(context.Background(), "token")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if again.IsNewUser {
		t.Error("Expected returning account not to be new")
	}
}

func TestGoogleProvider_SignInWithoutSubject(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, claimsVerifier(&models.IDTokenClaims{Iss: "https://accounts.google.com"}), NewMemoryPrincipalStore())
	listener := newRecordingListener()
	p.AddAuthStateListener(listener)

	result, err := p.SignInWithCredential(context.Background(), "token")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.User != nil {
		t.Errorf("Expected no user, got %+v", result.User)
	}
	if p.CurrentUser() != nil {
		t.Error("Expected session to stay signed out")
	}
	listener.expectNone(t)
}

func TestGoogleProvider_SignInVerificationFailure(t *testing.T) {
	t.Parallel()

	verifier := &mockVerifier{
		VerifyFunc: func(ctx context.Context, rawToken string) (*models.IDTokenClaims, error) {
			return nil, errors.New("token is expired")
		},
	}
	p := newTestProvider(t, verifier, NewMemoryPrincipalStore())

	_, err := p.SignInWithCredential(context.Background(), "token")
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
	if p.CurrentUser() != nil {
		t.Error("Expected session to stay signed out")
	}
}

func TestGoogleProvider_SignOut(t *testing.T) {
	t.Parallel()

	store := NewMemoryPrincipalStore()
	p := newTestProvider(t, claimsVerifier(&models.IDTokenClaims{Sub: "uid-1"}), store)
	listener := newRecordingListener()
	p.AddAuthStateListener(listener)

	if _, err := p.SignInWithCredential(context.Background(), "token"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	listener.next(t)

	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := listener.next(t); got != nil {
		t.Errorf("Expected nil principal after sign-out, got %+v", got)
	}
	if persisted, _ := store.Load(context.Background()); persisted != nil {
		t.Errorf("Expected persisted session to be cleared, got %+v", persisted)
	}
}

func TestGoogleProvider_RemoveAuthStateListener(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, claimsVerifier(&models.IDTokenClaims{Sub: "uid-1"}), NewMemoryPrincipalStore())
	listener := newRecordingListener()

	p.AddAuthStateListener(listener)
	if p.ListenerCount() != 1 {
		t.Fatalf("Expected 1 listener, got %d", p.ListenerCount())
	}
	listener.expectNone(t)

	p.RemoveAuthStateListener(listener)
	p.RemoveAuthStateListener(listener)
	if p.ListenerCount() != 0 {
		t.Fatalf("Expected 0 listeners, got %d", p.ListenerCount())
	}

	if _, err := p.SignInWithCredential(context.Background(), "token"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	listener.expectNone(t)
}

func TestGoogleProvider_Restore(t *testing.T) {
	t.Parallel()

	store := NewMemoryPrincipalStore()
	if err := store.Save(context.Background(), &Principal{UID: "uid-9", Email: "nine@example.com"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	p := newTestProvider(t, &mockVerifier{}, store)
	listener := newRecordingListener()
	p.AddAuthStateListener(listener)

	if err := p.Restore(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := listener.next(t); got == nil || got.UID != "uid-9" {
		t.Errorf("Expected restored uid-9, got %+v", got)
	}

	// Restoring an unchanged session does not notify again
	if err := p.Restore(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	listener.expectNone(t)
}

func TestGoogleProvider_NotificationOrder(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, claimsVerifier(&models.IDTokenClaims{Sub: "uid-1"}), NewMemoryPrincipalStore())
	listener := newRecordingListener()
	p.AddAuthStateListener(listener)

	for i := 0; i < 3; i++ {
		if _, err := p.SignInWithCredential(context.Background(), "token"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := p.SignOut(context.Background()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		if got := listener.next(t); got == nil {
			t.Fatalf("Expected sign-in notification at step %d", i)
		}
		if got := listener.next(t); got != nil {
			t.Fatalf("Expected sign-out notification at step %d, got %+v", i, got)
		}
	}
}
