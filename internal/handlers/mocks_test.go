package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/observable"
	"github.com/gorilla/mux"
)

type mockAuthService struct {
	SignInWithGoogleFunc   func(ctx context.Context, idToken string) models.AuthResult
	SignInWithAuthCodeFunc func(ctx context.Context, code string) models.AuthResult
	SignOutFunc            func(ctx context.Context) models.AuthResult
	CompleteProfileFunc    func(ctx context.Context, ageText, bio string) models.AuthResult
}

func (m *mockAuthService) SignInWithGoogle(ctx context.Context, idToken string) models.AuthResult {
	if m.SignInWithGoogleFunc != nil {
		return m.SignInWithGoogleFunc(ctx, idToken)
	}
	return models.Success()
}

func (m *mockAuthService) SignInWithAuthCode(ctx context.Context, code string) models.AuthResult {
	if m.SignInWithAuthCodeFunc != nil {
		return m.SignInWithAuthCodeFunc(ctx, code)
	}
	return models.Success()
}

func (m *mockAuthService) SignOut(ctx context.Context) models.AuthResult {
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx)
	}
	return models.Success()
}

func (m *mockAuthService) CompleteProfile(ctx context.Context, ageText, bio string) models.AuthResult {
	if m.CompleteProfileFunc != nil {
		return m.CompleteProfileFunc(ctx, ageText, bio)
	}
	return models.Success()
}

var (
	_ AuthService    = (*mockAuthService)(nil)
	_ ProfileService = (*mockAuthService)(nil)
)

type stubSession struct {
	user      *observable.Value[*models.User]
	refreshed atomic.Int32
}

func newStubSession(user *models.User) *stubSession {
	return &stubSession{user: observable.New(user)}
}

func (s *stubSession) CurrentUser() observable.Readable[*models.User] {
	return s.user
}

func (s *stubSession) Refresh(ctx context.Context) *models.User {
	s.refreshed.Add(1)
	return s.user.Get()
}

var _ SessionView = (*stubSession)(nil)

type staticURLBuilder struct{}

func (staticURLBuilder) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

var _ AuthURLBuilder = staticURLBuilder{}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
}

// serve routes req through a router configured by register
func serve(t *testing.T, register func(r *mux.Router), req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	r := mux.NewRouter()
	register(r.PathPrefix("/api/v1").Subrouter())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

// newTestRequest encodes body as JSON; nil sends an empty body
func newTestRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return httptest.NewRequest(method, path, bytes.NewReader(raw))
}

func newRawRequest(method, path, body string) *http.Request {
	return httptest.NewRequest(method, path, strings.NewReader(body))
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("Failed to decode data %s: %v", env.Data, err)
	}
}

func testUser(id string) *models.User {
	return models.NewUserFromPrincipal(id, "Ada", "ada@example.com", "")
}
