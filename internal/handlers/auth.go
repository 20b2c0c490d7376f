package handlers

import (
	"context"
	"net/http"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AuthService performs sign-in and sign-out
type AuthService interface {
	SignInWithGoogle(ctx context.Context, idToken string) models.AuthResult
	SignInWithAuthCode(ctx context.Context, code string) models.AuthResult
	SignOut(ctx context.Context) models.AuthResult
}

// AuthURLBuilder builds the Google consent URL for the code flow
type AuthURLBuilder interface {
	AuthCodeURL(state string) string
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	auth    AuthService
	urls    AuthURLBuilder
	session SessionView
}

// NewAuthHandler creates a new auth handler. urls may be nil when the code
// flow is not configured.
func NewAuthHandler(auth AuthService, urls AuthURLBuilder, session SessionView) *AuthHandler {
	return &AuthHandler{auth: auth, urls: urls, session: session}
}

type idTokenRequest struct {
	IDToken string `json:"id_token"`
}

type authCodeRequest struct {
	Code string `json:"code"`
}

type authResponse struct {
	Result models.AuthResultKind `json:"result"`
	User   *models.User          `json:"user"`
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/google", h.SignInWithGoogle).Methods("POST")
	r.HandleFunc("/google/code", h.SignInWithAuthCode).Methods("POST")
	r.HandleFunc("/signout", h.SignOut).Methods("POST")
	if h.urls != nil {
		r.HandleFunc("/google/url", h.GetAuthURL).Methods("GET")
	}
}

// SignInWithGoogle exchanges a Google ID token for a session
func (h *AuthHandler) SignInWithGoogle(w http.ResponseWriter, r *http.Request) {
	var req idTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	h.respond(w, h.auth.SignInWithGoogle(r.Context(), req.IDToken))
}

// SignInWithAuthCode completes the authorization code flow
func (h *AuthHandler) SignInWithAuthCode(w http.ResponseWriter, r *http.Request) {
	var req authCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	h.respond(w, h.auth.SignInWithAuthCode(r.Context(), req.Code))
}

// SignOut ends the session
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.auth.SignOut(r.Context()))
}

// GetAuthURL returns the consent URL. A state is generated unless the
// client supplies one.
func (h *AuthHandler) GetAuthURL(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		state = uuid.NewString()
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"url":   h.urls.AuthCodeURL(state),
		"state": state,
	})
}

// respond answers with the session snapshot at the time the operation
// returned. Enrichment may still be running, so clients follow the session
// stream for the final profile state.
func (h *AuthHandler) respond(w http.ResponseWriter, result models.AuthResult) {
	if !result.IsSuccess() {
		respondAuthResult(w, result)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{
		Result: result.Kind,
		User:   h.session.CurrentUser().Get(),
	})
}
