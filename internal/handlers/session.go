package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/observable"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultStreamInterval is the minimum gap between two stream events
const DefaultStreamInterval = 100 * time.Millisecond

// SessionView exposes the session user
type SessionView interface {
	CurrentUser() observable.Readable[*models.User]
	Refresh(ctx context.Context) *models.User
}

// Navigator exposes and moves the current route
type Navigator interface {
	State() observable.Readable[models.NavigationState]
	Update(isLoggedIn, isProfileComplete bool) models.NavigationState
	Navigate(route models.Route) (models.NavigationState, error)
	Back() (models.NavigationState, bool)
}

// LanguageView exposes the selected language
type LanguageView interface {
	Language() observable.Readable[models.Language]
}

// SessionHandler serves the session snapshot and its change stream
type SessionHandler struct {
	session        SessionView
	navigator      Navigator
	language       LanguageView
	logger         *zap.Logger
	streamInterval time.Duration
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(session SessionView, navigator Navigator, language LanguageView, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		session:        session,
		navigator:      navigator,
		language:       language,
		logger:         log,
		streamInterval: DefaultStreamInterval,
	}
}

// SessionSnapshot is the combined session state
type SessionSnapshot struct {
	User       *models.User           `json:"user"`
	Navigation models.NavigationState `json:"navigation"`
	Language   models.Language        `json:"language"`
}

// RegisterRoutes registers session routes on the given router
// The router should already have the /api/v1 prefix
func (h *SessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/session", h.GetSession).Methods("GET")
	r.HandleFunc("/session/stream", h.StreamSession).Methods("GET")
}

// GetSession returns the current snapshot. With ?refresh=true the stored
// profile is re-read first.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		h.session.Refresh(r.Context())
	}
	respondJSON(w, http.StatusOK, h.snapshot())
}

// StreamSession writes a server-sent event for the initial state and for
// every later change until the client disconnects. Bursts are collapsed
// into their latest state.
func (h *SessionHandler) StreamSession(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Streaming is not supported")
		return
	}

	users, cancelUsers := h.session.CurrentUser().Subscribe()
	defer cancelUsers()
	states, cancelStates := h.navigator.State().Subscribe()
	defer cancelStates()
	languages, cancelLanguages := h.language.Language().Subscribe()
	defer cancelLanguages()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	limiter := rate.NewLimiter(rate.Every(h.streamInterval), 1)
	var id uint64

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-users:
			if !ok {
				return
			}
		case _, ok := <-states:
			if !ok {
				return
			}
		case _, ok := <-languages:
			if !ok {
				return
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if !drain(users) || !drain(states) || !drain(languages) {
			return
		}
		id++
		if err := writeEvent(w, id, "session", h.snapshot()); err != nil {
			h.logger.Debug("session_stream_write_failed", zap.Error(err))
			return
		}
		flusher.Flush()
	}
}

// snapshot reads the latest value of every stream after any wait, so a
// burst of changes is reported once
func (h *SessionHandler) snapshot() SessionSnapshot {
	return SessionSnapshot{
		User:       h.session.CurrentUser().Get(),
		Navigation: h.navigator.State().Get(),
		Language:   h.language.Language().Get(),
	}
}

// drain discards a pending value. It reports false once ch is closed.
func drain[T any](ch <-chan T) bool {
	select {
	case _, ok := <-ch:
		return ok
	default:
		return true
	}
}

func writeEvent(w http.ResponseWriter, id uint64, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, payload); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}
