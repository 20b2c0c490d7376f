package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	logpkg "github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/navigation"
	"github.com/emrepbu/loginflow/internal/request"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProfileService completes or edits the session user's profile
type ProfileService interface {
	CompleteProfile(ctx context.Context, ageText, bio string) models.AuthResult
}

// ProfileHandler handles the profile screen
type ProfileHandler struct {
	profiles  ProfileService
	session   SessionView
	navigator Navigator
	logger    *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService, session SessionView, navigator Navigator, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, session: session, navigator: navigator, logger: log}
}

// profileRequest accepts the age as form text or as a JSON number
type profileRequest struct {
	Age json.RawMessage `json:"age"`
	Bio string          `json:"bio"`
}

type profileResponse struct {
	User       *models.User           `json:"user"`
	EditMode   bool                   `json:"edit_mode"`
	Navigation models.NavigationState `json:"navigation"`
}

// RegisterRoutes registers profile routes on the given router
// The router should already have the /api/v1 prefix and require a session
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/profile", h.SaveProfile).Methods("PUT")
}

// GetProfile returns the session user and whether the profile screen edits
// an existing profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", models.DefaultUnauthorizedMessage)
		return
	}
	state := h.navigator.State().Get()
	respondJSON(w, http.StatusOK, profileResponse{
		User:       user,
		EditMode:   navigation.IsEditMode(state),
		Navigation: state,
	})
}

// SaveProfile validates and stores the profile, then moves to home
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	result := h.profiles.CompleteProfile(r.Context(), ageText(req.Age), req.Bio)
	if !result.IsSuccess() {
		respondAuthResult(w, result)
		return
	}

	// The saved profile is already published; feed it to the navigator
	// before moving so the policy does not bounce the move back
	user := h.session.CurrentUser().Get()
	if user != nil {
		h.navigator.Update(true, user.IsProfileComplete)
	}
	state, err := h.navigator.Navigate(models.RouteHome)
	if err != nil {
		h.logger.Error("failed_to_navigate_after_save",
			zap.String("user_id", logpkg.SanitizeUserID(request.UserID(r))),
			zap.Error(err),
		)
		state = h.navigator.State().Get()
	}

	respondJSON(w, http.StatusOK, profileResponse{
		User:       user,
		EditMode:   navigation.IsEditMode(state),
		Navigation: state,
	})
}

// ageText renders the raw age as the text a form field would hold. Values
// that are neither strings nor numbers become blank and fail validation.
func ageText(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}
