package handlers

import (
	"errors"
	"net/http"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/navigation"
	"github.com/gorilla/mux"
)

// NavigationHandler handles user-initiated moves between screens
type NavigationHandler struct {
	navigator Navigator
}

// NewNavigationHandler creates a new navigation handler
func NewNavigationHandler(navigator Navigator) *NavigationHandler {
	return &NavigationHandler{navigator: navigator}
}

type navigateRequest struct {
	Route models.Route `json:"route"`
}

type backResponse struct {
	Navigation models.NavigationState `json:"navigation"`
	Moved      bool                   `json:"moved"`
}

// RegisterRoutes registers navigation routes on the given router
// The router should already have the /api/v1 prefix
func (h *NavigationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/navigation", h.GetNavigation).Methods("GET")
	r.HandleFunc("/navigation", h.Navigate).Methods("POST")
	r.HandleFunc("/navigation/back", h.Back).Methods("POST")
}

// GetNavigation returns the current route
func (h *NavigationHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.navigator.State().Get())
}

// Navigate moves to the requested route. The routing rules still apply, so
// the returned route may differ from the requested one.
func (h *NavigationHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	state, err := h.navigator.Navigate(req.Route)
	if err != nil {
		if errors.Is(err, navigation.ErrUnknownRoute) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Navigation failed")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// Back returns to the previous route when there is one
func (h *NavigationHandler) Back(w http.ResponseWriter, r *http.Request) {
	state, moved := h.navigator.Back()
	respondJSON(w, http.StatusOK, backResponse{Navigation: state, Moved: moved})
}
