package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/emrepbu/loginflow/internal/locale"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LanguageSelector reads and changes the selected language
type LanguageSelector interface {
	LanguageView
	Bundle() *locale.Bundle
	SetLanguage(ctx context.Context, code string) (models.Language, error)
}

// LocaleHandler handles language selection
type LocaleHandler struct {
	languages LanguageSelector
	logger    *zap.Logger
}

// NewLocaleHandler creates a new locale handler
func NewLocaleHandler(languages LanguageSelector, log *zap.Logger) *LocaleHandler {
	return &LocaleHandler{languages: languages, logger: log}
}

type languageRequest struct {
	Code string `json:"language_code"`
}

type languageResponse struct {
	Language  models.Language   `json:"language"`
	Supported []models.Language `json:"supported"`
}

type stringsResponse struct {
	Language models.Language  `json:"language"`
	Strings  map[string]string `json:"strings"`
}

// RegisterRoutes registers locale routes on the given router
// The router should already have the /api/v1 prefix
func (h *LocaleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/locale", h.GetLanguage).Methods("GET")
	r.HandleFunc("/locale", h.SetLanguage).Methods("PUT")
	r.HandleFunc("/locale/strings", h.GetStrings).Methods("GET")
}

// GetLanguage returns the selected and supported languages
func (h *LocaleHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, languageResponse{
		Language:  h.languages.Language().Get(),
		Supported: models.SupportedLanguages(),
	})
}

// SetLanguage persists a new language selection
func (h *LocaleHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	lang, err := h.languages.SetLanguage(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, locale.ErrUnsupportedLanguage) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Error("failed_to_set_language", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store language preference")
		return
	}

	respondJSON(w, http.StatusOK, languageResponse{
		Language:  lang,
		Supported: models.SupportedLanguages(),
	})
}

// GetStrings returns the string table of the selected language, or of the
// language named by ?lang=
func (h *LocaleHandler) GetStrings(w http.ResponseWriter, r *http.Request) {
	bundle := h.languages.Bundle()
	if code := r.URL.Query().Get("lang"); code != "" {
		b, err := locale.Load(code)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		bundle = b
	}
	respondJSON(w, http.StatusOK, stringsResponse{Language: bundle.Language, Strings: bundle.All()})
}
