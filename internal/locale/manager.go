package locale

import (
	"context"
	"fmt"
	"sync"

	"github.com/emrepbu/loginflow/internal/cache"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/observable"
	"github.com/emrepbu/loginflow/internal/validation"
	"go.uber.org/zap"
)

// PreferenceKey is the preference holding the selected language code
const PreferenceKey = "language_code"

// Manager holds the selected language and its bundle. Changing the language
// swaps the bundle in place.
type Manager struct {
	prefs    cache.PreferenceStore
	logger   *zap.Logger
	language *observable.Value[models.Language]

	mu     sync.RWMutex
	bundle *Bundle
}

// NewManager resolves the initial language from the stored preference, then
// deviceDefault, then English. A failing preference read is logged and
// treated as unset.
func NewManager(ctx context.Context, prefs cache.PreferenceStore, deviceDefault string, log *zap.Logger) (*Manager, error) {
	lang := models.LanguageEnglish
	if l, ok := models.LanguageByCode(deviceDefault); ok {
		lang = l
	}

	stored, found, err := prefs.GetString(ctx, PreferenceKey)
	switch {
	case err != nil:
		log.Warn("failed_to_read_language_preference", zap.Error(err))
	case found:
		if l, ok := models.LanguageByCode(stored); ok {
			lang = l
		} else {
			log.Warn("ignoring_unsupported_language_preference", zap.String("language_code", stored))
		}
	}

	bundle, err := Load(lang.Code)
	if err != nil {
		return nil, err
	}

	log.Debug("language_resolved", zap.String("language_code", lang.Code))
	return &Manager{
		prefs:    prefs,
		logger:   log,
		language: observable.New(lang),
		bundle:   bundle,
	}, nil
}

// Language returns the selected language stream
func (m *Manager) Language() observable.Readable[models.Language] {
	return m.language
}

// Bundle returns the bundle of the selected language
func (m *Manager) Bundle() *Bundle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bundle
}

// SetLanguage validates and persists code, then publishes the new language
func (m *Manager) SetLanguage(ctx context.Context, code string) (models.Language, error) {
	if err := validation.ValidateLanguageCode(code); err != nil {
		return models.Language{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	lang, _ := models.LanguageByCode(code)

	bundle, err := Load(lang.Code)
	if err != nil {
		return models.Language{}, err
	}
	if err := m.prefs.PutString(ctx, PreferenceKey, lang.Code); err != nil {
		return models.Language{}, fmt.Errorf("failed to store language preference: %w", err)
	}

	m.mu.Lock()
	m.bundle = bundle
	m.mu.Unlock()
	m.language.Set(lang)

	m.logger.Info("language_changed", zap.String("language_code", lang.Code))
	return lang, nil
}

// Close closes the language stream
func (m *Manager) Close() {
	m.language.Close()
}
