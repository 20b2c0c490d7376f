// Package locale resolves localized strings for the selected language.
package locale

import (
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/emrepbu/loginflow/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed bundles/*.yaml
var bundleFS embed.FS

// ErrUnsupportedLanguage is returned for codes without a bundle
var ErrUnsupportedLanguage = errors.New("unsupported language")

type bundleFile struct {
	Language struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"language"`
	Strings map[string]string `yaml:"strings"`
}

// Bundle is the resolved string table for one language. Keys missing from
// the language fall back to English, then to the key itself.
type Bundle struct {
	Language models.Language
	strings  map[string]string
	fallback map[string]string
}

var (
	cacheMu sync.Mutex
	parsed  = map[string]*bundleFile{}
)

// Load maps a language code to its bundle
func Load(code string) (*Bundle, error) {
	lang, ok := models.LanguageByCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	file, err := readBundle(lang.Code)
	if err != nil {
		return nil, err
	}
	b := &Bundle{Language: lang, strings: file.Strings}

	if lang.Code != models.LanguageEnglish.Code {
		en, err := readBundle(models.LanguageEnglish.Code)
		if err != nil {
			return nil, err
		}
		b.fallback = en.Strings
	}
	return b, nil
}

// String returns the localized string for key
func (b *Bundle) String(key string) string {
	if s, ok := b.strings[key]; ok {
		return s
	}
	if s, ok := b.fallback[key]; ok {
		return s
	}
	return key
}

// Format returns the localized string for key formatted with args
func (b *Bundle) Format(key string, args ...any) string {
	return fmt.Sprintf(b.String(key), args...)
}

// All returns every key with fallbacks applied
func (b *Bundle) All() map[string]string {
	out := make(map[string]string, len(b.fallback)+len(b.strings))
	for k, v := range b.fallback {
		out[k] = v
	}
	for k, v := range b.strings {
		out[k] = v
	}
	return out
}

func readBundle(code string) (*bundleFile, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if f, ok := parsed[code]; ok {
		return f, nil
	}

	data, err := bundleFS.ReadFile("bundles/" + code + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read %s bundle: %w", code, err)
	}
	var f bundleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s bundle: %w", code, err)
	}
	if f.Language.Code != code {
		return nil, fmt.Errorf("bundle %s declares language %q", code, f.Language.Code)
	}
	parsed[code] = &f
	return &f, nil
}
