package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/emrepbu/loginflow/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxAge is the largest accepted age
	MaxAge = 150
	// MaxBioLength is the longest accepted bio, in characters
	MaxBioLength = 500
)

// ErrInvalidAge is returned for age input that is not a positive whole number
var ErrInvalidAge = errors.New("age must be a positive whole number")

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	bioPolicy = bluemonday.StrictPolicy()
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("language_code", validateLanguageCode); err != nil {
		panic(fmt.Sprintf("failed to register language_code validator: %v", err))
	}
}

// ProfileInput is the validated form of the profile screen
type ProfileInput struct {
	Age int    `validate:"required,gt=0,lte=150"`
	Bio string `validate:"max=500"`
}

// LanguageInput is a language selection
type LanguageInput struct {
	Code string `validate:"required,language_code"`
}

// validateLanguageCode validates that a string names a supported language
func validateLanguageCode(fl validator.FieldLevel) bool {
	_, ok := models.LanguageByCode(fl.Field().String())
	return ok
}

// ParseAge parses age text from a form. Blank, non-numeric, zero and
// negative input are rejected.
func ParseAge(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrInvalidAge
	}
	age, err := strconv.Atoi(text)
	if err != nil || age <= 0 {
		return 0, ErrInvalidAge
	}
	return age, nil
}

// NewProfileInput parses and validates the profile form. The bio is
// sanitized before its length is checked.
func NewProfileInput(ageText, bio string) (*ProfileInput, error) {
	age, err := ParseAge(ageText)
	if err != nil {
		return nil, err
	}
	input := &ProfileInput{Age: age, Bio: SanitizeBio(bio)}
	if err := Validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return input, nil
}

// ValidateLanguageCode validates a language code
func ValidateLanguageCode(code string) error {
	if err := Validate.Struct(&LanguageInput{Code: code}); err != nil {
		return fmt.Errorf("unsupported language: %s", code)
	}
	return nil
}

// SanitizeBio strips markup from a bio and then applies SanitizeText
func SanitizeBio(bio string) string {
	return SanitizeText(bioPolicy.Sanitize(bio))
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
