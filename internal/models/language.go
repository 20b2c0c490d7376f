package models

// Language is a supported UI language
type Language struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

var (
	// LanguageEnglish is the fallback language
	LanguageEnglish = Language{Code: "en", DisplayName: "English"}
	// LanguageTurkish is Turkish
	LanguageTurkish = Language{Code: "tr", DisplayName: "Türkçe"}
)

// SupportedLanguages lists every language with a resource bundle
func SupportedLanguages() []Language {
	return []Language{LanguageEnglish, LanguageTurkish}
}

// LanguageByCode looks up a supported language
func LanguageByCode(code string) (Language, bool) {
	for _, l := range SupportedLanguages() {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}
