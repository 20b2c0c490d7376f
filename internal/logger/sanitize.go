package logger

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxUserIDLength is the maximum length for identity-provider subjects in logs
	MaxUserIDLength = 128
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs
	MaxGeneralStringLength = 2000
)

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString removes control characters, repairs UTF-8 and truncates to maxLength
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = filterRunes(s)
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

// jwtPattern matches compact JWS tokens such as Google ID tokens
var jwtPattern = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)

// SanitizeError sanitizes an error message for safe logging. Provider and
// parser errors may echo the credential, so tokens are redacted.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := jwtPattern.ReplaceAllString(err.Error(), "[redacted-token]")
	return SanitizeString(msg, MaxErrorMessageLength)
}

// EmailDomain returns the domain of an address, enough to tell workspace
// accounts from consumer ones without logging the address itself
func EmailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return "none"
	}
	return SanitizeString(strings.ToLower(email[at+1:]), MaxUserIDLength)
}

// SanitizeUserID sanitizes a user id for safe logging. An empty id logs as "none".
func SanitizeUserID(userID string) string {
	if userID == "" {
		return "none"
	}
	return SanitizeString(userID, MaxUserIDLength)
}

func filterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
