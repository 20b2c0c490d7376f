package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emrepbu/loginflow/internal/auth"
	"github.com/emrepbu/loginflow/internal/models"
)

const maxErrorMessageLength = 200

// successBody and errorBody are the two shapes of every API response
type successBody struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

type errorBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func responseTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSON sends data in a success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeBody(w, status, successBody{Success: true, Data: data, Timestamp: responseTimestamp()})
}

// respondJSONError sends an error envelope; the message is shown to users,
// so it is stripped of control characters and bounded
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeBody(w, status, errorBody{Error: errorType, Message: sanitizeErrorMessage(message), Timestamp: responseTimestamp()})
}

func sanitizeErrorMessage(message string) string {
	sanitized := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, message)

	if len(sanitized) > maxErrorMessageLength {
		sanitized = sanitized[:maxErrorMessageLength] + "..."
	}
	return sanitized
}

// respondAuthResult maps a non-successful AuthResult onto an error envelope
func respondAuthResult(w http.ResponseWriter, result models.AuthResult) {
	status := auth.StatusCode(result.Cause)
	if result.Kind == models.AuthResultUnauthorized {
		status = http.StatusUnauthorized
	}
	if status == http.StatusOK {
		status = http.StatusInternalServerError
	}
	respondJSONError(w, status, http.StatusText(status), result.Message)
}

// decodeJSON decodes a single JSON object from the request body. An empty
// body leaves dst untouched, and so does a body with trailing data.
func decodeJSON(r *http.Request, dst any) error {
	var raw json.RawMessage
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid request body: trailing data after JSON value")
	}

	strict := json.NewDecoder(bytes.NewReader(raw))
	strict.DisallowUnknownFields()
	if err := strict.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
