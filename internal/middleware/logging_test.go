package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/emrepbu/loginflow/internal/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type statusCounter struct {
	metrics.Nop
	mu       sync.Mutex
	statuses []int
}

func (s *statusCounter) RecordHTTPStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, code)
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
	}{
		{"session read", http.MethodGet, "/api/v1/session", http.StatusOK},
		{"sign-in", http.MethodPost, "/api/v1/auth/google", http.StatusOK},
		{"rejected profile", http.MethodPut, "/api/v1/profile", http.StatusBadRequest},
		{"not found", http.MethodGet, "/notfound", http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			counter := &statusCounter{}
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			w := httptest.NewRecorder()
			Logging(zap.New(core), counter)(handler).ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}
			if len(counter.statuses) != 1 || counter.statuses[0] != tt.handlerStatus {
				t.Errorf("Expected status %d to be counted, got %v", tt.handlerStatus, counter.statuses)
			}

			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected one http_request entry, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields["status_code"] != int64(tt.handlerStatus) {
				t.Errorf("Expected logged status %d, got %v", tt.handlerStatus, fields["status_code"])
			}
			if fields["path"] != tt.path {
				t.Errorf("Expected logged path %s, got %v", tt.path, fields["path"])
			}
		})
	}
}

func TestLogging_DefaultStatus(t *testing.T) {
	t.Parallel()

	counter := &statusCounter{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	Logging(zap.NewNop(), counter)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if len(counter.statuses) != 1 || counter.statuses[0] != http.StatusOK {
		t.Errorf("Expected implicit 200 to be counted, got %v", counter.statuses)
	}
}

func TestRequestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		status int
		want   zapcore.Level
	}{
		{"/api/v1/session", http.StatusOK, zapcore.InfoLevel},
		{"/healthz", http.StatusOK, zapcore.DebugLevel},
		{"/metrics", http.StatusOK, zapcore.DebugLevel},
		{"/healthz", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"/api/v1/profile", http.StatusBadRequest, zapcore.WarnLevel},
		{"/api/v1/auth/google", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		if got := requestLevel(tt.path, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}
