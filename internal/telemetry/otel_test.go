package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracer(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		endpoint    string
	}{
		{"explicit endpoint", "loginflow-server", "localhost:4318"},
		{"environment endpoint", "loginflow-worker", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := InitTracer(ctx, tt.serviceName, tt.endpoint)
			if err != nil {
				t.Fatalf("InitTracer() error = %v", err)
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := Shutdown(shutdownCtx, tp); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestShutdown_NilProvider(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown() with nil provider should not error, got: %v", err)
	}
}

func TestUserAttr_Sanitises(t *testing.T) {
	t.Parallel()

	attr := UserAttr("uid-1\n\x00injected")
	if string(attr.Key) != "loginflow.user_id" {
		t.Errorf("Unexpected key %q", attr.Key)
	}
	if strings.ContainsAny(attr.Value.AsString(), "\n\x00") {
		t.Errorf("Expected control characters to be removed, got %q", attr.Value.AsString())
	}
	if got := UserAttr("").Value.AsString(); got != "none" {
		t.Errorf("Expected empty id to read none, got %q", got)
	}
}

func TestSetOutcome(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("test")

	_, ok := tracer.Start(context.Background(), "auth.sign_out")
	SetOutcome(ok, "success", nil)
	ok.End()

	_, failed := tracer.Start(context.Background(), "auth.sign_in_with_google")
	SetOutcome(failed, "error", errors.New("token eyJhbGciOiJSUzI1NiJ9.eyJzdWIiOiIxIn0.c2ln expired"))
	failed.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(spans))
	}

	if spans[0].Status.Code != codes.Ok {
		t.Errorf("Expected Ok status, got %v", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error {
		t.Errorf("Expected Error status, got %v", spans[1].Status.Code)
	}
	if strings.Contains(spans[1].Status.Description, "eyJ") {
		t.Errorf("Expected token to be redacted from status, got %q", spans[1].Status.Description)
	}
	if len(spans[1].Events) != 1 {
		t.Errorf("Expected the error to be recorded as an event, got %d events", len(spans[1].Events))
	}

	for i, want := range []string{"success", "error"} {
		found := false
		for _, attr := range spans[i].Attributes {
			if attr.Key == "loginflow.outcome" && attr.Value.AsString() == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected span %d to carry outcome %q", i, want)
		}
	}
}
