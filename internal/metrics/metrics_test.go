package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					matched = false
				}
			}
			if matched {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("Metric %s%v not found", name, labels)
	return 0
}

func TestCollector_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignIn(OutcomeSuccess)
	c.RecordSignIn(OutcomeSuccess)
	c.RecordSignIn(OutcomeError)
	c.RecordSignOut(OutcomeSuccess)
	c.RecordProfileSave(OutcomeInvalid)
	c.RecordEnrichmentFailure()
	c.RecordHTTPStatus(http.StatusUnauthorized)

	tests := []struct {
		name   string
		metric string
		labels map[string]string
		want   float64
	}{
		{"successful sign-ins", "loginflow_sign_in_total", map[string]string{"outcome": OutcomeSuccess}, 2},
		{"failed sign-ins", "loginflow_sign_in_total", map[string]string{"outcome": OutcomeError}, 1},
		{"sign-outs", "loginflow_sign_out_total", map[string]string{"outcome": OutcomeSuccess}, 1},
		{"invalid profile saves", "loginflow_profile_save_total", map[string]string{"outcome": OutcomeInvalid}, 1},
		{"enrichment failures", "loginflow_profile_enrichment_fail_total", nil, 1},
		{"401 responses", "loginflow_http_status_total", map[string]string{"status_code": "401"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counterValue(t, reg, tt.metric, tt.labels); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSignIn(OutcomeSuccess)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "loginflow_sign_in_total") {
		t.Errorf("Expected scrape output to contain loginflow_sign_in_total, got %s", body)
	}
}
