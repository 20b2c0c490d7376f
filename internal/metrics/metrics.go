// Package metrics exposes Prometheus counters for the sign-in flow.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the auth gateway, session source and HTTP layer report to
type Recorder interface {
	RecordSignIn(outcome string)
	RecordSignOut(outcome string)
	RecordProfileSave(outcome string)
	RecordEnrichmentFailure()
	RecordHTTPStatus(statusCode int)
}

// Outcome labels
const (
	OutcomeSuccess      = "success"
	OutcomeError        = "error"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
)

// Collector records sign-in flow metrics in a Prometheus registry
type Collector struct {
	signIns         *prometheus.CounterVec
	signOuts        *prometheus.CounterVec
	profileSaves    *prometheus.CounterVec
	enrichmentFails prometheus.Counter
	httpStatus      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loginflow_sign_in_total",
			Help: "Google sign-in attempts by outcome",
		}, []string{"outcome"}),
		signOuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loginflow_sign_out_total",
			Help: "Sign-out attempts by outcome",
		}, []string{"outcome"}),
		profileSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loginflow_profile_save_total",
			Help: "Profile saves by outcome",
		}, []string{"outcome"}),
		enrichmentFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loginflow_profile_enrichment_fail_total",
			Help: "Profile reads that fell back to an incomplete profile",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loginflow_http_status_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.signIns,
		c.signOuts,
		c.profileSaves,
		c.enrichmentFails,
		c.httpStatus,
	)

	return c
}

// RecordSignIn counts a sign-in attempt
func (c *Collector) RecordSignIn(outcome string) {
	c.signIns.WithLabelValues(outcome).Inc()
}

// RecordSignOut counts a sign-out attempt
func (c *Collector) RecordSignOut(outcome string) {
	c.signOuts.WithLabelValues(outcome).Inc()
}

// RecordProfileSave counts a profile save
func (c *Collector) RecordProfileSave(outcome string) {
	c.profileSaves.WithLabelValues(outcome).Inc()
}

// RecordEnrichmentFailure counts a failed profile read
func (c *Collector) RecordEnrichmentFailure() {
	c.enrichmentFails.Inc()
}

// RecordHTTPStatus counts a response status code
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop discards every measurement
type Nop struct{}

func (Nop) RecordSignIn(string)      {}
func (Nop) RecordSignOut(string)     {}
func (Nop) RecordProfileSave(string) {}
func (Nop) RecordEnrichmentFailure() {}
func (Nop) RecordHTTPStatus(int)     {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
