// Package metrics collects Prometheus metrics for sign-ins, task mutations
// and storage failures.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/usecase"
)

// Collector implements usecase.Recorder on Prometheus counters.
type Collector struct {
	authAttempts  *prometheus.CounterVec
	taskMutations *prometheus.CounterVec
	storageErrors *prometheus.CounterVec
	httpResponses *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasker_auth_attempts_total",
			Help: "Sign-in attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		taskMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasker_task_mutations_total",
			Help: "Persisted task mutations by operation.",
		}, []string{"operation"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasker_storage_errors_total",
			Help: "Failed storage reads and writes by component.",
		}, []string{"component"}),
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tasker_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.taskMutations,
		c.storageErrors,
		c.httpResponses,
	)
	return c
}

func (c *Collector) RecordAuth(provider domain.Provider, outcome string) {
	c.authAttempts.WithLabelValues(string(provider), outcome).Inc()
}

func (c *Collector) RecordTaskMutation(operation string) {
	c.taskMutations.WithLabelValues(operation).Inc()
}

func (c *Collector) RecordStorageError(component string) {
	c.storageErrors.WithLabelValues(component).Inc()
}

// RecordHTTPStatus counts a response status.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpResponses.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ usecase.Recorder = (*Collector)(nil)
