// Package telemetry owns the process-wide Prometheus collectors and the
// OpenTelemetry tracer provider.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels used by DirectoryOperations.
const (
	OutcomeOK      = "ok"
	OutcomeRefused = "refused"
	OutcomeError   = "error"
)

var (
	// DirectoryOperations counts account directory calls by operation and
	// outcome. "refused" covers business rule rejections such as a taken
	// username or a wrong password; "error" is a storage fault.
	DirectoryOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "userdir",
			Name:      "directory_operations_total",
			Help:      "Total number of account directory operations",
		},
		[]string{"operation", "outcome"},
	)

	// AccountsCreated counts successfully registered accounts.
	AccountsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "userdir",
			Name:      "accounts_created_total",
			Help:      "Total number of accounts created",
		},
	)

	// HTTPRequestDuration observes REST handler latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "userdir",
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	once sync.Once
)

// InitMetrics registers all collectors with the default registry. Calling it
// more than once is harmless.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.MustRegister(DirectoryOperations)
		prometheus.DefaultRegisterer.MustRegister(AccountsCreated)
		prometheus.DefaultRegisterer.MustRegister(HTTPRequestDuration)
	})
}
