package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry          *prometheus.Registry
	verifyRuns        *prometheus.CounterVec // total verification runs
	verifyDuration    prometheus.Histogram   // time to verify a batch
	directoryRequests *prometheus.CounterVec // directory api requests
	dnsLookups        *prometheus.CounterVec // dns resolutions
	mismatches        *prometheus.CounterVec // detected record mismatches
	providerRequests  *prometheus.CounterVec // dns provider write requests
	badgerRequests    *prometheus.CounterVec // badgerdb requests
}

// Public interface for metrics operations
func (m *Metrics) IncVerifyRun(success bool) {
	status := boolToResult(success)
	m.verifyRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) SetVerifyDuration(duration time.Duration) {
	m.verifyDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncDirectoryRequest(success bool) {
	status := boolToResult(success)
	m.directoryRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) IncDNSLookup(recordType string, found bool) {
	if !isValidRecordType(recordType) {
		return
	}
	outcome := "found"
	if !found {
		outcome = "absent"
	}
	m.dnsLookups.WithLabelValues(recordType, outcome).Inc()
}

func (m *Metrics) IncMismatch(recordType string) {
	if !isValidRecordType(recordType) {
		return
	}
	m.mismatches.WithLabelValues(recordType).Inc()
}

func (m *Metrics) IncProviderRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.providerRequests.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) IncBadgerRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	status := boolToResult(success)
	m.badgerRequests.WithLabelValues(operation, status).Inc()
}

// Validation helpers
func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "create", "read", "update", "delete", "skip":
		return true
	}
	return false
}

func isValidRecordType(rt string) bool {
	switch rt {
	case "MX", "TXT", "CNAME", "SRV":
		return true
	}
	return false
}

func New(register bool) *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "m365_dns_verify"

	m := &Metrics{
		registry: registry,

		verifyRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_runs_total",
			Help:      "Total number of verification runs",
		}, []string{"status"}),

		verifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verify_duration_seconds",
			Help:      "Duration of verification runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		directoryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_requests_total",
			Help:      "Total directory API requests",
		}, []string{"status"}),

		dnsLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_lookups_total",
			Help:      "Total DNS lookups by record type and outcome",
		}, []string{"type", "outcome"}),

		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mismatches_total",
			Help:      "Total detected record mismatches by type",
		}, []string{"type"}),

		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total DNS provider write requests",
		}, []string{"operation", "status"}),

		badgerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badgerdb_requests_total",
			Help:      "Total badgerdb requests",
		}, []string{"operation", "status"}),
	}

	if register {
		registry.MustRegister(
			m.verifyRuns,
			m.verifyDuration,
			m.directoryRequests,
			m.dnsLookups,
			m.mismatches,
			m.providerRequests,
			m.badgerRequests,
		)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
