// Package metrics defines the custom Prometheus metrics of the healthcare
// API. Metrics are registered with the default registry on package init via
// promauto; HTTP request metrics are recorded by Middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "healthcare"

// Resource label values.
const (
	ResourcePatient = "patient"
	ResourceDoctor  = "doctor"
	ResourceMapping = "mapping"
)

// ── Record metrics ────────────────────────────────────────────────────────────

// RecordsCreatedTotal counts records created through the API.
// Label:
//   - resource: "patient", "doctor" or "mapping"
var RecordsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_created_total",
		Help:      "Total number of records created, by resource.",
	},
	[]string{"resource"},
)

// RecordsUpdatedTotal counts successful PUT and PATCH requests.
var RecordsUpdatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_updated_total",
		Help:      "Total number of records updated, by resource.",
	},
	[]string{"resource"},
)

// RecordsDeletedTotal counts records deleted directly. Mappings removed by a
// cascading patient or doctor delete are not counted here.
var RecordsDeletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_deleted_total",
		Help:      "Total number of records deleted, by resource.",
	},
	[]string{"resource"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts authentication outcomes.
// Labels:
//   - event:  "register", "login", "refresh" or "logout"
//   - result: "success" or "failure"
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication events, by event and result.",
	},
	[]string{"event", "result"},
)

// AuthResult maps an error to the result label of AuthEventsTotal.
func AuthResult(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
// Labels:
//   - method: HTTP method
//   - route:  registered route template (e.g. "/v1/patients/:id"), never the raw path
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests, by method and route.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "route"},
)
