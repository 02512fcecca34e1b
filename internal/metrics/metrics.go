// Package metrics declares the Prometheus collectors of the storefront API.
// All of them register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// LoginsTotal counts login attempts.
// Label result: "success", "invalid_credentials" or "error".
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts by outcome.",
	},
	[]string{"result"},
)

// AuthenticationsTotal counts bearer token checks.
// Label result: "success" or the error code returned to the client.
var AuthenticationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentications_total",
		Help:      "Total number of bearer token verifications by outcome.",
	},
	[]string{"result"},
)

// AuthorizationDecisionsTotal counts guard decisions per action.
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization decisions by action and outcome.",
	},
	[]string{"action", "result"},
)

// HTTPRequestDuration is labelled with the chi route pattern, not the raw
// path, to keep cardinality bounded.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
