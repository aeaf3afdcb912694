package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "frontdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// VerificationCodesSent counts outbound verification codes by channel.
	VerificationCodesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_verification_codes_sent_total",
			Help: "Total verification codes sent, by channel kind",
		},
		[]string{"kind"},
	)

	// ProvisionOrdersTotal counts provisioning attempts by provider and result.
	ProvisionOrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_provision_orders_total",
			Help: "Total provisioning orders, by provider and result",
		},
		[]string{"provider", "result"},
	)
)
