package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, recorded by the metrics middleware
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vet_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Domain metrics, incremented by the services
var (
	InvoicesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vet_invoices_created_total",
			Help: "Invoices created, by origin",
		},
		[]string{"origin"},
	)

	PaymentsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vet_payments_registered_total",
			Help: "Payments registered, by method",
		},
		[]string{"method"},
	)

	StockMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vet_stock_movements_total",
			Help: "Inventory ledger movements, by type",
		},
		[]string{"type"},
	)

	InsufficientStockRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vet_insufficient_stock_rejections_total",
			Help: "Outbound movements rejected for lack of stock",
		},
	)
)
