package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_order_operations_total",
			Help: "Total number of order operations by outcome",
		},
		[]string{"operation", "status"},
	)

	stockMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_stock_movement_units_total",
			Help: "Units debited from or credited to product stock by order processing",
		},
		[]string{"direction"},
	)

	auditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_service_audit_write_failures_total",
			Help: "Audit log appends that failed and were skipped",
		},
	)

	alertNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_low_stock_notifications_total",
			Help: "Low-stock vendor notifications by outcome",
		},
		[]string{"status"},
	)

	eventPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_event_publishes_total",
			Help: "Events published to the broker by type and outcome",
		},
		[]string{"type", "status"},
	)
)

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordOrderOperation counts one coordinator operation (create, update, delete, ...).
func RecordOrderOperation(operation string, success bool) {
	orderOperations.WithLabelValues(operation, outcome(success)).Inc()
}

// RecordStockMovement counts units moved; direction is "debit" or "credit".
func RecordStockMovement(direction string, units int) {
	stockMovements.WithLabelValues(direction).Add(float64(units))
}

func RecordAuditFailure() {
	auditWriteFailures.Inc()
}

func RecordAlertNotification(success bool) {
	alertNotifications.WithLabelValues(outcome(success)).Inc()
}

func RecordEventPublish(eventType string, success bool) {
	eventPublishes.WithLabelValues(eventType, outcome(success)).Inc()
}
