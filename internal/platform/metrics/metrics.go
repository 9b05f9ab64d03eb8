package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// Services accept a nil *Metrics so unit tests can skip registration entirely.
type Metrics struct {
	UsersCreated prometheus.Counter
	Logins       prometheus.Counter

	ExpensesCreated prometheus.Counter
	ExpensesUpdated prometheus.Counter
	ExpensesDeleted prometheus.Counter

	AuditEntriesRecorded *prometheus.CounterVec
	AuditWriteFailures   prometheus.Counter

	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spendtrail_users_created_total",
			Help: "Total number of users registered",
		}),
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spendtrail_logins_total",
			Help: "Total number of successful logins",
		}),
		ExpensesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spendtrail_expenses_created_total",
			Help: "Total number of expenses created",
		}),
		ExpensesUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spendtrail_expenses_updated_total",
			Help: "Total number of expenses updated",
		}),
		ExpensesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spendtrail_expenses_deleted_total",
			Help: "Total number of expenses deleted",
		}),
		AuditEntriesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "spendtrail_audit_entries_recorded_total",
			Help: "Total number of audit trail entries persisted, by action",
		}, []string{"action"}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spendtrail_audit_write_failures_total",
			Help: "Total number of audit trail writes that failed and were swallowed",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spendtrail_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method", "path", "status"}),
	}
}
