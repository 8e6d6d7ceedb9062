package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the innopoints collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innopoints",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "innopoints",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innopoints",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger transactions committed, by source.",
		},
		[]string{"source"},
	)

	pointsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innopoints",
			Subsystem: "ledger",
			Name:      "points_total",
			Help:      "Absolute innopoints moved by committed transactions, by source and direction.",
		},
		[]string{"source", "direction"},
	)

	stockChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innopoints",
			Subsystem: "inventory",
			Name:      "stock_changes_total",
			Help:      "Stock changes created or moved, by resulting status.",
		},
		[]string{"status"},
	)

	stageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innopoints",
			Subsystem: "lifecycle",
			Name:      "stage_transitions_total",
			Help:      "Project lifetime stage transitions, by target stage.",
		},
		[]string{"stage"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innopoints",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Notifications emitted, by type.",
		},
		[]string{"type"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		transactions,
		pointsMoved,
		stockChanges,
		stageTransitions,
		notifications,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordTransaction(source string, change int) {
	transactions.WithLabelValues(source).Inc()

	direction := "credit"
	if change < 0 {
		direction = "debit"
		change = -change
	}
	pointsMoved.WithLabelValues(source, direction).Add(float64(change))
}

func RecordStockChange(status string) {
	stockChanges.WithLabelValues(status).Inc()
}

func RecordStageTransition(stage string) {
	stageTransitions.WithLabelValues(stage).Inc()
}

func RecordNotification(kind string) {
	notifications.WithLabelValues(kind).Inc()
}
