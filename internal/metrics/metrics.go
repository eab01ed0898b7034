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
	// Registry holds the application-specific collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "confessly",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "confessly",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	// SubmissionsTotal counts successfully created confessions.
	SubmissionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "confessly",
			Subsystem: "board",
			Name:      "submissions_total",
			Help:      "Total number of confessions created.",
		},
	)

	// VotesTotal counts accepted votes by direction.
	VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "confessly",
			Subsystem: "board",
			Name:      "votes_total",
			Help:      "Total number of accepted votes.",
		},
		[]string{"direction"},
	)

	// ArchivedTotal counts confessions archived by the sweep.
	ArchivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "confessly",
			Subsystem: "board",
			Name:      "sweep_archived_total",
			Help:      "Total number of confessions archived by the low-score sweep.",
		},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, SubmissionsTotal, VotesTotal, ArchivedTotal)
}

// Handler serves the registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies per route. The route
// template (c.FullPath) is used rather than the raw URL to keep label
// cardinality bounded.
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
