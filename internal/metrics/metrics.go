package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trust_api"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	auditAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "appends_total",
			Help:      "Audit append attempts by action and result.",
		},
		[]string{"action", "result"},
	)

	auditAppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "append_duration_seconds",
			Help:      "Time to commit one audit entry, including tail retries.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	auditVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "verifications_total",
			Help:      "Chain replays by mode (full, incremental) and outcome.",
		},
		[]string{"mode", "result"},
	)

	auditEntriesChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "entries_checked_total",
			Help:      "Entries replayed by the chain verifier.",
		},
	)

	auditChainIntact = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "chain_intact",
			Help:      "1 when the last replay found no break, 0 otherwise.",
		},
	)

	auditMirrorTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "mirror_publishes_total",
			Help:      "Committed entries published to the broker, by result.",
		},
		[]string{"result"},
	)

	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_jobs_total",
			Help:      "Finished background jobs by name and result.",
		},
		[]string{"job", "result"},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveAppend records one audit append. outcome is ok, validation_error or storage_error.
func ObserveAppend(action, outcome string, elapsed time.Duration) {
	auditAppendsTotal.WithLabelValues(action, outcome).Inc()
	auditAppendDuration.Observe(elapsed.Seconds())
}

// ObserveVerification records one chain replay
func ObserveVerification(mode string, verified bool, checked int64) {
	outcome := "verified"
	if !verified {
		outcome = "broken"
	}
	auditVerificationsTotal.WithLabelValues(mode, outcome).Inc()
	auditEntriesChecked.Add(float64(checked))
	if verified {
		auditChainIntact.Set(1)
	} else {
		auditChainIntact.Set(0)
	}
}

// ObserveVerificationError records a replay that could not complete
func ObserveVerificationError(mode string) {
	auditVerificationsTotal.WithLabelValues(mode, "error").Inc()
}

// ObserveMirror records one broker publish
func ObserveMirror(err error) {
	auditMirrorTotal.WithLabelValues(result(err)).Inc()
}

// ObserveJob matches jobs.Observer
func ObserveJob(name string, elapsed time.Duration, err error) {
	jobsTotal.WithLabelValues(name, result(err)).Inc()
}

// Middleware records request count and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
		httpRequestsTotal.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Inc()
	}
}

// Handler serves the Prometheus exposition format
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
