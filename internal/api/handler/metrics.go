package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/walletd/internal/accounts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	walletdRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walletd_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	walletdRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "walletd_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	walletdRegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walletd_registrations_total",
		Help: "Total registration attempts by result.",
	}, []string{"result"})

	walletdLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walletd_logins_total",
		Help: "Total login attempts by result.",
	}, []string{"result"})

	walletdLedgerMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walletd_ledger_mutations_total",
		Help: "Total successful ledger mutations by operation.",
	}, []string{"op"})

	walletdHealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walletd_health_checks_total",
		Help: "Total health check probes by result.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		walletdRequestsTotal.WithLabelValues(method, path, status).Inc()
		walletdRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func recordRegistration(err error) {
	walletdRegistrationsTotal.WithLabelValues(outcome(err)).Inc()
}

func recordLogin(err error) {
	walletdLoginsTotal.WithLabelValues(outcome(err)).Inc()
}

func recordMutation(op string) {
	walletdLedgerMutationsTotal.WithLabelValues(op).Inc()
}

func recordHealthCheck(success bool) {
	if success {
		walletdHealthChecksTotal.WithLabelValues("success").Inc()
	} else {
		walletdHealthChecksTotal.WithLabelValues("failure").Inc()
	}
}

// outcome buckets an auth result into a bounded label set.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, accounts.ErrDuplicateContact), errors.Is(err, accounts.ErrDuplicateHandle):
		return "conflict"
	case errors.Is(err, accounts.ErrUnknownHandle), errors.Is(err, accounts.ErrBadSecret):
		return "rejected"
	default:
		return "error"
	}
}
