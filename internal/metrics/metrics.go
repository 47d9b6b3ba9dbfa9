// Package metrics collects authentication and HTTP metrics for Prometheus
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authapi"

const OutcomeOK = "ok"

type Collector struct {
	authDecisions   *prometheus.CounterVec
	sessionsIssued  *prometheus.CounterVec
	signouts        prometheus.Counter
	rateLimited     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector creates collector and registers its metrics in reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Guard decisions by strategy and outcome (ok or error code)",
		}, []string{"strategy", "outcome"}),
		sessionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_issued_total",
			Help:      "Token pairs issued by reason (signin, refresh)",
		}, []string{"reason"}),
		signouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signouts_total",
			Help:      "Sessions revoked by users",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by rate limiter",
		}, []string{"route"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern, method and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	reg.MustRegister(
		c.authDecisions,
		c.sessionsIssued,
		c.signouts,
		c.rateLimited,
		c.requestDuration,
	)

	return c
}

func (c *Collector) RecordAuthDecision(strategy string, outcome string) {
	c.authDecisions.WithLabelValues(strategy, outcome).Inc()
}

func (c *Collector) RecordSessionIssued(reason string) {
	c.sessionsIssued.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordSignout() {
	c.signouts.Inc()
}

func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

func (c *Collector) RecordHTTPRequest(route string, method string, status int, d time.Duration) {
	c.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves metrics for Prometheus scraping
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
