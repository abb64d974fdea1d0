package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Recorder owns the dashboard collectors. A nil *Recorder is valid and drops
// every observation, which keeps services usable without a registry.
type Recorder struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimitHits  *prometheus.CounterVec
	deployments    *prometheus.CounterVec
	advice         *prometheus.CounterVec
}

// New registers the collectors on reg. Collectors already present on reg are
// reused instead of failing.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reacthost",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reacthost",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reacthost",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route"}),
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reacthost",
			Name:      "deployments_total",
			Help:      "Simulated deployments by outcome",
		}, []string{"outcome"}),
		advice: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reacthost",
			Name:      "advice_requests_total",
			Help:      "Advice queries by outcome",
		}, []string{"outcome"}),
	}

	r.requestTotal = register(reg, r.requestTotal)
	r.requestLatency = register(reg, r.requestLatency)
	r.rateLimitHits = register(reg, r.rateLimitHits)
	r.deployments = register(reg, r.deployments)
	r.advice = register(reg, r.advice)
	return r
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (r *Recorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	r.requestTotal.With(labels).Inc()
	r.requestLatency.With(labels).Observe(duration.Seconds())
}

func (r *Recorder) RateLimited(route string) {
	if r == nil {
		return
	}
	r.rateLimitHits.WithLabelValues(route).Inc()
}

// Deployment counts one provisioning run ending in outcome
// (completed, cancelled, failed).
func (r *Recorder) Deployment(outcome string) {
	if r == nil {
		return
	}
	r.deployments.WithLabelValues(outcome).Inc()
}

// Advice counts one advice query ending in outcome (ok, empty, offline).
func (r *Recorder) Advice(outcome string) {
	if r == nil {
		return
	}
	r.advice.WithLabelValues(outcome).Inc()
}
