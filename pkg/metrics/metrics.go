package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the relay's collectors on a private registry so tests can
// build as many as they like.
type Recorder struct {
	registry *prometheus.Registry

	transfers    *prometheus.CounterVec
	feeQuote     *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccip_relay",
			Name:      "transfers_total",
			Help:      "Transfers reaching a terminal status, by route and status.",
		}, []string{"route", "status"}),
		feeQuote: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ccip_relay",
			Name:      "fee_quote_seconds",
			Help:      "Latency of CCIP fee quotes by source family.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"family", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccip_relay",
			Name:      "http_requests_total",
			Help:      "Served HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ccip_relay",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	reg.MustRegister(
		r.transfers,
		r.feeQuote,
		r.httpRequests,
		r.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveTransfer counts one terminal transfer.
func (r *Recorder) ObserveTransfer(route, status string) {
	if r == nil {
		return
	}
	r.transfers.WithLabelValues(route, status).Inc()
}

// ObserveFeeQuote records how long a fee quote took.
func (r *Recorder) ObserveFeeQuote(family string, d time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.feeQuote.WithLabelValues(family, outcome).Observe(d.Seconds())
}

func (r *Recorder) ObserveHTTP(method, path string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry is exposed for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
