// Package metrics exposes the broker's prometheus counters: request and
// error counts by label, connection gauge, and bytes-appended counter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder wraps the counters/gauges the broker updates on the request
// path. A nil *Recorder is safe to call methods on (every method
// no-ops), so wiring metrics is optional throughout the broker package.
type Recorder struct {
	requestsTotal     *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	activeConnections prometheus.Gauge
	appendBytesTotal  prometheus.Counter
}

// NewRecorder registers the broker's metrics on a fresh registry and
// returns both the recorder and an http.Handler serving them.
func NewRecorder() (*Recorder, http.Handler) {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gobroker_requests_total",
			Help: "Total requests handled, by API key.",
		}, []string{"api_key"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gobroker_errors_total",
			Help: "Total error responses returned, by error code.",
		}, []string{"code"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gobroker_active_connections",
			Help: "Number of currently open client connections.",
		}),
		appendBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gobroker_append_bytes_total",
			Help: "Total bytes appended to partition logs.",
		}),
	}
	reg.MustRegister(r.requestsTotal, r.errorsTotal, r.activeConnections, r.appendBytesTotal)
	return r, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (r *Recorder) ObserveRequest(apiKey string) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(apiKey).Inc()
}

func (r *Recorder) ObserveError(code int) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(errCodeLabel(code)).Inc()
}

func (r *Recorder) ConnectionOpened() {
	if r == nil {
		return
	}
	r.activeConnections.Inc()
}

func (r *Recorder) ConnectionClosed() {
	if r == nil {
		return
	}
	r.activeConnections.Dec()
}

func (r *Recorder) AppendBytes(n int) {
	if r == nil {
		return
	}
	r.appendBytesTotal.Add(float64(n))
}

func errCodeLabel(code int) string {
	switch code {
	case 0:
		return "0"
	case 10:
		return "10"
	case 11:
		return "11"
	case 20:
		return "20"
	case 21:
		return "21"
	default:
		return "-1"
	}
}
