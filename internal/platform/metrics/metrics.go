package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the download service.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	errorsTotal        prometheus.Counter
	infoFetchesTotal   *prometheus.CounterVec
	downloadsTotal     *prometheus.CounterVec
	downloadBytesTotal prometheus.Counter
	activeDownloads    prometheus.Gauge
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airstream_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airstream_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	infoFetchesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "airstream_info_fetches_total",
		Help: "Video information requests by outcome",
	}, []string{"outcome"})
	downloadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "airstream_downloads_total",
		Help: "Download requests by outcome",
	}, []string{"outcome"})
	downloadBytesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "airstream_download_bytes_total",
		Help: "Bytes relayed to clients by the download proxy",
	})
	activeDownloads := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "airstream_active_downloads",
		Help: "Number of downloads currently being relayed",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		infoFetchesTotal,
		downloadsTotal,
		downloadBytesTotal,
		activeDownloads,
	)

	return &Metrics{
		registry:           registry,
		requestsTotal:      requestsTotal,
		errorsTotal:        errorsTotal,
		infoFetchesTotal:   infoFetchesTotal,
		downloadsTotal:     downloadsTotal,
		downloadBytesTotal: downloadBytesTotal,
		activeDownloads:    activeDownloads,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncInfoFetches counts one info request with the given outcome.
func (m *Metrics) IncInfoFetches(outcome string) {
	m.infoFetchesTotal.WithLabelValues(outcome).Inc()
}

// IncDownloads counts one download request with the given outcome.
func (m *Metrics) IncDownloads(outcome string) {
	m.downloadsTotal.WithLabelValues(outcome).Inc()
}

// AddDownloadBytes adds n relayed bytes.
func (m *Metrics) AddDownloadBytes(n int64) {
	if n > 0 {
		m.downloadBytesTotal.Add(float64(n))
	}
}

// IncActiveDownloads marks a relay as started.
func (m *Metrics) IncActiveDownloads() {
	m.activeDownloads.Inc()
}

// DecActiveDownloads marks a relay as finished.
func (m *Metrics) DecActiveDownloads() {
	m.activeDownloads.Dec()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
