package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sravyatammana-ab/kyc-analyzer/constants"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/ocr"
)

// Metrics owns a private registry so tests and multiple servers never collide
// on the global default.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	ocrAttempts *prometheus.CounterVec
	documents   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method", "route"}),
		ocrAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_ocr_attempts_total",
			Help: "OCR recognition attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_documents_classified_total",
			Help: "Analyzed documents by classified type.",
		}, []string{"document_type"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveDocument(t constants.DocumentType) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(string(t)).Inc()
}

// OCRAttemptHook counts every recognition call the engine makes.
func (m *Metrics) OCRAttemptHook() ocr.AttemptHook {
	return func(strategy string, chars int, err error) {
		if m == nil {
			return
		}
		outcome := "text"
		switch {
		case err != nil:
			outcome = "error"
		case chars == 0:
			outcome = "empty"
		}
		m.ocrAttempts.WithLabelValues(strategy, outcome).Inc()
	}
}
