package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obiente/translate/gosegment/internal/segment"
)

// Metrics holds the Prometheus collectors for segmentation traffic.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	ChunksTotal      prometheus.Counter
	AudioSeconds     prometheus.Counter
	SegmentSeconds   prometheus.Histogram
	ChunkSeconds     prometheus.Histogram
	ActiveWSSessions prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosegment_segment_requests_total",
				Help: "Segmentation requests by entry point",
			},
			[]string{"path"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosegment_errors_total",
				Help: "Failed requests by entry point and reason",
			},
			[]string{"path", "reason"},
		),
		ChunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosegment_chunks_total",
			Help: "Chunks produced",
		}),
		AudioSeconds: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosegment_audio_seconds_total",
			Help: "Seconds of audio segmented",
		}),
		SegmentSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gosegment_segment_duration_seconds",
			Help:    "Wall time spent segmenting one track",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		ChunkSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gosegment_chunk_length_seconds",
			Help:    "Length of produced chunks",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		}),
		ActiveWSSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosegment_ws_sessions",
			Help: "Open websocket segmentation sessions",
		}),
		gatherer: g,
	}
}

// ObserveSegmentation records one completed Segment call.
func (m *Metrics) ObserveSegmentation(path string, durationMs int64, chunks []segment.AudioChunk, took time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(path).Inc()
	m.AudioSeconds.Add(float64(durationMs) / 1000)
	m.ChunksTotal.Add(float64(len(chunks)))
	m.SegmentSeconds.Observe(took.Seconds())
	for _, c := range chunks {
		m.ChunkSeconds.Observe(c.Duration().Seconds())
	}
}

func (m *Metrics) ObserveError(path, reason string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(path, reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
