package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports run counters to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	documents     *prometheus.CounterVec
	emitted       prometheus.Counter
	mappingErrors prometheus.Counter
	duration      prometheus.Histogram
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		documents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docmap_documents_total",
				Help: "Input documents processed, by outcome",
			},
			[]string{"outcome"},
		),
		emitted: f.NewCounter(prometheus.CounterOpts{
			Name: "docmap_documents_emitted_total",
			Help: "Output documents written to the collector",
		}),
		mappingErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "docmap_mapping_errors_total",
			Help: "Mapping rules skipped because the payload shape did not fit",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docmap_document_duration_seconds",
			Help:    "Time spent processing one input document",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Observe records one document's result.
func (m *Metrics) Observe(res Result, took time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(res.Outcome.String()).Inc()
	m.emitted.Add(float64(res.Emitted))
	m.mappingErrors.Add(float64(len(res.Skipped)))
	m.duration.Observe(took.Seconds())
}
