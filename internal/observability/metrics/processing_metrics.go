package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProcessingMetrics instruments the document extraction pipeline.
type ProcessingMetrics struct {
	filesProcessed  *prometheus.CounterVec
	parseFailures   *prometheus.CounterVec
	extractDuration *prometheus.HistogramVec
	batchesTotal    prometheus.Counter
	duplicatesSeen  prometheus.Counter
}

var (
	processingOnce sync.Once
	processing     *ProcessingMetrics
)

// Processing returns the singleton processing metrics, registering on first use.
func Processing() *ProcessingMetrics {
	processingOnce.Do(func() {
		processing = &ProcessingMetrics{
			filesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "courierpay_files_processed_total",
				Help: "Files processed by document type and outcome.",
			}, []string{"type", "outcome"}),
			parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "courierpay_parse_failures_total",
				Help: "Per-file parse failures by reason class.",
			}, []string{"reason"}),
			extractDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "courierpay_extraction_duration_seconds",
				Help:    "Per-file text extraction and parse latency.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"type"}),
			batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "courierpay_batches_total",
				Help: "Batches submitted for processing.",
			}),
			duplicatesSeen: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "courierpay_duplicate_submissions_total",
				Help: "Submissions whose fingerprint matched a prior analysis.",
			}),
		}
		prometheus.MustRegister(
			processing.filesProcessed,
			processing.parseFailures,
			processing.extractDuration,
			processing.batchesTotal,
			processing.duplicatesSeen,
		)
	})
	return processing
}

func (m *ProcessingMetrics) IncFileProcessed(docType, outcome string) {
	if m == nil {
		return
	}
	m.filesProcessed.WithLabelValues(docType, outcome).Inc()
}

func (m *ProcessingMetrics) IncParseFailure(reason string) {
	if m == nil {
		return
	}
	m.parseFailures.WithLabelValues(reason).Inc()
}

func (m *ProcessingMetrics) ObserveExtraction(docType string, d time.Duration) {
	if m == nil {
		return
	}
	m.extractDuration.WithLabelValues(docType).Observe(d.Seconds())
}

func (m *ProcessingMetrics) IncBatch() {
	if m == nil {
		return
	}
	m.batchesTotal.Inc()
}

func (m *ProcessingMetrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.duplicatesSeen.Inc()
}
