// Package metrics exposes Prometheus counters and histograms for read runs
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records synthesis, chunking and run metrics. A nil *Collector
// is valid and records nothing
type Collector struct {
	synthesisRequests *prometheus.CounterVec
	synthesisDuration *prometheus.HistogramVec
	synthesisChars    prometheus.Counter

	chunksTotal    prometheus.Counter
	chunkOverflows prometheus.Counter
	ambiguities    prometheus.Counter

	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewCollector registers the collector's metrics on reg
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		synthesisRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "synthesis_requests_total",
				Help:      "Total number of chunk synthesis requests",
			},
			[]string{"status"},
		),
		synthesisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "synthesis_duration_seconds",
				Help:      "Chunk synthesis duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		synthesisChars: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_characters_total",
			Help:      "Characters sent to the speech provider",
		}),
		chunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Chunks produced by the chunker",
		}),
		chunkOverflows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_overflows_total",
			Help:      "Chunks that had to be split inside a word",
		}),
		ambiguities: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalize_ambiguities_total",
			Help:      "References left unchanged by the normalizer",
		}),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed read runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end read run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// ObserveSynthesis records one chunk request
func (c *Collector) ObserveSynthesis(chars int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	status := statusLabel(err)
	c.synthesisRequests.WithLabelValues(status).Inc()
	c.synthesisDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if err == nil {
		c.synthesisChars.Add(float64(chars))
	}
}

// ObserveChunking records the chunker's output
func (c *Collector) ObserveChunking(chunks, overflows int) {
	if c == nil {
		return
	}
	c.chunksTotal.Add(float64(chunks))
	c.chunkOverflows.Add(float64(overflows))
}

// ObserveAmbiguities records references the normalizer left alone
func (c *Collector) ObserveAmbiguities(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.ambiguities.Add(float64(n))
}

// ObserveRun records a finished run
func (c *Collector) ObserveRun(elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "complete"
	if err != nil {
		outcome = "failed"
	}
	c.runsTotal.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
