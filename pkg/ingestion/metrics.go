// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion pipeline.
type metricsIngestion struct {
	once sync.Once

	ingestions     prometheus.Counter
	failures       prometheus.Counter
	filesProcessed prometheus.Counter
	chunksIndexed  prometheus.Counter

	ingestDuration prometheus.Histogram
}

var ingestMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.ingestions = prometheus.NewCounter(prometheus.CounterOpts{Name: "cra_ingest_total", Help: "Ingestion runs started"})
		m.failures = prometheus.NewCounter(prometheus.CounterOpts{Name: "cra_ingest_failures_total", Help: "Ingestion runs that ended in an error"})
		m.filesProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "cra_ingest_files_total", Help: "Source files that produced chunks"})
		m.chunksIndexed = prometheus.NewCounter(prometheus.CounterOpts{Name: "cra_ingest_chunks_total", Help: "Chunk records written to the index"})

		m.ingestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cra_ingest_seconds",
			Help:    "Duration of a full ingestion run, acquisition included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		})

		prometheus.MustRegister(
			m.ingestions,
			m.failures,
			m.filesProcessed,
			m.chunksIndexed,
			m.ingestDuration,
		)
	})
}
