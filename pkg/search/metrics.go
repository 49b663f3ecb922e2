// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package search

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSearch holds Prometheus metrics for the retrieval engine.
type metricsSearch struct {
	once sync.Once

	searches        prometheus.Counter
	filenameLookups prometheus.Counter
	degraded        prometheus.Counter
	resultsReturned prometheus.Counter

	searchDuration prometheus.Histogram
}

var searchMetrics metricsSearch

func (m *metricsSearch) init() {
	m.once.Do(func() {
		m.searches = prometheus.NewCounter(prometheus.CounterOpts{Name: "cra_search_total", Help: "Retrieval engine searches executed"})
		m.filenameLookups = prometheus.NewCounter(prometheus.CounterOpts{Name: "cra_search_filename_lookups_total", Help: "Searches where the filename heuristic triggered a second lookup"})
		m.degraded = prometheus.NewCounter(prometheus.CounterOpts{Name: "cra_search_degraded_total", Help: "Search branches that failed and degraded to empty results"})
		m.resultsReturned = prometheus.NewCounter(prometheus.CounterOpts{Name: "cra_search_results_total", Help: "Total results returned across all searches"})

		m.searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cra_search_seconds",
			Help:    "Duration of a full hybrid search",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})

		prometheus.MustRegister(
			m.searches,
			m.filenameLookups,
			m.degraded,
			m.resultsReturned,
			m.searchDuration,
		)
	})
}
