package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rankRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vegvisir_rank_requests_total",
		Help: "Number of successful ranking requests.",
	})
	simulationTrials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vegvisir_simulation_trials_total",
		Help: "Total Monte Carlo trials executed across simulation runs.",
	})
	simulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vegvisir_simulation_duration_seconds",
		Help:    "Wall-clock duration of simulation runs.",
		Buckets: prometheus.DefBuckets,
	})
	catalogReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vegvisir_catalog_reloads_total",
		Help: "Number of successful catalog reloads.",
	})
)
