// Package metrics exposes Prometheus collectors for the pricing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrainingRunsTotal counts model training runs by outcome.
	TrainingRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricecast_training_runs_total",
		Help: "Number of demand model training runs by outcome.",
	}, []string{"outcome"})

	// CrossValidationMAE records the held-out mean absolute error of the
	// most recent training run.
	CrossValidationMAE = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricecast_cross_validation_mae",
		Help: "Held-out mean absolute error from the latest training run.",
	})

	// CandidateEvaluationsTotal counts predictor invocations made by the
	// price optimizer.
	CandidateEvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricecast_optimizer_candidate_evaluations_total",
		Help: "Number of candidate price evaluations performed by the optimizer.",
	})

	// OptimizationDurationSeconds observes wall time per optimization run.
	OptimizationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricecast_optimization_duration_seconds",
		Help:    "Duration of full-horizon optimization runs.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// RecommendationsTotal counts synthesized recommendations by confidence
	// level.
	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricecast_recommendations_total",
		Help: "Number of recommendations produced by confidence level.",
	}, []string{"confidence"})

	// PredictionCacheHitsTotal and PredictionCacheMissesTotal track the
	// LRU prediction memoizer.
	PredictionCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricecast_prediction_cache_hits_total",
		Help: "Number of prediction cache hits.",
	})
	PredictionCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricecast_prediction_cache_misses_total",
		Help: "Number of prediction cache misses.",
	})
)
