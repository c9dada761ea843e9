// Package engine orchestrates the pricing core: it derives engineered
// features from the historical dataset, trains the demand model, runs the
// price optimizer over a forward horizon, and synthesizes recommendations.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pricecast/pricecast/internal/config"
	"github.com/pricecast/pricecast/internal/metrics"
	"github.com/pricecast/pricecast/internal/model"
	"github.com/pricecast/pricecast/internal/optimizer"
	"github.com/pricecast/pricecast/internal/predcache"
	"github.com/pricecast/pricecast/internal/recommend"
	"github.com/pricecast/pricecast/pkg/dataset"
	"github.com/pricecast/pricecast/pkg/elasticity"
	"github.com/pricecast/pricecast/pkg/timeseries"
	"go.uber.org/zap"
)

// Engine ties the components together under one configuration. It holds no
// mutable state; the trained model is an explicit handle owned by the caller.
type Engine struct {
	logger *zap.Logger
	conf   *config.Configuration
}

// New constructs an Engine for the provided configuration.
func New(logger *zap.Logger, conf *config.Configuration) (*Engine, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &Engine{logger: logger, conf: conf}, nil
}

// decompose runs the seasonal decomposition with the configured hint folded
// into period inference as an extra candidate, never as a fixed period.
func (e *Engine) decompose(series []float64) (*timeseries.DecompositionResult, error) {
	period := 0
	if hint := e.conf.Decomposition.PeriodHint; hint > 0 {
		period = timeseries.InferPeriod(series, hint)
	}
	return timeseries.Decompose(series, period, timeseries.Options{
		MultiplicativeCVThreshold: e.conf.Decomposition.MultiplicativeCVThreshold,
	})
}

// TrainingArtifacts bundles the outputs of one training run. The model is
// immutable; retraining produces a fresh artifact set and never mutates a
// previous one.
type TrainingArtifacts struct {
	RunID         string
	Model         *model.TrainedModel
	Decomposition *timeseries.DecompositionResult
	Elasticity    *elasticity.Result
}

// Train validates the dataset, decomposes the demand series, estimates the
// advisory elasticity, and fits the demand model with cross-validation.
func (e *Engine) Train(ds *dataset.Dataset) (*TrainingArtifacts, error) {
	runID := uuid.NewString()
	if err := ds.Validate(); err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	decomp, err := e.decompose(ds.Demands())
	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("decomposition_failed").Inc()
		return nil, fmt.Errorf("seasonal decomposition failed: %w", err)
	}
	e.logger.Info("decomposed demand series",
		zap.String("op", "engine.Train"),
		zap.String("runID", runID),
		zap.Int("period", decomp.Period),
		zap.String("mode", string(decomp.Mode)),
		zap.Float64("seasonalStrength", decomp.SeasonalStrength),
	)

	// Elasticity is advisory; estimation problems degrade, they do not stop
	// the run.
	elast, err := elasticity.Estimate(ds.Records, elasticity.Options{
		MinDistinctPrices:   e.conf.Elasticity.MinDistinctPrices,
		MinLogPriceVariance: e.conf.Elasticity.MinLogPriceVariance,
		DayOfWeekEffects:    e.conf.Elasticity.DayOfWeekEffects,
	})
	if err != nil {
		e.logger.Warn("elasticity estimation failed; continuing without it",
			zap.String("op", "engine.Train"),
			zap.String("runID", runID),
			zap.Error(err),
		)
		elast = nil
	} else {
		if elast.Counterintuitive {
			e.logger.Warn("fitted elasticity is non-negative; demand does not appear to fall with price",
				zap.String("op", "engine.Train"),
				zap.String("runID", runID),
				zap.Float64("elasticity", elast.Elasticity),
			)
		}
		e.logger.Info("estimated price elasticity",
			zap.String("op", "engine.Train"),
			zap.String("runID", runID),
			zap.Float64("elasticity", elast.Elasticity),
			zap.Float64("rSquared", elast.RSquared),
			zap.Bool("lowConfidence", elast.LowConfidence),
		)
	}

	vectors, targets := buildTrainingFeatures(ds, decomp)
	trained, err := model.Train(vectors, targets, e.conf.Model.Folds, model.Options{
		Lambda: e.conf.Model.Lambda,
		Seed:   e.conf.Model.Seed,
	})
	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("training_failed").Inc()
		return nil, fmt.Errorf("model training failed: %w", err)
	}
	metrics.TrainingRunsTotal.WithLabelValues("success").Inc()
	metrics.CrossValidationMAE.Set(trained.CV().MAE)

	e.logger.Info("trained demand model",
		zap.String("op", "engine.Train"),
		zap.String("runID", runID),
		zap.String("modelID", trained.ID()),
		zap.Int("rows", trained.Rows()),
		zap.Float64("cvMAE", trained.CV().MAE),
		zap.Float64("cvRSquared", trained.CV().RSquared),
	)

	return &TrainingArtifacts{
		RunID:         runID,
		Model:         trained,
		Decomposition: decomp,
		Elasticity:    elast,
	}, nil
}

// Recommend optimizes prices for the configured forward horizon against the
// supplied immutable model and returns ordered recommendations. The
// decomposition is recomputed from the dataset: it is derived state, never a
// source of truth.
func (e *Engine) Recommend(ctx context.Context, ds *dataset.Dataset, trained *model.TrainedModel, elast *elasticity.Result) ([]recommend.Recommendation, error) {
	if trained == nil {
		return nil, &optimizer.ModelUnavailableError{}
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	decomp, err := e.decompose(ds.Demands())
	if err != nil {
		return nil, fmt.Errorf("seasonal decomposition failed: %w", err)
	}

	cached, err := predcache.New(trained, e.conf.Model.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction cache: %w", err)
	}

	horizon := buildHorizonFeatures(ds, decomp, e.conf.Pricing.HorizonDays)
	days := make([]optimizer.DayFeatures, len(horizon))
	for i, d := range horizon {
		days[i] = optimizer.DayFeatures{Date: d.Date, Features: d.Features, CurrentPrice: d.CurrentPrice}
	}

	results, err := optimizer.OptimizePeriod(ctx, e.logger, days, cached, optimizer.Options{
		MinPrice:       e.conf.Pricing.MinPrice,
		MaxPrice:       e.conf.Pricing.MaxPrice,
		Step:           e.conf.Pricing.Step,
		Points:         e.conf.Pricing.Points,
		Objective:      optimizer.Objective(e.conf.Pricing.Objective),
		Capacity:       e.conf.Pricing.Capacity,
		TieEpsilon:     e.conf.Pricing.TieEpsilon,
		AssumeUnimodal: e.conf.Pricing.AssumeUnimodal,
		Workers:        e.conf.Pricing.Workers,
	})
	if err != nil {
		return nil, err
	}

	recs, err := recommend.Synthesize(results, cached, trained, elast, recommend.Config{
		HighErrorCeiling:      e.conf.Confidence.HighErrorCeiling,
		MinNearbyObservations: e.conf.Confidence.MinNearbyObservations,
		NearbyWindowPercent:   e.conf.Confidence.NearbyWindowPercent,
		Capacity:              e.conf.Pricing.Capacity,
	}, e.logger)
	if err != nil {
		return nil, err
	}

	e.logger.Info("produced recommendations",
		zap.String("op", "engine.Recommend"),
		zap.String("modelID", trained.ID()),
		zap.Int("days", len(recs)),
	)
	return recs, nil
}
