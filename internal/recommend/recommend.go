// Package recommend turns numeric optimizer output into ranked, explainable
// recommendations with confidence levels derived from model uncertainty and
// data sufficiency.
package recommend

import (
	"fmt"
	"math"
	"time"

	"github.com/pricecast/pricecast/internal/metrics"
	"github.com/pricecast/pricecast/internal/model"
	"github.com/pricecast/pricecast/internal/optimizer"
	"github.com/pricecast/pricecast/pkg/constants"
	"github.com/pricecast/pricecast/pkg/elasticity"
	"go.uber.org/zap"
)

// ConfidenceLevel is a categorical trust summary, not a calibrated
// probability.
type ConfidenceLevel string

const (
	High   ConfidenceLevel = "High"
	Medium ConfidenceLevel = "Medium"
	Low    ConfidenceLevel = "Low"
)

// ReasonCode is one structured rationale entry. Rendering is the
// presentation layer's concern.
type ReasonCode string

const (
	ReasonPriceIncrease              ReasonCode = "priceIncrease"
	ReasonPriceDecrease              ReasonCode = "priceDecrease"
	ReasonHoldPrice                  ReasonCode = "holdPrice"
	ReasonNearCapacity               ReasonCode = "nearCapacity"
	ReasonSparseDataNearPrice        ReasonCode = "sparseDataNearPrice"
	ReasonHighModelError             ReasonCode = "highModelError"
	ReasonLowModelError              ReasonCode = "lowModelError"
	ReasonElasticityConsistent       ReasonCode = "elasticityConsistent"
	ReasonElasticityCounterintuitive ReasonCode = "elasticityCounterintuitive"
	ReasonInsufficientData           ReasonCode = "insufficientData"
)

// Config holds the confidence thresholds. These are judgment calls, exposed
// as configuration rather than inline magic numbers.
type Config struct {
	// HighErrorCeiling is the relative cross-validation MAE (against the
	// mean training demand) above which confidence degrades.
	HighErrorCeiling float64
	// MinNearbyObservations is how many training observations must exist
	// near the recommended price before the model is trusted there.
	MinNearbyObservations int
	// NearbyWindowPercent is the half-width of "near", as a percentage of
	// the recommended price.
	NearbyWindowPercent float64
	// Capacity mirrors the optimizer's capacity bound, for the
	// near-capacity rationale. Zero means uncapped.
	Capacity float64
}

// DefaultConfig returns the documented threshold defaults.
func DefaultConfig() Config {
	return Config{
		HighErrorCeiling:      constants.DefaultHighErrorCeiling,
		MinNearbyObservations: constants.DefaultMinNearbyObservations,
		NearbyWindowPercent:   constants.DefaultNearbyWindowPercent,
	}
}

// Recommendation is the caller-facing result for one day. Owned by the
// caller once returned; the core holds no state beyond the trained model.
type Recommendation struct {
	Date                        time.Time
	CurrentPrice                float64
	RecommendedPrice            float64
	ExpectedRevenueDeltaPercent float64
	Confidence                  ConfidenceLevel
	Rationale                   []ReasonCode
}

// Synthesize converts optimizer results into recommendations, preserving
// input day order. pred re-evaluates demand at the current price (usually the
// cached predictor); trained supplies cross-validation error and training
// price density. elast is an optional diagnostic and may be nil.
func Synthesize(results []optimizer.Result, pred model.Predictor, trained *model.TrainedModel, elast *elasticity.Result, cfg Config, logger *zap.Logger) ([]Recommendation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if trained == nil {
		return nil, &optimizer.ModelUnavailableError{}
	}
	if pred == nil {
		pred = trained
	}
	if cfg.HighErrorCeiling <= 0 {
		cfg.HighErrorCeiling = constants.DefaultHighErrorCeiling
	}
	if cfg.MinNearbyObservations <= 0 {
		cfg.MinNearbyObservations = constants.DefaultMinNearbyObservations
	}
	if cfg.NearbyWindowPercent <= 0 {
		cfg.NearbyWindowPercent = constants.DefaultNearbyWindowPercent
	}

	recs := make([]Recommendation, 0, len(results))
	for _, res := range results {
		rec, err := synthesizeDay(res, pred, trained, elast, cfg)
		if err != nil {
			return nil, err
		}
		metrics.RecommendationsTotal.WithLabelValues(string(rec.Confidence)).Inc()
		recs = append(recs, rec)
	}
	logger.Debug("synthesized recommendations",
		zap.String("op", "recommend.Synthesize"),
		zap.Int("days", len(recs)),
	)
	return recs, nil
}

func synthesizeDay(res optimizer.Result, pred model.Predictor, trained *model.TrainedModel, elast *elasticity.Result, cfg Config) (Recommendation, error) {
	rec := Recommendation{
		Date:         res.Date,
		CurrentPrice: res.CurrentPrice,
	}

	if !res.Feasible() {
		// Never silently drop a day: report it with an explicit marker.
		rec.RecommendedPrice = res.CurrentPrice
		rec.Confidence = Low
		rec.Rationale = []ReasonCode{ReasonInsufficientData}
		return rec, nil
	}

	rec.RecommendedPrice = res.OptimalPrice

	// Re-invoke the predictor at the current price; it is not assumed to be
	// a grid-evaluated point.
	currentDemand, err := pred.Predict(res.Features.WithPrice(res.CurrentPrice))
	if err != nil {
		return Recommendation{}, fmt.Errorf("re-evaluating current price for %s: %w", res.Date.Format(constants.DateTimeLayout), err)
	}
	currentRevenue := res.CurrentPrice * currentDemand
	if currentRevenue > 0 {
		rec.ExpectedRevenueDeltaPercent = (res.PredictedRevenueAtOptimal - currentRevenue) / currentRevenue * 100
	}

	level := High
	degrade := func() {
		switch level {
		case High:
			level = Medium
		case Medium:
			level = Low
		}
	}

	// Direction of the move.
	switch {
	case res.OptimalPrice > res.CurrentPrice:
		rec.Rationale = append(rec.Rationale, ReasonPriceIncrease)
	case res.OptimalPrice < res.CurrentPrice:
		rec.Rationale = append(rec.Rationale, ReasonPriceDecrease)
	default:
		rec.Rationale = append(rec.Rationale, ReasonHoldPrice)
	}

	// Cross-validation error relative to the mean training demand.
	relErr := math.Inf(1)
	if trained.TargetMean() > 0 {
		relErr = trained.CV().MAE / trained.TargetMean()
	}
	if relErr > cfg.HighErrorCeiling {
		degrade()
		rec.Rationale = append(rec.Rationale, ReasonHighModelError)
		if relErr > 2*cfg.HighErrorCeiling {
			degrade()
		}
	} else {
		rec.Rationale = append(rec.Rationale, ReasonLowModelError)
	}

	// Extrapolation penalty: training density near the recommendation.
	window := res.OptimalPrice * cfg.NearbyWindowPercent / 100
	nearby := trained.TrainingPricesNear(res.OptimalPrice-window, res.OptimalPrice+window)
	if nearby < cfg.MinNearbyObservations {
		degrade()
		rec.Rationale = append(rec.Rationale, ReasonSparseDataNearPrice)
	}

	// Elasticity sign versus economic expectation.
	if elast != nil && !elast.LowConfidence {
		if elast.Counterintuitive {
			degrade()
			rec.Rationale = append(rec.Rationale, ReasonElasticityCounterintuitive)
		} else {
			rec.Rationale = append(rec.Rationale, ReasonElasticityConsistent)
		}
	}

	if cfg.Capacity > 0 && res.PredictedDemandAtOptimal >= 0.9*cfg.Capacity {
		rec.Rationale = append(rec.Rationale, ReasonNearCapacity)
	}

	rec.Confidence = level
	return rec, nil
}
