package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/pricecast/pricecast/internal/config"
	"github.com/pricecast/pricecast/internal/optimizer"
	"github.com/pricecast/pricecast/internal/recommend"
	"github.com/pricecast/pricecast/pkg/dataset"
	"github.com/pricecast/pricecast/pkg/testutil"
	"go.uber.org/zap"
)

func testConfiguration() *config.Configuration {
	conf := &config.Configuration{
		Pricing: config.PricingConfig{
			MinPrice:    50,
			MaxPrice:    300,
			Step:        1,
			Objective:   "revenue",
			HorizonDays: 7,
		},
	}
	conf.ApplyDefaults()
	return conf
}

func TestEngineEndToEnd(t *testing.T) {
	ds := testutil.GenerateHistory(testutil.DefaultHistoryOptions())
	eng, err := New(zap.NewNop(), testConfiguration())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	artifacts, err := eng.Train(ds)
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}
	if artifacts.Model.CV().RSquared <= 0.5 {
		t.Errorf("cross-validation R squared = %v, want > 0.5 on the synthetic signal", artifacts.Model.CV().RSquared)
	}
	if artifacts.Decomposition.Period != 7 {
		t.Errorf("inferred period = %d, want 7 for weekly seasonality", artifacts.Decomposition.Period)
	}
	if artifacts.Elasticity == nil {
		t.Fatal("expected an elasticity estimate")
	}
	if artifacts.Elasticity.LowConfidence {
		t.Error("did not expect low confidence elasticity on well-spread prices")
	}
	if math.Abs(artifacts.Elasticity.Elasticity-(-1.2)) > 0.25 {
		t.Errorf("elasticity = %v, want approximately -1.2", artifacts.Elasticity.Elasticity)
	}

	recs, err := eng.Recommend(context.Background(), ds, artifacts.Model, artifacts.Elasticity)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if len(recs) != 7 {
		t.Fatalf("got %d recommendations, want 7", len(recs))
	}

	lastDate := ds.Records[len(ds.Records)-1].Date
	currentPrice := ds.Records[len(ds.Records)-1].Price
	for i, rec := range recs {
		wantDate := lastDate.AddDate(0, 0, i+1)
		if !rec.Date.Equal(wantDate) {
			t.Errorf("recommendation %d date = %v, want %v", i, rec.Date, wantDate)
		}
		if rec.RecommendedPrice <= 50 || rec.RecommendedPrice >= 300 {
			t.Errorf("recommendation %d price %v not strictly inside bounds (50, 300)", i, rec.RecommendedPrice)
		}
		if rec.CurrentPrice != currentPrice {
			t.Errorf("recommendation %d current price = %v, want %v", i, rec.CurrentPrice, currentPrice)
		}
		if len(rec.Rationale) == 0 {
			t.Errorf("recommendation %d carries no rationale", i)
		}
	}
}

func TestEngineDeltaConsistency(t *testing.T) {
	ds := testutil.GenerateHistory(testutil.DefaultHistoryOptions())
	eng, err := New(zap.NewNop(), testConfiguration())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	artifacts, err := eng.Train(ds)
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}
	recs, err := eng.Recommend(context.Background(), ds, artifacts.Model, artifacts.Elasticity)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}

	// Rebuild the same horizon features and verify the delta was computed
	// against the re-evaluated current-price revenue.
	decomp := artifacts.Decomposition
	horizon := buildHorizonFeatures(ds, decomp, 7)
	for i, rec := range recs {
		currentDemand, err := artifacts.Model.Predict(horizon[i].Features.WithPrice(rec.CurrentPrice))
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
		optimalDemand, err := artifacts.Model.Predict(horizon[i].Features.WithPrice(rec.RecommendedPrice))
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
		currentRevenue := rec.CurrentPrice * currentDemand
		optimalRevenue := rec.RecommendedPrice * optimalDemand
		want := (optimalRevenue - currentRevenue) / currentRevenue * 100
		if math.Abs(rec.ExpectedRevenueDeltaPercent-want) > 1e-6 {
			t.Errorf("day %d delta = %v, want %v", i, rec.ExpectedRevenueDeltaPercent, want)
		}
	}
}

func TestEngineCapacityScenario(t *testing.T) {
	opts := testutil.DefaultHistoryOptions()
	ds := testutil.GenerateHistory(opts)

	conf := testConfiguration()
	conf.Pricing.Capacity = 70
	eng, err := New(zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	artifacts, err := eng.Train(ds)
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}
	recs, err := eng.Recommend(context.Background(), ds, artifacts.Model, artifacts.Elasticity)
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}

	// Every recommended price must keep predicted demand within capacity.
	decomp := artifacts.Decomposition
	horizon := buildHorizonFeatures(ds, decomp, 7)
	for i, rec := range recs {
		if rec.Confidence == recommend.Low && hasReason(rec, recommend.ReasonInsufficientData) {
			continue // day marked infeasible, no price to check
		}
		demand, err := artifacts.Model.Predict(horizon[i].Features.WithPrice(rec.RecommendedPrice))
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
		if demand > 70 {
			t.Errorf("day %d recommended price %v predicts demand %v above capacity 70", i, rec.RecommendedPrice, demand)
		}
	}
}

func TestEngineTrainInsufficientHistory(t *testing.T) {
	opts := testutil.DefaultHistoryOptions()
	opts.Days = 10
	ds := testutil.GenerateHistory(opts)
	eng, err := New(zap.NewNop(), testConfiguration())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = eng.Train(ds)
	var insufficient *dataset.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestEngineRecommendRequiresModel(t *testing.T) {
	ds := testutil.GenerateHistory(testutil.DefaultHistoryOptions())
	eng, err := New(zap.NewNop(), testConfiguration())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = eng.Recommend(context.Background(), ds, nil, nil)
	var unavailable *optimizer.ModelUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ModelUnavailableError, got %v", err)
	}
}

func TestBuildTrainingFeaturesSkipsFirstPeriod(t *testing.T) {
	ds := testutil.GenerateHistory(testutil.DefaultHistoryOptions())
	eng, err := New(zap.NewNop(), testConfiguration())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	artifacts, err := eng.Train(ds)
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}
	if got, want := artifacts.Model.Rows(), len(ds.Records)-artifacts.Decomposition.Period; got != want {
		t.Errorf("training rows = %d, want %d (first period skipped for lags)", got, want)
	}
}

func hasReason(rec recommend.Recommendation, code recommend.ReasonCode) bool {
	for _, r := range rec.Rationale {
		if r == code {
			return true
		}
	}
	return false
}
