package predcache

import (
	"errors"
	"testing"

	"github.com/pricecast/pricecast/pkg/dataset"
)

type countingPredictor struct {
	calls int
}

func (p *countingPredictor) Predict(fv dataset.FeatureVector) (float64, error) {
	if len(fv) != 2 {
		return 0, &dataset.SchemaMismatchError{}
	}
	p.calls++
	return fv["price"] * 2, nil
}

func (p *countingPredictor) Schema() []string {
	return []string{"dow", "price"}
}

func TestCachingPredictorMemoizes(t *testing.T) {
	inner := &countingPredictor{}
	cached, err := New(inner, 16)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	fv := dataset.FeatureVector{"price": 100, "dow": 3}
	first, err := cached.Predict(fv)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	second, err := cached.Predict(fv)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if first != second {
		t.Errorf("cached prediction differs: %v vs %v", first, second)
	}
	if inner.calls != 1 {
		t.Errorf("inner predictor called %d times, want 1", inner.calls)
	}

	if _, err := cached.Predict(dataset.FeatureVector{"price": 101, "dow": 3}); err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner predictor called %d times, want 2 after distinct input", inner.calls)
	}
	if cached.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", cached.Len())
	}
}

func TestCachingPredictorPassesThroughErrors(t *testing.T) {
	inner := &countingPredictor{}
	cached, err := New(inner, 16)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = cached.Predict(dataset.FeatureVector{"price": 100})
	var mismatch *dataset.SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SchemaMismatchError, got %v", err)
	}
	if cached.Len() != 0 {
		t.Error("errors must not be cached")
	}
}
