package modelstore

import (
	"path/filepath"
	"testing"

	"github.com/pricecast/pricecast/internal/model"
	"github.com/pricecast/pricecast/pkg/dataset"
)

func trainSmallModel(t *testing.T) *model.TrainedModel {
	t.Helper()
	var vectors []dataset.FeatureVector
	var targets []float64
	for i := 0; i < 40; i++ {
		price := 100.0 + float64(i)
		vectors = append(vectors, dataset.FeatureVector{"price": price})
		targets = append(targets, 150-0.5*price)
	}
	m, err := model.Train(vectors, targets, 4, model.DefaultOptions())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := trainSmallModel(t)
	path := filepath.Join(t.TempDir(), "models", "demand.json")

	if err := Save(path, m); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.ID() != m.ID() {
		t.Errorf("loaded ID = %s, want %s", loaded.ID(), m.ID())
	}
	fv := dataset.FeatureVector{"price": 120}
	orig, _ := m.Predict(fv)
	back, _ := loaded.Predict(fv)
	if orig != back {
		t.Errorf("loaded model predicts %v, original %v", back, orig)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing model file, got nil")
	}
}

func TestSaveNilModel(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "m.json"), nil); err == nil {
		t.Error("expected error for nil model, got nil")
	}
}
