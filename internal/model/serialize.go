package model

import (
	"encoding/json"
	"fmt"
)

// blobVersion tags the serialized model format. Unknown versions are
// rejected on load rather than guessed at.
const blobVersion = 1

type modelBlob struct {
	Version      int       `json:"version"`
	ID           string    `json:"id"`
	Schema       []string  `json:"schema"`
	Coef         []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	FeatureMeans []float64 `json:"featureMeans"`
	FeatureStds  []float64 `json:"featureStds"`
	TargetMean   float64   `json:"targetMean"`
	CV           CVMetrics `json:"cv"`
	PriceSample  []float64 `json:"priceSample"`
	Rows         int       `json:"rows"`
}

// MarshalBinary serializes the model to an opaque byte blob so callers can
// cache a trained model between processes.
func (m *TrainedModel) MarshalBinary() ([]byte, error) {
	blob := modelBlob{
		Version:      blobVersion,
		ID:           m.id,
		Schema:       m.schema,
		Coef:         m.coef,
		Intercept:    m.intercept,
		FeatureMeans: m.featureMeans,
		FeatureStds:  m.featureStds,
		TargetMean:   m.targetMean,
		CV:           m.cv,
		PriceSample:  m.priceSample,
		Rows:         m.rows,
	}
	return json.Marshal(blob)
}

// UnmarshalModel reconstructs a TrainedModel from a blob produced by
// MarshalBinary.
func UnmarshalModel(data []byte) (*TrainedModel, error) {
	var blob modelBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("failed to decode model blob: %w", err)
	}
	if blob.Version != blobVersion {
		return nil, fmt.Errorf("unsupported model blob version %d", blob.Version)
	}
	if len(blob.Schema) == 0 || len(blob.Schema) != len(blob.Coef) ||
		len(blob.Schema) != len(blob.FeatureMeans) || len(blob.Schema) != len(blob.FeatureStds) {
		return nil, fmt.Errorf("model blob is inconsistent: schema has %d names, %d coefficients", len(blob.Schema), len(blob.Coef))
	}
	return &TrainedModel{
		id:           blob.ID,
		schema:       blob.Schema,
		coef:         blob.Coef,
		intercept:    blob.Intercept,
		featureMeans: blob.FeatureMeans,
		featureStds:  blob.FeatureStds,
		targetMean:   blob.TargetMean,
		cv:           blob.CV,
		priceSample:  blob.PriceSample,
		rows:         blob.Rows,
	}, nil
}
