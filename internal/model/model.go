// Package model implements the demand predictor: a ridge regression over
// standardized features trained with k-fold cross-validation. The trained
// model is immutable and safe for concurrent use; retraining produces a new
// instance.
package model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/pricecast/pricecast/pkg/constants"
	"github.com/pricecast/pricecast/pkg/dataset"
	"github.com/pricecast/pricecast/pkg/mathutil"
)

// Predictor is the capability the optimizer and synthesizer depend on: a
// single feature vector in, a single predicted demand out. Alternative model
// families can be substituted without optimizer changes.
type Predictor interface {
	Predict(fv dataset.FeatureVector) (float64, error)
	Schema() []string
}

// CVMetrics reports held-out error from k-fold cross-validation. The folds
// validate the model family; the final model is refit on all data afterward.
type CVMetrics struct {
	MAE      float64 `json:"mae"`
	RSquared float64 `json:"rSquared"`
	Folds    int     `json:"folds"`
}

// Importance is one (feature, score) pair.
type Importance struct {
	Name  string
	Score float64
}

// Options control training.
type Options struct {
	// Lambda is the L2 regularization strength.
	Lambda float64
	// Seed fixes the fold shuffle so training is repeatable.
	Seed int64
}

// DefaultOptions returns the training defaults.
func DefaultOptions() Options {
	return Options{Lambda: constants.DefaultRidgeLambda, Seed: constants.DefaultTrainingSeed}
}

// TrainedModel owns the learned parameters, the exact ordered feature schema,
// and the training-data statistics needed downstream. Immutable after Train.
type TrainedModel struct {
	id           string
	schema       []string
	coef         []float64
	intercept    float64
	featureMeans []float64
	featureStds  []float64
	targetMean   float64
	cv           CVMetrics
	priceSample  []float64 // sorted prices seen in training
	rows         int
}

// ID returns the model's unique identifier.
func (m *TrainedModel) ID() string { return m.id }

// Schema returns the trained feature schema in its fixed order.
func (m *TrainedModel) Schema() []string {
	out := make([]string, len(m.schema))
	copy(out, m.schema)
	return out
}

// CV returns the cross-validation metrics recorded during training.
func (m *TrainedModel) CV() CVMetrics { return m.cv }

// Rows returns the number of training observations.
func (m *TrainedModel) Rows() int { return m.rows }

// TargetMean returns the mean demand of the training targets, used to
// normalize error metrics downstream.
func (m *TrainedModel) TargetMean() float64 { return m.targetMean }

// TrainingPricesNear counts training observations whose price falls within
// the inclusive range [lo, hi].
func (m *TrainedModel) TrainingPricesNear(lo, hi float64) int {
	left := sort.SearchFloat64s(m.priceSample, lo)
	right := sort.Search(len(m.priceSample), func(i int) bool { return m.priceSample[i] > hi })
	if right < left {
		return 0
	}
	return right - left
}

// Train fits the predictor. Every feature vector must carry the same name
// set, which must include "price". foldCount must be at least 2; vectors
// must outnumber folds. The same inputs and options always produce the same
// parameters.
func Train(vectors []dataset.FeatureVector, targets []float64, foldCount int, opts Options) (*TrainedModel, error) {
	if foldCount < constants.MinFoldCount {
		return nil, &dataset.InvalidInputError{Field: "foldCount", Reason: "must be at least 2"}
	}
	if len(vectors) != len(targets) {
		return nil, &dataset.InvalidInputError{Field: "targets", Reason: "feature vector and target counts differ"}
	}
	if len(vectors) < foldCount {
		return nil, &dataset.InsufficientDataError{What: "model training", Need: foldCount, Got: len(vectors)}
	}
	if opts.Lambda < 0 {
		return nil, &dataset.InvalidInputError{Field: "lambda", Reason: "must be non-negative"}
	}

	schema := vectors[0].Names()
	if !contains(schema, dataset.FeaturePrice) {
		return nil, &dataset.SchemaMismatchError{Missing: []string{dataset.FeaturePrice}}
	}
	x := make([][]float64, len(vectors))
	for i, fv := range vectors {
		if err := fv.Validate(); err != nil {
			return nil, err
		}
		row, err := toRow(fv, schema)
		if err != nil {
			return nil, err
		}
		x[i] = row
	}
	for _, y := range targets {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, &dataset.InvalidInputError{Field: "targets", Reason: "target is not finite"}
		}
	}

	cv, err := crossValidate(x, targets, foldCount, opts)
	if err != nil {
		return nil, err
	}

	fitResult, err := fitRidge(x, targets, opts.Lambda)
	if err != nil {
		return nil, err
	}

	priceIdx := indexOf(schema, dataset.FeaturePrice)
	prices := make([]float64, len(x))
	for i := range x {
		prices[i] = x[i][priceIdx]
	}
	sort.Float64s(prices)

	return &TrainedModel{
		id:           uuid.NewString(),
		schema:       schema,
		coef:         fitResult.coef,
		intercept:    fitResult.intercept,
		featureMeans: fitResult.means,
		featureStds:  fitResult.stds,
		targetMean:   mathutil.Mean(targets),
		cv:           cv,
		priceSample:  prices,
		rows:         len(x),
	}, nil
}

// Predict returns the demand predicted for a single feature vector. The
// vector's name set must exactly match the trained schema; missing or extra
// names are a SchemaMismatchError. NaN or infinite values are rejected.
// Deterministic given identical model state and input.
func (m *TrainedModel) Predict(fv dataset.FeatureVector) (float64, error) {
	if err := m.checkSchema(fv); err != nil {
		return 0, err
	}
	if err := fv.Validate(); err != nil {
		return 0, err
	}
	sum := m.intercept
	for i, name := range m.schema {
		std := m.featureStds[i]
		if std == 0 {
			continue
		}
		sum += m.coef[i] * (fv[name] - m.featureMeans[i]) / std
	}
	// Demand cannot be negative.
	return mathutil.Max(sum, 0), nil
}

// Importances returns (featureName, score) pairs ordered descending by
// score. Scores are the absolute standardized coefficients, an explainability
// aid rather than an optimization input.
func (m *TrainedModel) Importances() []Importance {
	out := make([]Importance, len(m.schema))
	for i, name := range m.schema {
		out[i] = Importance{Name: name, Score: math.Abs(m.coef[i])}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

func (m *TrainedModel) checkSchema(fv dataset.FeatureVector) error {
	var missing, extra []string
	for _, name := range m.schema {
		if _, ok := fv[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(fv) != len(m.schema) || len(missing) > 0 {
		for name := range fv {
			if !contains(m.schema, name) {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		if len(missing) > 0 || len(extra) > 0 {
			return &dataset.SchemaMismatchError{Missing: missing, Extra: extra}
		}
	}
	return nil
}

type ridgeFit struct {
	coef      []float64
	intercept float64
	means     []float64
	stds      []float64
}

// fitRidge solves the standardized ridge normal equations
// (Z'Z + lambda I) beta = Z'y with centered targets.
func fitRidge(x [][]float64, y []float64, lambda float64) (*ridgeFit, error) {
	n := len(x)
	p := len(x[0])

	means := make([]float64, p)
	stds := make([]float64, p)
	for j := 0; j < p; j++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = x[i][j]
		}
		means[j] = mathutil.Mean(col)
		stds[j] = mathutil.StdDev(col)
	}

	z := make([][]float64, n)
	for i := 0; i < n; i++ {
		z[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			if stds[j] == 0 {
				continue // constant feature carries no signal
			}
			z[i][j] = (x[i][j] - means[j]) / stds[j]
		}
	}
	yMean := mathutil.Mean(y)

	ztz := make([][]float64, p)
	zty := make([]float64, p)
	for a := 0; a < p; a++ {
		ztz[a] = make([]float64, p)
		for b := 0; b < p; b++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += z[i][a] * z[i][b]
			}
			ztz[a][b] = sum
		}
		ztz[a][a] += lambda
		if ztz[a][a] == 0 {
			// Constant feature: pin its coefficient to zero.
			ztz[a][a] = 1
		}
		var sum float64
		for i := 0; i < n; i++ {
			sum += z[i][a] * (y[i] - yMean)
		}
		zty[a] = sum
	}

	coef, err := mathutil.SolveLinearSystem(ztz, zty)
	if err != nil {
		return nil, err
	}
	return &ridgeFit{coef: coef, intercept: yMean, means: means, stds: stds}, nil
}

// crossValidate shuffles row indices with the configured seed, splits them
// into foldCount folds, and pools the held-out predictions into overall MAE
// and R squared.
func crossValidate(x [][]float64, y []float64, foldCount int, opts Options) (CVMetrics, error) {
	n := len(x)
	perm := rand.New(rand.NewSource(opts.Seed)).Perm(n)

	var absErrSum, ssRes float64
	heldOut := make([]float64, 0, n)
	preds := make([]float64, 0, n)

	for fold := 0; fold < foldCount; fold++ {
		var trainX [][]float64
		var trainY []float64
		var testX [][]float64
		var testY []float64
		for pos, idx := range perm {
			if pos%foldCount == fold {
				testX = append(testX, x[idx])
				testY = append(testY, y[idx])
			} else {
				trainX = append(trainX, x[idx])
				trainY = append(trainY, y[idx])
			}
		}
		if len(testX) == 0 || len(trainX) == 0 {
			continue
		}
		fitResult, err := fitRidge(trainX, trainY, opts.Lambda)
		if err != nil {
			return CVMetrics{}, err
		}
		for i := range testX {
			pred := fitResult.intercept
			for j := range testX[i] {
				if fitResult.stds[j] == 0 {
					continue
				}
				pred += fitResult.coef[j] * (testX[i][j] - fitResult.means[j]) / fitResult.stds[j]
			}
			pred = mathutil.Max(pred, 0)
			absErrSum += math.Abs(pred - testY[i])
			heldOut = append(heldOut, testY[i])
			preds = append(preds, pred)
		}
	}

	if len(heldOut) == 0 {
		return CVMetrics{}, &dataset.InsufficientDataError{What: "cross-validation", Need: foldCount, Got: 0}
	}
	meanY := mathutil.Mean(heldOut)
	var ssTot float64
	for i := range heldOut {
		ssRes += (heldOut[i] - preds[i]) * (heldOut[i] - preds[i])
		ssTot += (heldOut[i] - meanY) * (heldOut[i] - meanY)
	}
	rsq := 0.0
	if ssTot > 0 {
		rsq = 1 - ssRes/ssTot
	}
	return CVMetrics{
		MAE:      absErrSum / float64(len(heldOut)),
		RSquared: rsq,
		Folds:    foldCount,
	}, nil
}

func toRow(fv dataset.FeatureVector, schema []string) ([]float64, error) {
	if len(fv) != len(schema) {
		return nil, schemaDiff(fv, schema)
	}
	row := make([]float64, len(schema))
	for i, name := range schema {
		v, ok := fv[name]
		if !ok {
			return nil, schemaDiff(fv, schema)
		}
		row[i] = v
	}
	return row, nil
}

func schemaDiff(fv dataset.FeatureVector, schema []string) error {
	var missing, extra []string
	for _, name := range schema {
		if _, ok := fv[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range fv {
		if !contains(schema, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return &dataset.SchemaMismatchError{Missing: missing, Extra: extra}
}

func contains(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}
	return -1
}
