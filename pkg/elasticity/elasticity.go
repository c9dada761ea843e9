// Package elasticity estimates price elasticity of demand from historical
// observations. The estimate is advisory: it conditions recommendation
// confidence and explanations but is never the optimizer's demand function.
package elasticity

import (
	"math"

	"github.com/pricecast/pricecast/pkg/constants"
	"github.com/pricecast/pricecast/pkg/dataset"
	"github.com/pricecast/pricecast/pkg/mathutil"
)

// Options control the estimation preconditions.
type Options struct {
	// MinDistinctPrices is how many distinct observed prices are required
	// for a trusted estimate.
	MinDistinctPrices int
	// MinLogPriceVariance is the variance floor for log prices.
	MinLogPriceVariance float64
	// DayOfWeekEffects adds day-of-week dummy regressors when at least two
	// weeks of usable observations exist.
	DayOfWeekEffects bool
}

// DefaultOptions returns the estimation defaults.
func DefaultOptions() Options {
	return Options{
		MinDistinctPrices:   constants.DefaultMinDistinctPrices,
		MinLogPriceVariance: constants.DefaultMinLogPriceVariance,
		DayOfWeekEffects:    true,
	}
}

// Result is an elasticity estimate with its fit quality and provenance.
// LowConfidence and Counterintuitive are advisory flags, never errors;
// downstream consumers decide whether to trust the estimate.
type Result struct {
	Elasticity     float64
	Intercept      float64
	RSquared       float64
	MinPrice       float64
	MaxPrice       float64
	Observations   int
	DistinctPrices int
	// LowConfidence is set when too few distinct prices or too little price
	// variance exist to support the regression.
	LowConfidence bool
	// Counterintuitive is set when the fitted coefficient is non-negative,
	// i.e. demand does not fall as price rises.
	Counterintuitive bool
}

// Estimate fits log(demand) as a linear function of log(price), optionally
// with day-of-week fixed effects, via ordinary least squares. The price
// coefficient is the elasticity. Rows with non-positive demand are skipped
// since their logs are undefined.
func Estimate(records []dataset.ObservationRecord, opts Options) (*Result, error) {
	if len(records) == 0 {
		return nil, &dataset.InsufficientDataError{What: "elasticity estimation", Need: 2, Got: 0}
	}
	if opts.MinDistinctPrices <= 0 {
		opts.MinDistinctPrices = constants.DefaultMinDistinctPrices
	}
	if opts.MinLogPriceVariance <= 0 {
		opts.MinLogPriceVariance = constants.DefaultMinLogPriceVariance
	}

	var (
		logPrices  []float64
		logDemands []float64
		weekdays   []int
		minPrice   = math.Inf(1)
		maxPrice   = math.Inf(-1)
		distinct   = make(map[float64]struct{})
	)
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if rec.Demand <= 0 {
			continue
		}
		logPrices = append(logPrices, math.Log(rec.Price))
		logDemands = append(logDemands, math.Log(rec.Demand))
		weekdays = append(weekdays, int(rec.Date.Weekday()))
		distinct[mathutil.Round(rec.Price)] = struct{}{}
		minPrice = mathutil.Min(minPrice, rec.Price)
		maxPrice = mathutil.Max(maxPrice, rec.Price)
	}

	result := &Result{
		Observations:   len(logPrices),
		DistinctPrices: len(distinct),
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
	}

	if len(logPrices) < 2 ||
		len(distinct) < opts.MinDistinctPrices ||
		mathutil.Variance(logPrices) < opts.MinLogPriceVariance {
		result.LowConfidence = true
		if len(logPrices) == 0 {
			result.MinPrice, result.MaxPrice = 0, 0
		}
		return result, nil
	}

	coef, rsq, err := fit(logPrices, logDemands, weekdays, opts.DayOfWeekEffects && len(logPrices) >= 14)
	if err != nil {
		// Degenerate design matrix; degrade rather than fail, elasticity is
		// advisory.
		result.LowConfidence = true
		return result, nil
	}

	result.Elasticity = coef[1]
	result.Intercept = coef[0]
	result.RSquared = rsq
	result.Counterintuitive = result.Elasticity >= 0
	return result, nil
}

// fit runs OLS of y on [1, x, dow dummies...] and returns the coefficient
// vector plus R squared.
func fit(x, y []float64, weekdays []int, dowEffects bool) ([]float64, float64, error) {
	cols := 2
	if dowEffects {
		cols += 6 // Sunday is the reference level
	}
	n := len(x)

	design := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, cols)
		row[0] = 1
		row[1] = x[i]
		if dowEffects && weekdays[i] > 0 {
			row[1+weekdays[i]] = 1
		}
		design[i] = row
	}

	// Normal equations: (X'X) beta = X'y.
	xtx := make([][]float64, cols)
	xty := make([]float64, cols)
	for a := 0; a < cols; a++ {
		xtx[a] = make([]float64, cols)
		for b := 0; b < cols; b++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += design[i][a] * design[i][b]
			}
			xtx[a][b] = sum
		}
		var sum float64
		for i := 0; i < n; i++ {
			sum += design[i][a] * y[i]
		}
		xty[a] = sum
	}

	beta, err := mathutil.SolveLinearSystem(xtx, xty)
	if err != nil {
		return nil, 0, err
	}

	meanY := mathutil.Mean(y)
	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		var fitted float64
		for a := 0; a < cols; a++ {
			fitted += design[i][a] * beta[a]
		}
		ssRes += (y[i] - fitted) * (y[i] - fitted)
		ssTot += (y[i] - meanY) * (y[i] - meanY)
	}
	rsq := 0.0
	if ssTot > 0 {
		rsq = 1 - ssRes/ssTot
	}
	return beta, rsq, nil
}
