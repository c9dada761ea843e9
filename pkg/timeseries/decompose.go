// Package timeseries decomposes a univariate demand series into trend,
// seasonal, and residual components and infers the dominant seasonal period.
package timeseries

import (
	"math"

	"github.com/pricecast/pricecast/pkg/constants"
	"github.com/pricecast/pricecast/pkg/dataset"
	"github.com/pricecast/pricecast/pkg/mathutil"
)

// Mode selects how the components combine to reconstruct the series.
type Mode string

const (
	// Additive reconstructs as trend + seasonal + residual.
	Additive Mode = "additive"
	// Multiplicative reconstructs as trend * seasonal * residual.
	Multiplicative Mode = "multiplicative"
)

// Options control the decomposition heuristics.
type Options struct {
	// MultiplicativeCVThreshold is the coefficient of variation of the
	// additively estimated seasonal component above which multiplicative
	// mode is selected, provided all values are strictly positive. This is a
	// documented heuristic switch, not a statistically rigorous test.
	MultiplicativeCVThreshold float64
}

// DefaultOptions returns the decomposition defaults.
func DefaultOptions() Options {
	return Options{MultiplicativeCVThreshold: constants.DefaultMultiplicativeCVThreshold}
}

// DecompositionResult holds the component sequences, aligned 1:1 with the
// input series. It is derived and read-only; recompute it whenever the
// underlying series changes.
type DecompositionResult struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Period   int
	Mode     Mode
	// SeasonalStrength is 1 - Var(residual)/Var(seasonal+residual),
	// clamped to [0, 1].
	SeasonalStrength float64
}

// SeasonalIndexAt returns the seasonal component for an arbitrary offset from
// the start of the decomposed series, wrapping by the inferred period. Used
// to extend seasonal features beyond the observed range.
func (d *DecompositionResult) SeasonalIndexAt(offset int) float64 {
	if d.Period <= 0 || len(d.Seasonal) == 0 {
		return 0
	}
	phase := offset % d.Period
	if phase < 0 {
		phase += d.Period
	}
	// The per-phase value is constant across cycles, so the first full
	// cycle is representative.
	if phase < len(d.Seasonal) {
		return d.Seasonal[phase]
	}
	return d.Seasonal[len(d.Seasonal)-1]
}

// Decompose splits series into trend, seasonal, and residual components.
// period may be 0, in which case it is inferred from autocorrelation over
// the candidate periods {7, 30, 365}. Returns InsufficientDataError when the
// series is shorter than twice the period. Pure function of its input.
func Decompose(series []float64, period int, opts Options) (*DecompositionResult, error) {
	if opts.MultiplicativeCVThreshold <= 0 {
		opts.MultiplicativeCVThreshold = constants.DefaultMultiplicativeCVThreshold
	}
	if period == 0 {
		period = InferPeriod(series)
	}
	if period < 2 {
		return nil, &dataset.InvalidInputError{Field: "period", Reason: "period must be at least 2"}
	}
	if len(series) < 2*period {
		return nil, &dataset.InsufficientDataError{What: "seasonal decomposition", Need: 2 * period, Got: len(series)}
	}
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &dataset.InvalidInputError{Field: "series", Reason: "series contains non-finite values"}
		}
	}

	mode := Additive
	result := decompose(series, period, Additive)
	if allPositive(series) {
		cv := seasonalCoefficientOfVariation(result.Seasonal, series)
		if cv > opts.MultiplicativeCVThreshold {
			mode = Multiplicative
			result = decompose(series, period, Multiplicative)
		}
	}
	result.Mode = mode
	result.Period = period
	result.SeasonalStrength = seasonalStrength(result)
	return result, nil
}

func decompose(series []float64, period int, mode Mode) *DecompositionResult {
	n := len(series)
	trend := movingAverageTrend(series, period)

	// Detrend, then average by phase to get one seasonal value per offset
	// within the period.
	phaseSums := make([]float64, period)
	phaseCounts := make([]int, period)
	for i := 0; i < n; i++ {
		var detrended float64
		if mode == Multiplicative {
			if trend[i] == 0 {
				continue
			}
			detrended = series[i] / trend[i]
		} else {
			detrended = series[i] - trend[i]
		}
		phase := i % period
		phaseSums[phase] += detrended
		phaseCounts[phase]++
	}
	phaseMeans := make([]float64, period)
	for p := 0; p < period; p++ {
		if phaseCounts[p] > 0 {
			phaseMeans[p] = phaseSums[p] / float64(phaseCounts[p])
		} else if mode == Multiplicative {
			phaseMeans[p] = 1
		}
	}

	// Center the seasonal component: zero mean for additive, unit mean for
	// multiplicative, so the trend keeps the level.
	center := mathutil.Mean(phaseMeans)
	for p := 0; p < period; p++ {
		if mode == Multiplicative {
			if center != 0 {
				phaseMeans[p] /= center
			}
		} else {
			phaseMeans[p] -= center
		}
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = phaseMeans[i%period]
		if mode == Multiplicative {
			denom := trend[i] * seasonal[i]
			if denom == 0 {
				residual[i] = 1
			} else {
				residual[i] = series[i] / denom
			}
		} else {
			residual[i] = series[i] - trend[i] - seasonal[i]
		}
	}

	return &DecompositionResult{Trend: trend, Seasonal: seasonal, Residual: residual}
}

// movingAverageTrend computes a centered moving average of width period. For
// even periods the window ends get half weight (the classical 2xMA). Edges
// are filled with the nearest interior trend value.
func movingAverageTrend(series []float64, period int) []float64 {
	n := len(series)
	trend := make([]float64, n)
	half := period / 2

	first, last := -1, -1
	for i := 0; i < n; i++ {
		lo, hi := i-half, i+half
		if lo < 0 || hi >= n {
			continue
		}
		var sum, weight float64
		if period%2 == 0 {
			sum = 0.5*series[lo] + 0.5*series[hi]
			weight = 1
			for j := lo + 1; j < hi; j++ {
				sum += series[j]
				weight++
			}
		} else {
			for j := lo; j <= hi; j++ {
				sum += series[j]
				weight++
			}
		}
		trend[i] = sum / weight
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		// Period too large relative to series; flat trend at the mean.
		mean := mathutil.Mean(series)
		for i := range trend {
			trend[i] = mean
		}
		return trend
	}
	for i := 0; i < first; i++ {
		trend[i] = trend[first]
	}
	for i := last + 1; i < n; i++ {
		trend[i] = trend[last]
	}
	return trend
}

// InferPeriod picks the candidate period with the strongest autocorrelation
// at its lag. Candidates are {7, 30, 365} plus any explicit hints; ties and
// weak correlations fall back to the shortest viable candidate.
func InferPeriod(series []float64, hints ...int) int {
	candidates := []int{constants.WeeklyPeriod, constants.MonthlyPeriod, constants.YearlyPeriod}
	for _, h := range hints {
		if h >= 2 {
			candidates = append(candidates, h)
		}
	}

	best := constants.WeeklyPeriod
	bestACF := math.Inf(-1)
	for _, p := range candidates {
		if len(series) < 2*p {
			continue
		}
		acf := autocorrelation(series, p)
		if acf > bestACF || (acf == bestACF && p < best) {
			best = p
			bestACF = acf
		}
	}
	return best
}

func autocorrelation(series []float64, lag int) float64 {
	n := len(series)
	if lag <= 0 || lag >= n {
		return 0
	}
	mean := mathutil.Mean(series)
	var num, den float64
	for i := 0; i < n; i++ {
		d := series[i] - mean
		den += d * d
	}
	if den == 0 {
		return 0
	}
	for i := lag; i < n; i++ {
		num += (series[i] - mean) * (series[i-lag] - mean)
	}
	return num / den
}

func seasonalStrength(result *DecompositionResult) float64 {
	combined := make([]float64, len(result.Residual))
	for i := range combined {
		combined[i] = result.Seasonal[i] + result.Residual[i]
	}
	varCombined := mathutil.Variance(combined)
	if varCombined == 0 {
		return 0
	}
	strength := 1 - mathutil.Variance(result.Residual)/varCombined
	return mathutil.Clamp(strength, 0, 1)
}

func seasonalCoefficientOfVariation(seasonal, series []float64) float64 {
	mean := mathutil.Mean(series)
	if mean == 0 {
		return 0
	}
	return mathutil.StdDev(seasonal) / math.Abs(mean)
}

func allPositive(series []float64) bool {
	for _, v := range series {
		if v <= 0 {
			return false
		}
	}
	return true
}
