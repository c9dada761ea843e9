package engine

import (
	"time"

	"github.com/pricecast/pricecast/pkg/dataset"
	"github.com/pricecast/pricecast/pkg/datetime"
	"github.com/pricecast/pricecast/pkg/mathutil"
	"github.com/pricecast/pricecast/pkg/timeseries"
)

// Engineered feature names. The price entry comes from dataset.FeaturePrice.
const (
	featureDayOfWeek = "dow"
	featureSeasonal  = "seasonal"
	featureTrend     = "trend"
	featureLagDemand = "lag_demand"
)

// buildTrainingFeatures converts observations plus decomposition components
// into the feature vectors and targets the predictor trains on. The first
// period's rows are skipped because their lagged demand does not exist, and
// imputation is not this core's business.
func buildTrainingFeatures(ds *dataset.Dataset, decomp *timeseries.DecompositionResult) ([]dataset.FeatureVector, []float64) {
	period := decomp.Period
	var vectors []dataset.FeatureVector
	var targets []float64
	for i := period; i < len(ds.Records); i++ {
		rec := ds.Records[i]
		fv := dataset.FeatureVector{
			dataset.FeaturePrice: rec.Price,
			featureDayOfWeek:     datetime.DayOfWeek(rec.Date),
			featureSeasonal:      decomp.Seasonal[i],
			featureTrend:         decomp.Trend[i],
			featureLagDemand:     ds.Records[i-period].Demand,
		}
		for _, name := range ds.ContextNames {
			fv[name] = rec.Context[name]
		}
		vectors = append(vectors, fv)
		targets = append(targets, rec.Demand)
	}
	return vectors, targets
}

// buildHorizonFeatures derives per-day feature vectors (minus price) for the
// next horizon days after the dataset's last observation. Seasonal indices
// wrap by the inferred period, the trend holds its last value, lagged demand
// reads back into the observed series while it can, and unknown future
// context values fall back to the historical same-weekday mean.
func buildHorizonFeatures(ds *dataset.Dataset, decomp *timeseries.DecompositionResult, horizon int) []futureDay {
	n := len(ds.Records)
	lastTrend := decomp.Trend[n-1]
	currentPrice := ds.Records[n-1].Price
	demands := ds.Demands()
	contextByDow := contextWeekdayMeans(ds)

	days := make([]futureDay, horizon)
	for h := 0; h < horizon; h++ {
		date := ds.Records[n-1].Date.AddDate(0, 0, h+1)
		offset := n + h
		lag := lastCycleDemand(demands, offset, decomp.Period)
		fv := dataset.FeatureVector{
			featureDayOfWeek: datetime.DayOfWeek(date),
			featureSeasonal:  decomp.SeasonalIndexAt(offset),
			featureTrend:     lastTrend,
			featureLagDemand: lag,
		}
		dow := int(date.Weekday())
		for _, name := range ds.ContextNames {
			fv[name] = contextByDow[name][dow]
		}
		days[h] = futureDay{Date: date, Features: fv, CurrentPrice: currentPrice}
	}
	return days
}

type futureDay struct {
	Date         time.Time
	Features     dataset.FeatureVector
	CurrentPrice float64
}

// lastCycleDemand returns the demand one period before offset, falling back
// to the mean of the final observed period once the lag leaves the observed
// range.
func lastCycleDemand(demands []float64, offset, period int) float64 {
	lagIdx := offset - period
	if lagIdx >= 0 && lagIdx < len(demands) {
		return demands[lagIdx]
	}
	tail := demands
	if len(demands) > period {
		tail = demands[len(demands)-period:]
	}
	return mathutil.Mean(tail)
}

// contextWeekdayMeans averages each context feature per weekday, the
// stand-in for unknown future context.
func contextWeekdayMeans(ds *dataset.Dataset) map[string][7]float64 {
	sums := make(map[string][7]float64, len(ds.ContextNames))
	counts := make(map[string][7]int, len(ds.ContextNames))
	for _, rec := range ds.Records {
		dow := int(rec.Date.Weekday())
		for _, name := range ds.ContextNames {
			s := sums[name]
			s[dow] += rec.Context[name]
			sums[name] = s
			c := counts[name]
			c[dow]++
			counts[name] = c
		}
	}
	out := make(map[string][7]float64, len(ds.ContextNames))
	for _, name := range ds.ContextNames {
		var means [7]float64
		for dow := 0; dow < 7; dow++ {
			if counts[name][dow] > 0 {
				means[dow] = sums[name][dow] / float64(counts[name][dow])
			}
		}
		out[name] = means
	}
	return out
}
