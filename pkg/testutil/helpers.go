// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"
	"math/rand"
	"time"

	"github.com/pricecast/pricecast/pkg/dataset"
)

// HistoryOptions shape the synthetic observation history produced by
// GenerateHistory.
type HistoryOptions struct {
	Days       int
	Seed       int64
	Elasticity float64 // e.g. -1.2; demand = Scale * price^Elasticity
	Scale      float64 // demand scale A
	BasePrice  float64
	PriceSwing float64 // random price variation half-width
	// WeeklyAmplitude scales the multiplicative weekly pattern.
	WeeklyAmplitude float64
	// NoiseStd is the relative demand noise.
	NoiseStd float64
	Start    time.Time
}

// DefaultHistoryOptions returns a 400-day weekly-seasonal history with a
// known elasticity of -1.2.
func DefaultHistoryOptions() HistoryOptions {
	return HistoryOptions{
		Days:            400,
		Seed:            1,
		Elasticity:      -1.2,
		Scale:           2.5e4,
		BasePrice:       150,
		PriceSwing:      60,
		WeeklyAmplitude: 0.2,
		NoiseStd:        0.03,
		Start:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// GenerateHistory builds a deterministic synthetic dataset: prices vary
// around BasePrice, demand follows a constant-elasticity curve times a
// weekly factor plus seeded noise. The weekly factor is exposed as the truth
// behind the "dow" signal the engine engineers for itself.
func GenerateHistory(opts HistoryOptions) *dataset.Dataset {
	rng := rand.New(rand.NewSource(opts.Seed))
	weekly := []float64{-1, -0.5, -0.25, 0, 0.25, 0.75, 1} // Sun..Sat shape

	records := make([]dataset.ObservationRecord, opts.Days)
	for i := 0; i < opts.Days; i++ {
		date := opts.Start.AddDate(0, 0, i)
		price := opts.BasePrice + (rng.Float64()*2-1)*opts.PriceSwing
		if price < 1 {
			price = 1
		}
		seasonFactor := 1 + opts.WeeklyAmplitude*weekly[int(date.Weekday())]
		demand := opts.Scale * math.Pow(price, opts.Elasticity) * seasonFactor
		demand *= 1 + opts.NoiseStd*rng.NormFloat64()
		if demand < 0 {
			demand = 0
		}
		records[i] = dataset.ObservationRecord{
			Date:    date,
			Price:   price,
			Demand:  demand,
			Context: map[string]float64{"holiday": 0},
		}
	}
	return &dataset.Dataset{Records: records, ContextNames: []string{"holiday"}}
}
