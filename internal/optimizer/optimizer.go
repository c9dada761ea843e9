// Package optimizer searches a bounded price range for the price that
// maximizes a business objective, treating the demand predictor as a black
// box. It is a pure function of (features, model, bounds, objective): no
// training, no shared state mutation.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/pricecast/pricecast/internal/metrics"
	"github.com/pricecast/pricecast/internal/model"
	"github.com/pricecast/pricecast/pkg/constants"
	"github.com/pricecast/pricecast/pkg/dataset"
	"go.uber.org/zap"
)

// Objective selects the quantity the optimizer maximizes.
type Objective string

const (
	// Revenue maximizes price times predicted demand.
	Revenue Objective = constants.ObjectiveRevenue
	// Occupancy maximizes predicted demand directly, saturating demand
	// toward capacity without exceeding it.
	Occupancy Objective = constants.ObjectiveOccupancy
)

// goldenRatio conjugate for golden-section search.
const goldenRatio = 0.6180339887498949

// DayFeatures carries the fixed context for one target day. Features must
// not include a price entry; the optimizer supplies candidate prices.
type DayFeatures struct {
	Date         time.Time
	Features     dataset.FeatureVector
	CurrentPrice float64
}

// Options configure a single optimization run.
type Options struct {
	MinPrice float64
	MaxPrice float64
	// Step is the grid resolution in currency units. When Step <= 0 and
	// Points > 1, Points evenly spaced candidates are evaluated instead.
	Step   float64
	Points int
	// Objective defaults to Revenue when empty.
	Objective Objective
	// Capacity, when positive, marks any candidate whose predicted demand
	// exceeds it as infeasible (objective forced to -Inf) rather than
	// clipping the demand.
	Capacity float64
	// TieEpsilon is the objective tolerance within which candidates tie;
	// the lowest tied price wins, minimizing price volatility.
	TieEpsilon float64
	// AssumeUnimodal enables golden-section refinement around the best grid
	// point. Off by default: the predictor's shape is not trusted unless
	// explicitly asserted by configuration.
	AssumeUnimodal bool
	// Workers sizes the day-level worker pool. Defaults to GOMAXPROCS.
	Workers int
}

// Result is the optimizer output for one target day. Immutable once
// returned. ObjectiveValue is -Inf when no candidate price was feasible.
type Result struct {
	Date                      time.Time
	Features                  dataset.FeatureVector
	CurrentPrice              float64
	OptimalPrice              float64
	PredictedDemandAtOptimal  float64
	PredictedRevenueAtOptimal float64
	ObjectiveValue            float64
	Objective                 Objective
}

// Feasible reports whether a finite optimum was found for the day.
func (r Result) Feasible() bool {
	return !math.IsInf(r.ObjectiveValue, 0) && !math.IsNaN(r.ObjectiveValue)
}

// OptimizePeriod optimizes each day independently against the shared
// immutable model and returns exactly one result per day in input order.
// Days are processed concurrently; ctx is checked between day-level work
// units so long grid scans stay responsive to cancellation.
func OptimizePeriod(ctx context.Context, logger *zap.Logger, days []DayFeatures, pred model.Predictor, opts Options) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pred == nil {
		return nil, &ModelUnavailableError{}
	}
	if opts.MinPrice > opts.MaxPrice {
		return nil, &EmptyRangeError{MinPrice: opts.MinPrice, MaxPrice: opts.MaxPrice}
	}
	if opts.MinPrice <= 0 {
		return nil, &dataset.InvalidInputError{Field: "minPrice", Reason: "price bounds must be positive"}
	}
	switch opts.Objective {
	case "":
		opts.Objective = Revenue
	case Revenue, Occupancy:
	default:
		return nil, &dataset.InvalidInputError{Field: "objective", Reason: fmt.Sprintf("unknown objective %q", opts.Objective)}
	}
	if opts.TieEpsilon <= 0 {
		opts.TieEpsilon = constants.DefaultTieEpsilon
	}
	if len(days) == 0 {
		return []Result{}, nil
	}

	grid := buildGrid(opts)
	start := time.Now()
	defer func() {
		metrics.OptimizationDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(days) {
		workers = len(days)
	}

	results := make([]Result, len(days))
	errs := make([]error, len(days))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = optimizeDay(days[idx], pred, grid, opts)
			}
		}()
	}

	var cancelled bool
feed:
	for i := range days {
		select {
		case <-ctx.Done():
			cancelled = true
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled {
		return nil, fmt.Errorf("optimization cancelled: %w", ctx.Err())
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("optimization run complete",
		zap.String("op", "optimizer.OptimizePeriod"),
		zap.Int("days", len(days)),
		zap.Int("gridPoints", len(grid)),
		zap.String("objective", string(opts.Objective)),
	)
	return results, nil
}

// buildGrid produces the ascending candidate prices.
func buildGrid(opts Options) []float64 {
	if opts.MinPrice == opts.MaxPrice {
		return []float64{opts.MinPrice}
	}
	if opts.Step <= 0 && opts.Points > 1 {
		grid := make([]float64, opts.Points)
		span := opts.MaxPrice - opts.MinPrice
		for i := 0; i < opts.Points; i++ {
			grid[i] = opts.MinPrice + span*float64(i)/float64(opts.Points-1)
		}
		return grid
	}
	step := opts.Step
	if step <= 0 {
		step = constants.DefaultPriceStep
	}
	var grid []float64
	for p := opts.MinPrice; p < opts.MaxPrice; p += step {
		grid = append(grid, p)
	}
	grid = append(grid, opts.MaxPrice)
	return grid
}

func optimizeDay(day DayFeatures, pred model.Predictor, grid []float64, opts Options) (Result, error) {
	evaluate := func(price float64) (objective, demand float64, err error) {
		demand, err = pred.Predict(day.Features.WithPrice(price))
		if err != nil {
			return 0, 0, err
		}
		metrics.CandidateEvaluationsTotal.Inc()
		if opts.Capacity > 0 && demand > opts.Capacity {
			// Infeasible rather than clipped: prices that respect capacity
			// always beat prices that merely report high raw demand.
			return math.Inf(-1), demand, nil
		}
		if opts.Objective == Occupancy {
			return demand, demand, nil
		}
		return price * demand, demand, nil
	}

	values := make([]float64, len(grid))
	demands := make([]float64, len(grid))
	best := math.Inf(-1)
	for i, price := range grid {
		v, d, err := evaluate(price)
		if err != nil {
			return Result{}, fmt.Errorf("evaluating price %.2f for %s: %w", price, day.Date.Format(constants.DateTimeLayout), err)
		}
		values[i] = v
		demands[i] = d
		if v > best {
			best = v
		}
	}

	result := Result{
		Date:         day.Date,
		Features:     day.Features,
		CurrentPrice: day.CurrentPrice,
		Objective:    opts.Objective,
	}

	if math.IsInf(best, -1) {
		// No feasible candidate; report the day explicitly rather than
		// inventing a price.
		result.OptimalPrice = day.CurrentPrice
		result.ObjectiveValue = math.Inf(-1)
		return result, nil
	}

	// Lowest price within epsilon of the maximum wins the tie.
	chosen := -1
	for i := range grid {
		if values[i] >= best-opts.TieEpsilon {
			chosen = i
			break
		}
	}
	price := grid[chosen]
	value := values[chosen]
	demand := demands[chosen]

	if opts.AssumeUnimodal && len(grid) > 1 {
		lo := price
		hi := price
		if chosen > 0 {
			lo = grid[chosen-1]
		}
		if chosen < len(grid)-1 {
			hi = grid[chosen+1]
		}
		refPrice, refValue, refDemand, err := goldenSection(lo, hi, evaluate)
		if err != nil {
			return Result{}, err
		}
		if refValue > value+opts.TieEpsilon {
			price, value, demand = refPrice, refValue, refDemand
		}
	}

	result.OptimalPrice = price
	result.PredictedDemandAtOptimal = demand
	result.ObjectiveValue = value
	result.PredictedRevenueAtOptimal = price * demand
	return result, nil
}

// goldenSection maximizes evaluate over [lo, hi], assuming unimodality in
// that neighborhood.
func goldenSection(lo, hi float64, evaluate func(float64) (float64, float64, error)) (price, value, demand float64, err error) {
	a, b := lo, hi
	x1 := b - goldenRatio*(b-a)
	x2 := a + goldenRatio*(b-a)
	f1, d1, err := evaluate(x1)
	if err != nil {
		return 0, 0, 0, err
	}
	f2, d2, err := evaluate(x2)
	if err != nil {
		return 0, 0, 0, err
	}
	for i := 0; i < 64 && b-a > 1e-6; i++ {
		if f1 < f2 {
			a = x1
			x1, f1, d1 = x2, f2, d2
			x2 = a + goldenRatio*(b-a)
			f2, d2, err = evaluate(x2)
		} else {
			b = x2
			x2, f2, d2 = x1, f1, d1
			x1 = b - goldenRatio*(b-a)
			f1, d1, err = evaluate(x1)
		}
		if err != nil {
			return 0, 0, 0, err
		}
	}
	if f1 >= f2 {
		return x1, f1, d1, nil
	}
	return x2, f2, d2, nil
}
