// Package constants provides shared constants for the pricecast application.
package constants

// DateTimeLayout is the calendar-day format expected in datasets and config
// files and is also the output date format.
const DateTimeLayout = "2006-01-02"

// Pricing constants
const (
	// DefaultPriceStep is the grid resolution for the price scan, in
	// currency units.
	DefaultPriceStep = 1.0

	// DefaultTieEpsilon is the objective tolerance within which candidate
	// prices are considered tied; the lowest tied price wins.
	DefaultTieEpsilon = 1e-6

	// DefaultHorizonDays is the forward horizon recommended when none is
	// configured.
	DefaultHorizonDays = 7

	// ObjectiveRevenue maximizes price times predicted demand.
	ObjectiveRevenue = "revenue"

	// ObjectiveOccupancy maximizes predicted demand directly.
	ObjectiveOccupancy = "occupancy"
)

// Model constants
const (
	// DefaultFoldCount is the default number of cross-validation folds.
	DefaultFoldCount = 5

	// MinFoldCount is the smallest permitted number of folds.
	MinFoldCount = 2

	// DefaultRidgeLambda is the default L2 regularization strength.
	DefaultRidgeLambda = 1.0

	// DefaultTrainingSeed seeds the fold shuffle so training is repeatable.
	DefaultTrainingSeed = 42
)

// Decomposition constants
const (
	// WeeklyPeriod, MonthlyPeriod, and YearlyPeriod are the candidate
	// seasonal periods searched during period inference.
	WeeklyPeriod  = 7
	MonthlyPeriod = 30
	YearlyPeriod  = 365

	// DefaultMultiplicativeCVThreshold is the coefficient-of-variation
	// cutoff above which the decomposer switches from additive to
	// multiplicative mode. Heuristic, not a statistical test.
	DefaultMultiplicativeCVThreshold = 0.15
)

// Elasticity constants
const (
	// DefaultMinDistinctPrices is the minimum number of distinct observed
	// prices required before an elasticity estimate is trusted.
	DefaultMinDistinctPrices = 5

	// DefaultMinLogPriceVariance is the variance floor for log prices below
	// which the estimate is flagged low confidence.
	DefaultMinLogPriceVariance = 1e-4
)

// Confidence constants
const (
	// DefaultHighErrorCeiling is the relative cross-validation error above
	// which a recommendation cannot be rated High confidence.
	DefaultHighErrorCeiling = 0.15

	// DefaultMinNearbyObservations is the minimum number of training
	// observations near the recommended price for full confidence.
	DefaultMinNearbyObservations = 10

	// DefaultNearbyWindowPercent is the half-width, as a percentage of the
	// recommended price, of the window used to count nearby observations.
	DefaultNearbyWindowPercent = 10.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"
)

// Cache constants
const (
	// DefaultPredictionCacheSize bounds the LRU prediction memoizer.
	DefaultPredictionCacheSize = 4096
)
