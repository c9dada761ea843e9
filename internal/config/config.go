// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"

	"github.com/pricecast/pricecast/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for pricecast.
type Configuration struct {
	// DataFile is the path to the historical observations CSV.
	DataFile      string              `yaml:"dataFile"`
	Pricing       PricingConfig       `yaml:"pricing"`
	Model         ModelConfig         `yaml:"model"`
	Decomposition DecompositionConfig `yaml:"decomposition,omitempty"`
	Elasticity    ElasticityConfig    `yaml:"elasticity,omitempty"`
	Confidence    ConfidenceConfig    `yaml:"confidence,omitempty"`
	Logging       LoggingConfig       `yaml:"logging,omitempty"`
	Output        OutputConfig        `yaml:"output,omitempty"`
}

// PricingConfig bounds and shapes the price search.
type PricingConfig struct {
	MinPrice  float64 `yaml:"minPrice"`
	MaxPrice  float64 `yaml:"maxPrice"`
	Step      float64 `yaml:"step,omitempty"`      // grid step in currency units
	Points    int     `yaml:"points,omitempty"`    // alternative: evenly spaced point count
	Objective string  `yaml:"objective,omitempty"` // revenue, occupancy
	Capacity  float64 `yaml:"capacity,omitempty"`  // 0 = uncapped
	// TieEpsilon is the objective tolerance for the lowest-price tie-break.
	TieEpsilon float64 `yaml:"tieEpsilon,omitempty"`
	// AssumeUnimodal enables local refinement beyond the grid.
	AssumeUnimodal bool `yaml:"assumeUnimodal,omitempty"`
	HorizonDays    int  `yaml:"horizonDays,omitempty"`
	Workers        int  `yaml:"workers,omitempty"`
}

// ModelConfig controls demand model training.
type ModelConfig struct {
	Folds  int     `yaml:"folds,omitempty"`
	Lambda float64 `yaml:"lambda,omitempty"`
	Seed   int64   `yaml:"seed,omitempty"`
	// CacheSize bounds the LRU prediction memoizer.
	CacheSize int `yaml:"cacheSize,omitempty"`
}

// DecompositionConfig controls seasonal decomposition.
type DecompositionConfig struct {
	// PeriodHint is an extra candidate period; 0 means autocorrelation-only
	// inference over {7, 30, 365}.
	PeriodHint int `yaml:"periodHint,omitempty"`
	// MultiplicativeCVThreshold switches the decomposer to multiplicative
	// mode; a documented heuristic, not a rigorous test.
	MultiplicativeCVThreshold float64 `yaml:"multiplicativeCVThreshold,omitempty"`
}

// ElasticityConfig controls the advisory elasticity estimate.
type ElasticityConfig struct {
	MinDistinctPrices   int     `yaml:"minDistinctPrices,omitempty"`
	MinLogPriceVariance float64 `yaml:"minLogPriceVariance,omitempty"`
	DayOfWeekEffects    bool    `yaml:"dayOfWeekEffects,omitempty"`
}

// ConfidenceConfig holds the recommendation confidence thresholds.
type ConfidenceConfig struct {
	HighErrorCeiling      float64 `yaml:"highErrorCeiling,omitempty"`
	MinNearbyObservations int     `yaml:"minNearbyObservations,omitempty"`
	NearbyWindowPercent   float64 `yaml:"nearbyWindowPercent,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	if err := viper.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset options with the documented defaults.
func (c *Configuration) ApplyDefaults() {
	if c.Pricing.Step <= 0 && c.Pricing.Points <= 1 {
		c.Pricing.Step = constants.DefaultPriceStep
	}
	if c.Pricing.Objective == "" {
		c.Pricing.Objective = constants.ObjectiveRevenue
	}
	if c.Pricing.TieEpsilon <= 0 {
		c.Pricing.TieEpsilon = constants.DefaultTieEpsilon
	}
	if c.Pricing.HorizonDays <= 0 {
		c.Pricing.HorizonDays = constants.DefaultHorizonDays
	}
	if c.Model.Folds <= 0 {
		c.Model.Folds = constants.DefaultFoldCount
	}
	if c.Model.Lambda <= 0 {
		c.Model.Lambda = constants.DefaultRidgeLambda
	}
	if c.Model.Seed == 0 {
		c.Model.Seed = constants.DefaultTrainingSeed
	}
	if c.Model.CacheSize <= 0 {
		c.Model.CacheSize = constants.DefaultPredictionCacheSize
	}
	if c.Decomposition.MultiplicativeCVThreshold <= 0 {
		c.Decomposition.MultiplicativeCVThreshold = constants.DefaultMultiplicativeCVThreshold
	}
	if c.Elasticity.MinDistinctPrices <= 0 {
		c.Elasticity.MinDistinctPrices = constants.DefaultMinDistinctPrices
	}
	if c.Elasticity.MinLogPriceVariance <= 0 {
		c.Elasticity.MinLogPriceVariance = constants.DefaultMinLogPriceVariance
	}
	if c.Confidence.HighErrorCeiling <= 0 {
		c.Confidence.HighErrorCeiling = constants.DefaultHighErrorCeiling
	}
	if c.Confidence.MinNearbyObservations <= 0 {
		c.Confidence.MinNearbyObservations = constants.DefaultMinNearbyObservations
	}
	if c.Confidence.NearbyWindowPercent <= 0 {
		c.Confidence.NearbyWindowPercent = constants.DefaultNearbyWindowPercent
	}
}

// ValidateConfiguration checks the configuration and returns warnings for
// questionable but workable settings. Hard errors are returned separately by
// Validate.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	if c.Pricing.Capacity < 0 {
		warnings = append(warnings, "pricing.capacity is negative and will be treated as uncapped")
	}
	if c.Pricing.Step > 0 && c.Pricing.MaxPrice > c.Pricing.MinPrice {
		points := (c.Pricing.MaxPrice - c.Pricing.MinPrice) / c.Pricing.Step
		if points > 100000 {
			warnings = append(warnings, fmt.Sprintf("pricing.step %.4f yields %.0f grid points per day; optimization may be slow", c.Pricing.Step, points))
		}
	}
	if c.Pricing.AssumeUnimodal {
		warnings = append(warnings, "pricing.assumeUnimodal trusts the demand model's shape in price; refinement beyond the grid is enabled")
	}
	if c.Pricing.HorizonDays > constants.YearlyPeriod {
		warnings = append(warnings, "pricing.horizonDays exceeds one year; forward features become highly extrapolated")
	}
	return warnings
}

// Validate returns an error for configurations that cannot run.
func (c *Configuration) Validate() error {
	if c.Pricing.MinPrice <= 0 {
		return fmt.Errorf("pricing.minPrice must be positive, got %.2f", c.Pricing.MinPrice)
	}
	if c.Pricing.MinPrice > c.Pricing.MaxPrice {
		return fmt.Errorf("pricing.minPrice %.2f exceeds pricing.maxPrice %.2f", c.Pricing.MinPrice, c.Pricing.MaxPrice)
	}
	switch c.Pricing.Objective {
	case constants.ObjectiveRevenue, constants.ObjectiveOccupancy:
	default:
		return fmt.Errorf("pricing.objective must be %q or %q, got %q", constants.ObjectiveRevenue, constants.ObjectiveOccupancy, c.Pricing.Objective)
	}
	if c.Model.Folds < constants.MinFoldCount {
		return fmt.Errorf("model.folds must be at least %d, got %d", constants.MinFoldCount, c.Model.Folds)
	}
	return nil
}
