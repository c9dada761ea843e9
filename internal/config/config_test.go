package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pricecast/pricecast/pkg/constants"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	path := writeConfig(t, `
dataFile: history.csv
pricing:
  minPrice: 50
  maxPrice: 300
  objective: revenue
  capacity: 100
  horizonDays: 14
model:
  folds: 4
  lambda: 0.5
confidence:
  highErrorCeiling: 0.2
  minNearbyObservations: 5
logging:
  level: debug
  format: console
output:
  format: csv
`)
	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration returned error: %v", err)
	}
	if conf.DataFile != "history.csv" {
		t.Errorf("dataFile = %s, want history.csv", conf.DataFile)
	}
	if conf.Pricing.MinPrice != 50 || conf.Pricing.MaxPrice != 300 {
		t.Errorf("bounds = [%v, %v], want [50, 300]", conf.Pricing.MinPrice, conf.Pricing.MaxPrice)
	}
	if conf.Pricing.Capacity != 100 {
		t.Errorf("capacity = %v, want 100", conf.Pricing.Capacity)
	}
	if conf.Model.Folds != 4 {
		t.Errorf("folds = %d, want 4", conf.Model.Folds)
	}
	if conf.Confidence.HighErrorCeiling != 0.2 {
		t.Errorf("highErrorCeiling = %v, want 0.2", conf.Confidence.HighErrorCeiling)
	}
	if conf.Logging.Level != "debug" {
		t.Errorf("log level = %s, want debug", conf.Logging.Level)
	}
	if conf.Output.Format != "csv" {
		t.Errorf("output format = %s, want csv", conf.Output.Format)
	}
	// Defaults fill the rest.
	if conf.Pricing.Step != constants.DefaultPriceStep {
		t.Errorf("step default = %v, want %v", conf.Pricing.Step, constants.DefaultPriceStep)
	}
	if conf.Model.Seed != constants.DefaultTrainingSeed {
		t.Errorf("seed default = %v, want %v", conf.Model.Seed, constants.DefaultTrainingSeed)
	}
	if conf.Confidence.MinNearbyObservations != 5 {
		t.Errorf("minNearbyObservations = %d, want 5", conf.Confidence.MinNearbyObservations)
	}
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr bool
	}{
		{"valid", func(c *Configuration) {}, false},
		{"non-positive min price", func(c *Configuration) { c.Pricing.MinPrice = 0 }, true},
		{"inverted bounds", func(c *Configuration) { c.Pricing.MinPrice = 400 }, true},
		{"unknown objective", func(c *Configuration) { c.Pricing.Objective = "profit" }, true},
		{"one fold", func(c *Configuration) { c.Model.Folds = 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Configuration{
				Pricing: PricingConfig{MinPrice: 50, MaxPrice: 300},
			}
			conf.ApplyDefaults()
			tt.mutate(conf)
			err := conf.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	conf := &Configuration{
		Pricing: PricingConfig{MinPrice: 1, MaxPrice: 10000, Step: 0.0001, AssumeUnimodal: true},
	}
	conf.ApplyDefaults()
	warnings := conf.ValidateConfiguration()
	if len(warnings) < 2 {
		t.Errorf("expected warnings for huge grid and unimodal assumption, got %v", warnings)
	}
}
