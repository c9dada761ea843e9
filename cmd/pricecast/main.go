package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pricecast/pricecast/internal/config"
	"github.com/pricecast/pricecast/internal/engine"
	"github.com/pricecast/pricecast/internal/modelstore"
	"github.com/pricecast/pricecast/pkg/constants"
	"github.com/pricecast/pricecast/pkg/dataset"
	"github.com/pricecast/pricecast/pkg/output"
	"github.com/pricecast/pricecast/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configLocation string
	logLevel       string

	modelOut         string
	modelIn          string
	outputFormatFlag string
	metricsListen    string
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// setup loads configuration, builds the logger, and logs any configuration
// warnings. Every subcommand starts here.
func setup() (*config.Configuration, *zap.Logger, error) {
	conf, err := config.LoadConfiguration(configLocation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration at %s: %w", configLocation, err)
	}

	logger, err := initializeLogger(conf.Logging, logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	return conf, logger, nil
}

func loadData(conf *config.Configuration, logger *zap.Logger) (*dataset.Dataset, error) {
	ds, err := dataset.LoadCSV(conf.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations from %s: %w", conf.DataFile, err)
	}
	logger.Info("loaded historical observations",
		zap.String("op", "main"),
		zap.String("dataFile", conf.DataFile),
		zap.Int("records", len(ds.Records)),
	)
	return ds, nil
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the demand model from historical observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			ds, err := loadData(conf, logger)
			if err != nil {
				return err
			}

			eng, err := engine.New(logger, conf)
			if err != nil {
				return err
			}

			artifacts, err := eng.Train(ds)
			if err != nil {
				return err
			}

			if modelOut != "" {
				if err := modelstore.Save(modelOut, artifacts.Model); err != nil {
					return fmt.Errorf("failed to persist model: %w", err)
				}
				logger.Info("persisted trained model",
					zap.String("op", "main"),
					zap.String("modelID", artifacts.Model.ID()),
					zap.String("path", modelOut),
				)
			}

			cv := artifacts.Model.CV()
			fmt.Printf("model %s trained on %d rows (cv MAE %.4f, R^2 %.4f over %d folds)\n",
				artifacts.Model.ID(), artifacts.Model.Rows(), cv.MAE, cv.RSquared, cv.Folds)
			return nil
		},
	}
	cmd.Flags().StringVar(&modelOut, "model-out", "", "path to write the trained model")
	return cmd
}

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend prices for the forward horizon",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			outputFormat := conf.Output.Format
			if outputFormatFlag != "" {
				outputFormat = outputFormatFlag
			}
			if outputFormat == "" {
				outputFormat = constants.OutputFormatPretty
			}
			if err := validation.ValidateOutputFormat(outputFormat); err != nil {
				return err
			}

			if metricsListen != "" {
				go func() {
					http.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(metricsListen, nil); err != nil && err != http.ErrServerClosed {
						logger.Error("metrics listener failed",
							zap.String("op", "main"),
							zap.Error(err),
						)
					}
				}()
			}

			ds, err := loadData(conf, logger)
			if err != nil {
				return err
			}

			eng, err := engine.New(logger, conf)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			artifacts, err := trainOrLoad(eng, ds, logger)
			if err != nil {
				return err
			}

			recs, err := eng.Recommend(ctx, ds, artifacts.Model, artifacts.Elasticity)
			if err != nil {
				return err
			}

			switch outputFormat {
			case constants.OutputFormatPretty:
				output.PrettyFormat(recs)
			case constants.OutputFormatCSV:
				output.CsvFormat(recs)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modelIn, "model", "", "path to a previously trained model (omit to train in place)")
	cmd.Flags().StringVar(&outputFormatFlag, "output-format", "", "type of output override: pretty, csv")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "address to serve Prometheus metrics on, e.g. :9090")
	return cmd
}

// trainOrLoad resolves the model for a recommendation run. With --model it
// loads the persisted blob and skips training; elasticity is then recomputed
// from the data because the blob does not carry it.
func trainOrLoad(eng *engine.Engine, ds *dataset.Dataset, logger *zap.Logger) (*engine.TrainingArtifacts, error) {
	if modelIn == "" {
		return eng.Train(ds)
	}
	trained, err := modelstore.Load(modelIn)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from %s: %w", modelIn, err)
	}
	logger.Info("loaded persisted model",
		zap.String("op", "main"),
		zap.String("modelID", trained.ID()),
		zap.String("path", modelIn),
	)
	return &engine.TrainingArtifacts{Model: trained}, nil
}

func elasticityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "elasticity",
		Short: "Estimate the price elasticity of demand from the observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			ds, err := loadData(conf, logger)
			if err != nil {
				return err
			}

			eng, err := engine.New(logger, conf)
			if err != nil {
				return err
			}

			artifacts, err := eng.Train(ds)
			if err != nil {
				return err
			}
			if artifacts.Elasticity == nil {
				return fmt.Errorf("elasticity could not be estimated from %d observations", len(ds.Records))
			}

			el := artifacts.Elasticity
			fmt.Printf("elasticity: %.4f (R^2 %.4f, %d observations, %d distinct prices, range $%.2f - $%.2f)\n",
				el.Elasticity, el.RSquared, el.Observations, el.DistinctPrices, el.MinPrice, el.MaxPrice)
			if el.LowConfidence {
				fmt.Printf("warning: price variation in the data is limited; treat this estimate as low confidence\n")
			}
			if el.Counterintuitive {
				fmt.Printf("warning: elasticity is non-negative; demand does not appear to fall with price\n")
			}
			return nil
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "pricecast",
		Short:         "Demand-driven price recommendations from historical observations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(elasticityCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
