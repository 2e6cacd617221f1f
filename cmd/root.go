package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"apflow/internal/approval"
	"apflow/internal/config"
	"apflow/internal/logger"
	"apflow/internal/pipeline"
	"apflow/pkg/models"
)

var version = "1.0.0"

// appConfig is replaced by PersistentPreRunE before any command runs.
var appConfig = config.Default()

var rootCmd = &cobra.Command{
	Use:   "apflow",
	Short: "apflow - invoice-to-payment reconciliation",
	Long: `apflow turns vendor invoices into payment decisions and tamper-evident
payment batches.

Each stage can be run on its own, reading a JSON (or YAML) request document
and writing a JSON result document:

  intake    normalize a raw invoice and compute its totals
  match     pair invoice lines with purchase order lines
  schedule  decide approval and compute the payment date
  export    build an ordered, hashed payment batch
  verify    recompute the hash of an exported batch

The run and batch commands chain all stages for one or many invoices.

Configuration is read from APFLOW_* environment variables (a .env file is
loaded first) and an optional config file given with --config or APFLOW_CONFIG.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (JSON, YAML or TOML); defaults to $APFLOW_CONFIG")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	appConfig = cfg
	return nil
}

func approvalDefaults(cfg *config.Config) approval.Defaults {
	return approval.Defaults{
		PaymentTermsDays:  cfg.PaymentTermsDays,
		RequiredStatus:    models.MatchStatus(cfg.RequiredStatus),
		VarianceThreshold: cfg.VarianceThreshold,
	}
}

func newRunner(cfg *config.Config) *pipeline.Runner {
	return pipeline.NewRunner(pipeline.Options{
		Defaults:     approvalDefaults(cfg),
		ExportFormat: cfg.ExportFormat,
	})
}
