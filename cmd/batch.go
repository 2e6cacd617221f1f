package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"apflow/internal/logger"
	"apflow/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch [manifest-dir]",
	Short: "Run the full pipeline for every manifest in a folder",
	Long: `Run intake, match, schedule and export for every run manifest (JSON or YAML)
directly inside a folder, using a pool of parallel workers.

A run manifest bundles everything one run needs:
  {"invoice": {...}, "purchase_order": {...}, "policy": {...},
   "payment_terms_days": 14, "tolerances": {...}, "payee": {...}}

Each run is independent; a failing manifest does not stop the others. With
--out-dir every run writes its stage documents to <out-dir>/<manifest name>.
Progress is printed to stderr and the batch summary to stdout (or -o).

Optional environment variables:
  APFLOW_BATCH_WORKERS - Number of parallel workers (default: 4)`,
	Example: `  # Process all manifests in a folder
  apflow batch ./manifests --out-dir ./out

  # Use 8 workers and save the summary
  apflow batch ./manifests --workers 8 -o summary.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("workers", 0, "Number of parallel workers (default: APFLOW_BATCH_WORKERS)")
	batchCmd.Flags().String("out-dir", "", "Write each run's stage documents below this directory")
	batchCmd.Flags().StringP("output", "o", "", "Output file for the batch summary (default: stdout)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch-cmd")

	folderPath := args[0]
	workers, _ := cmd.Flags().GetInt("workers")
	outDir, _ := cmd.Flags().GetString("out-dir")
	outputPath, _ := cmd.Flags().GetString("output")
	if workers <= 0 {
		workers = appConfig.BatchWorkers
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	manifests, err := pipeline.FindManifests(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find manifests: %w", err)
	}
	if len(manifests) == 0 {
		log.Warn().Str("folder", folderPath).Msg("No manifests found")
		return outputJSON(cmd, pipeline.Summarize(nil), outputPath, log)
	}

	// Stop handing out new manifests on Ctrl+C; runs in flight finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("folder", folderPath).
		Int("manifests", len(manifests)).
		Int("workers", workers).
		Msg("Starting batch run")

	stderr := cmd.ErrOrStderr()
	progress := func(done, total int, result pipeline.BatchResult) {
		name := filepath.Base(result.Manifest)
		if result.Err != nil {
			fmt.Fprintf(stderr, "[%d/%d] %s - failed (%v)\n", done, total, name, result.Err)
			return
		}
		fmt.Fprintf(stderr, "[%d/%d] %s - %s\n", done, total, name, result.Report.Decision())
	}

	results := newRunner(appConfig).RunBatch(ctx, manifests, workers, outDir, progress)
	summary := pipeline.Summarize(results)

	log.Info().
		Int("total", summary.Total).
		Int("approved", summary.Approved).
		Int("needs_review", summary.NeedsReview).
		Int("failed", summary.Failed).
		Int("exported", summary.Exported).
		Msg("Batch run completed")

	if err := outputJSON(cmd, summary, outputPath, log); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d manifests failed", summary.Failed, summary.Total)
	}
	return nil
}
