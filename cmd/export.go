package cmd

import (
	"github.com/spf13/cobra"

	"apflow/internal/export"
	"apflow/internal/logger"
)

var exportCmd = &cobra.Command{
	Use:   "export [request-file]",
	Short: "Build an ordered, hashed payment batch from approved invoices",
	Long: `Turn approved invoices into a payment export batch.

Payments are sorted by vendor_id and invoice_id, a remittance text is derived
where none is given, amounts are summed per currency and the batch is sealed
with a SHA-256 hash over a canonical serialization of the payments. The same
invoices always produce the same hash, whatever their input order.

Every invoice needs vendor_id, invoice_id, iban, amount, currency and
execution_date; an invalid invoice fails the whole batch.`,
	Example: `  # Export and print the batch
  apflow export export-request.json

  # Set the batch id and format label
  apflow export export-request.json --batch-id batch-2024-01 --format sepa-json -o batch.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Output file for the batch (default: stdout)")
	exportCmd.Flags().String("batch-id", "", "Export batch id (overrides the request; generated when both are empty)")
	exportCmd.Flags().String("format", "", "Export format label (default: APFLOW_EXPORT_FORMAT)")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	batchID, _ := cmd.Flags().GetString("batch-id")
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = appConfig.ExportFormat
	}

	var req export.Request
	if err := readRequest(args[0], &req, log); err != nil {
		return err
	}
	if batchID != "" {
		req.ExportBatchID = batchID
	}

	batch, err := export.NewExporter(format).Export(req)
	if err != nil {
		return err
	}

	return outputJSON(cmd, batch, outputPath, log)
}
