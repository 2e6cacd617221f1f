package cmd

import (
	"github.com/spf13/cobra"

	"apflow/internal/intake"
	"apflow/internal/logger"
)

var intakeCmd = &cobra.Command{
	Use:   "intake [request-file]",
	Short: "Normalize a raw invoice submission and compute its totals",
	Long: `Validate a raw invoice submission and normalize it.

Quantities, unit prices and VAT rates are read as numbers (numeric strings are
accepted, missing values count as 0). Every line gets a line_total and a
vat_amount rounded to cents; subtotal, vat_total and grand_total are summed
from the rounded lines. An idempotency key is derived from invoice number,
invoice date and vendor VAT id unless the submission supplies one.

If any required field is missing, all violations are reported and nothing is
written.`,
	Example: `  # Normalize an invoice and print the result
  apflow intake invoice.json

  # Also write the normalized invoice and the evidence record
  apflow intake invoice.yaml -o result.json --normalized invoice.normalized.json --evidence evidence.json

  # Read from stdin
  cat invoice.json | apflow intake -`,
	Args: cobra.ExactArgs(1),
	RunE: runIntake,
}

func init() {
	rootCmd.AddCommand(intakeCmd)

	intakeCmd.Flags().StringP("output", "o", "", "Output file for the result (default: stdout)")
	intakeCmd.Flags().String("normalized", "", "Write the normalized invoice to this file")
	intakeCmd.Flags().String("evidence", "", "Write the derived-evidence record to this file")
}

func runIntake(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("intake-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	normalizedPath, _ := cmd.Flags().GetString("normalized")
	evidencePath, _ := cmd.Flags().GetString("evidence")

	var req intake.Request
	if err := readRequest(args[0], &req, log); err != nil {
		return err
	}

	outcome, err := intake.NewNormalizer().Normalize(req)
	if err != nil {
		return err
	}

	if err := writeSideDocument(normalizedPath, outcome.Invoice, "normalized invoice", log); err != nil {
		return err
	}
	if err := writeSideDocument(evidencePath, outcome.Evidence, "evidence", log); err != nil {
		return err
	}

	return outputJSON(cmd, outcome.Result, outputPath, log)
}
