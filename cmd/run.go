package cmd

import (
	"github.com/spf13/cobra"

	"apflow/internal/logger"
	"apflow/internal/pipeline"
	"apflow/pkg/models"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run intake, match, schedule and export for one invoice",
	Long: `Chain all stages for a single invoice and write every stage document into
the output directory:

  intake.json               intake result
  normalized_invoice.json   normalized invoice
  evidence.json             derived-evidence record
  match.json                matcher result
  approval.json             approval decision
  export.json               payment batch (only when approved and a payee is given)

The policy file may carry required_status, variance_threshold,
payment_terms_days and tolerances. The payee file carries the bank details
used for the payment: vendor_id, creditor_name, iban and bic.`,
	Example: `  # Full run with policy and payee
  apflow run --invoice invoice.json --po po.json --policy policy.yaml --payee payee.json --out-dir out/INV-1001

  # Decide only, no export
  apflow run --invoice invoice.json --po po.json --out-dir out/INV-1001`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

// RunOutput is the run command's result document.
type RunOutput struct {
	InvoiceNumber string          `json:"invoice_number"`
	MatchStatus   string          `json:"match_status"`
	Decision      models.Decision `json:"decision"`
	Reasons       []string        `json:"reasons"`
	ExportHash    string          `json:"export_hash,omitempty"`
	ExportSkipped string          `json:"export_skipped,omitempty"`
	OutDir        string          `json:"out_dir"`
	Files         []string        `json:"files"`
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("invoice", "", "Raw invoice submission [REQUIRED]")
	runCmd.Flags().String("po", "", "Purchase order document [REQUIRED]")
	runCmd.Flags().String("policy", "", "Approval policy document")
	runCmd.Flags().String("payee", "", "Payee bank details document")
	runCmd.Flags().String("batch-id", "", "Export batch id (generated when empty)")
	runCmd.Flags().String("out-dir", "out", "Directory for the stage documents")

	runCmd.MarkFlagRequired("invoice")
	runCmd.MarkFlagRequired("po")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("run-cmd")

	invoicePath, _ := cmd.Flags().GetString("invoice")
	poPath, _ := cmd.Flags().GetString("po")
	policyPath, _ := cmd.Flags().GetString("policy")
	payeePath, _ := cmd.Flags().GetString("payee")
	batchID, _ := cmd.Flags().GetString("batch-id")
	outDir, _ := cmd.Flags().GetString("out-dir")

	manifest := pipeline.Manifest{ExportBatchID: batchID}
	if err := readRequest(invoicePath, &manifest.Invoice, log); err != nil {
		return err
	}
	if err := readRequest(poPath, &manifest.PurchaseOrder, log); err != nil {
		return err
	}
	if policyPath != "" {
		var policy pipeline.PolicyDocument
		if err := readRequest(policyPath, &policy, log); err != nil {
			return err
		}
		policy.Apply(&manifest)
	}
	if payeePath != "" {
		var payee pipeline.Payee
		if err := readRequest(payeePath, &payee, log); err != nil {
			return err
		}
		manifest.Payee = &payee
	}

	log.Info().
		Str("invoice", invoicePath).
		Str("po", poPath).
		Str("out_dir", outDir).
		Msg("Starting pipeline run")

	report, err := newRunner(appConfig).Run(manifest)
	if err != nil {
		return err
	}

	files, err := pipeline.WriteReport(outDir, report)
	if err != nil {
		return err
	}

	output := RunOutput{
		InvoiceNumber: report.Invoice.InvoiceNumber,
		MatchStatus:   string(report.Match.MatchSummary.Status),
		Decision:      report.Decision(),
		Reasons:       report.Approval.Reasons,
		ExportSkipped: report.ExportSkipped,
		OutDir:        outDir,
		Files:         files,
	}
	if report.Export != nil {
		output.ExportHash = report.Export.ExportHash
	}

	return outputJSON(cmd, output, "", log)
}
