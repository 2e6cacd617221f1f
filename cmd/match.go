package cmd

import (
	"github.com/spf13/cobra"

	"apflow/internal/logger"
	"apflow/internal/matcher"
)

var matchCmd = &cobra.Command{
	Use:   "match [request-file]",
	Short: "Match a normalized invoice against its purchase order",
	Long: `Pair every invoice line with at most one purchase order line.

Lines are paired by SKU first and by normalized description second, always
taking the first unused PO line in PO order. Each line is classified as
matched, partial or unmatched, and quantity, unit price and line total
variances are summed into the match summary.

The request document has the shape:
  {"invoice": {...}, "purchase_order": {...}, "tolerances": {...}, "metadata": {...}}`,
	Example: `  # Match and print the result
  apflow match match-request.json

  # Save the result
  apflow match match-request.yaml -o match.json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("output", "o", "", "Output file for the result (default: stdout)")
}

func runMatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("match-cmd")

	outputPath, _ := cmd.Flags().GetString("output")

	var req matcher.Request
	if err := readRequest(args[0], &req, log); err != nil {
		return err
	}

	result, err := matcher.NewMatcher().Match(req)
	if err != nil {
		return err
	}

	return outputJSON(cmd, result, outputPath, log)
}
