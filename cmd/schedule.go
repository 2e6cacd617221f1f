package cmd

import (
	"github.com/spf13/cobra"

	"apflow/internal/approval"
	"apflow/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule [request-file]",
	Short: "Decide approval and compute the scheduled payment date",
	Long: `Apply an approval policy to a match summary.

The invoice is approved when the match status equals the required status and
the absolute amount variance does not exceed the variance threshold. Both
checks are always evaluated and every failed check is listed in reasons.
The payment date is the invoice date plus the payment terms in days.

Policy values missing from the request fall back to configuration:
  APFLOW_REQUIRED_STATUS     - required match status (default: matched)
  APFLOW_VARIANCE_THRESHOLD  - allowed absolute amount variance (default: 0)
  APFLOW_PAYMENT_TERMS_DAYS  - days from invoice date to payment (default: 14)`,
	Example: `  # Decide and print the result
  apflow schedule schedule-request.json

  # Save the decision
  apflow schedule schedule-request.json -o approval.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringP("output", "o", "", "Output file for the result (default: stdout)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("schedule-cmd")

	outputPath, _ := cmd.Flags().GetString("output")

	var req approval.Request
	if err := readRequest(args[0], &req, log); err != nil {
		return err
	}

	result, err := approval.NewScheduler(approvalDefaults(appConfig)).Schedule(req)
	if err != nil {
		return err
	}

	return outputJSON(cmd, result, outputPath, log)
}
