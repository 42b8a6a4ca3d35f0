package main

import (
	"context"

	"github.com/spf13/cobra"

	"quality_watchdog/internal/feature/quality/transport/http/dto"
	"quality_watchdog/internal/feature/quality/usecase"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the validation pipeline once",
	Long:  `Fetches the upstream payload, validates it if it changed, stores the summary and sends alerts. Prints the same JSON body as GET /api/monitor.`,
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

// runForce skips change detection.
var runForce bool

func init() {
	runCmd.Flags().BoolVar(&runForce, "force", false, "Validate even when the payload is unchanged")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	return withDeps(cmd, func(ctx context.Context, d *deps) error {
		res, err := d.monitor.Run(ctx, runForce)
		if err != nil {
			_ = printJSON(cmd, dto.ErrorResponse{Error: err.Error()})
			return err
		}
		if res.Outcome == usecase.OutcomeSkipped || res.Summary == nil {
			return printJSON(cmd, dto.MessageResponse{Message: res.Message})
		}
		return printJSON(cmd, dto.MonitorResponse{Summary: dto.NewSummaryResponse(*res.Summary)})
	})
}
