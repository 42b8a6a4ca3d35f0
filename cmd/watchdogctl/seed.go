package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var seedDemoCmd = &cobra.Command{
	Use:   "seed-demo",
	Short: "Replace demo history with a generated dataset",
	Long: `Deletes documents flagged demo_data and inserts generated summaries covering the
last --hours at --interval spacing, for trying out dashboards.`,
	Args: cobra.NoArgs,
	RunE: runSeedDemo,
}

var (
	seedHours    int
	seedInterval time.Duration
)

func init() {
	seedDemoCmd.Flags().IntVar(&seedHours, "hours", 72, "Hours of history to generate")
	seedDemoCmd.Flags().DurationVar(&seedInterval, "interval", time.Hour, "Spacing between generated summaries")
	rootCmd.AddCommand(seedDemoCmd)
}

func runSeedDemo(cmd *cobra.Command, _ []string) error {
	return withDeps(cmd, func(ctx context.Context, d *deps) error {
		rep, err := d.demo.SeedDemo(ctx, seedHours, seedInterval)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "deleted %d existing demo documents\n", rep.Deleted)
		fmt.Fprintf(out, "inserted %d demo documents\n", rep.Inserted)
		fmt.Fprintf(out, "total documents: %d (demo: %d)\n", rep.Stats.Total, rep.Stats.Demo)
		fmt.Fprintf(out, "success rate: %.1f%%\n", rep.Stats.SuccessRate)
		fmt.Fprintf(out, "average quality: %.1f%%\n", rep.Stats.AvgPercentValid)
		fmt.Fprintln(out, "latest:")
		for _, doc := range rep.Latest {
			status := "PASS"
			if !doc.Success {
				status = "FAIL"
			}
			fmt.Fprintf(out, "  %s  %s  %.1f%%\n", doc.Timestamp.Format("2006-01-02 15:04"), status, doc.PercentValid)
		}
		return nil
	})
}
