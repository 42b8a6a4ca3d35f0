package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quality_watchdog/internal/feature/quality/transport/http/dto"
	"quality_watchdog/internal/feature/quality/usecase"
)

var lastHashCmd = &cobra.Command{
	Use:   "last-hash",
	Short: "Print the content hash of the most recent stored result",
	Args:  cobra.NoArgs,
	RunE:  runLastHash,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent validation summaries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", usecase.DefaultHistoryLimit, "Number of summaries to show")

	rootCmd.AddCommand(lastHashCmd)
	rootCmd.AddCommand(historyCmd)
}

func runLastHash(cmd *cobra.Command, _ []string) error {
	return withDeps(cmd, func(ctx context.Context, d *deps) error {
		hash, ok, err := d.lastHash.LatestHash(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no stored results")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withDeps(cmd, func(ctx context.Context, d *deps) error {
		docs, err := d.history.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd, dto.NewHistoryResponse(docs))
	})
}
