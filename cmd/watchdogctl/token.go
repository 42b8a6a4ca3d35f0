package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	jwtmw "quality_watchdog/internal/platform/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the /api endpoints",
	Long:  `Signs an HS256 token with MONITOR_JWT_SECRET (or --secret) for schedulers and dashboards.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

var (
	tokenSubject string
	tokenTTL     time.Duration
	tokenSecret  string
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "scheduler", "Token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "Signing secret (defaults to MONITOR_JWT_SECRET)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	secret := tokenSecret
	if secret == "" {
		secret = os.Getenv("MONITOR_JWT_SECRET")
	}
	if secret == "" {
		return errors.New("no signing secret: set MONITOR_JWT_SECRET or pass --secret")
	}
	if tokenTTL <= 0 {
		return errors.New("--ttl must be positive")
	}

	token, err := jwtmw.NewGenerator(secret, tokenTTL).GenerateToken(tokenSubject)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
