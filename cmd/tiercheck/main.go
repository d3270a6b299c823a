package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nebulon/tierd/internal/tiercheck"
	"github.com/nebulon/tierd/pkg/logger"
)

// Default configuration constants.
const (
	defaultSets        = 200
	defaultSetSize     = 500
	defaultMaxScore    = 1_000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &tiercheck.Config{}
	var logFormat, logLevel string

	cmd := &cobra.Command{
		Use:   "tiercheck",
		Short: "Check a running tier service against the ranking rules",
		Long: `tiercheck generates random score sets with uuid handles, submits them to
POST /calculate-tiers concurrently and verifies every response: distinct
ranks, percentile = rank / N * 100, the first tier whose ceiling covers the
percentile, and submission order among equal scores.`,
		Example: `  tiercheck --url http://localhost:9080
  tiercheck --sets 1000 --size 50 --max-score 5 --seed 42`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat)); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if err := logger.SetLevelString(logLevel); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
			defer cancel()

			_, err := tiercheck.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Sets, "sets", defaultSets, "Number of score sets to submit")
	f.IntVar(&cfg.SetSize, "size", defaultSetSize, "Entries per score set")
	f.Int64Var(&cfg.MaxScore, "max-score", defaultMaxScore, "Largest generated score; small values force ties")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submissions")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.Int64Var(&cfg.Seed, "seed", 0, "Generator seed (0 picks one from the clock)")
	f.StringVar(&cfg.OutputFile, "output", "", "Write the generated score sets to this JSON file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Log every violated property")
	f.StringVar(&logFormat, "log-format", logger.FormatText, "Log format (text, json)")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}
