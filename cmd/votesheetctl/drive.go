package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/votesheet/internal/driver"
	"github.com/okian/votesheet/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultDriveTimeout = 10 * time.Minute

func newDriveCmd() *cobra.Command {
	cfg := &driver.Config{}
	var (
		logFormat string
		deadline  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Submit random edits to a running service and verify its rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()

			stats, err := driver.Run(ctx, cfg)
			if stats != nil && stats.EditsSubmitted > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s edits, %d coerced, revision %d, took %s\n",
					humanize.Comma(int64(stats.EditsSuccessful)), stats.Coerced, stats.Revision, stats.Duration.Round(time.Millisecond))
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	flags.IntVar(&cfg.Edits, "edits", driver.DefaultEdits, "Number of edits to submit")
	flags.IntVar(&cfg.Workers, "workers", driver.DefaultWorkers, "Number of concurrent workers")
	flags.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "Seed for the edit generator")
	flags.IntVar(&cfg.MaxValue, "max-value", driver.DefaultMaxValue, "Largest well-formed vote value")
	flags.BoolVar(&cfg.Reset, "reset", false, "Reset the sheet before editing")
	flags.DurationVar(&cfg.Timeout, "timeout", driver.DefaultTimeout, "HTTP request timeout")
	flags.DurationVar(&deadline, "deadline", defaultDriveTimeout, "Overall run deadline")
	flags.StringVar(&cfg.OutputFile, "output", "", "Write generated edits to this JSON file")
	flags.StringVar(&logFormat, "log-format", logger.FormatText, "Log format: text or json")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "Log every failed edit")
	return cmd
}
