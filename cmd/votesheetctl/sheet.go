package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/votesheet/internal/adapters/repository"
	"github.com/okian/votesheet/internal/config"
	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/internal/domain/validation"
	"github.com/okian/votesheet/internal/votefile"
	"github.com/spf13/cobra"
)

// loadSnapshot builds the configured sheet, applies the votes file and
// returns the resulting snapshot. Coercions are reported on warn.
func loadSnapshot(ctx context.Context, cmd *cobra.Command, votesPath string, warn io.Writer) (*repository.Snapshot, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.LoadFile(ctx, cfgPath)
	if err != nil {
		return nil, err
	}

	sheet, err := scoring.New(cfg.SheetCategories(), cfg.Candidates)
	if err != nil {
		return nil, fmt.Errorf("build sheet: %w", err)
	}

	f, err := votefile.Load(votesPath)
	if err != nil {
		return nil, err
	}
	rep, err := f.Apply(sheet)
	if err != nil {
		return nil, err
	}
	for kind, n := range rep.Coercions {
		fmt.Fprintf(warn, "warning: %d value(s) coerced (%s)\n", n, kind)
	}

	store := repository.NewSheetStore(sheet,
		repository.WithTopN(cfg.TopN),
		repository.WithRules(validation.NewRules(validation.WithWarningPercent(cfg.WarningPercent))),
	)
	return store.Snapshot(ctx), nil
}
