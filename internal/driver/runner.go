package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/votesheet/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a complete drive against cfg.BaseURL and returns its
// statistics. It fails when any edit fails, any stored value differs from
// local coercion, or the final sheet does not verify.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get()
	applyDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting vote sheet drive",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("edits", cfg.Edits),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
		logger.Bool("reset", cfg.Reset))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Learn the sheet dimensions, resetting first when asked
	sheet, err := client.Sheet(ctx)
	if cfg.Reset && err == nil {
		sheet, err = client.Reset(ctx)
	}
	if err != nil {
		return stats, fmt.Errorf("sheet retrieval failed: %w", err)
	}

	// Step 3: Generate edits
	edits := GenerateEdits(cfg.Seed, cfg.Edits, len(sheet.Rows), len(sheet.Categories), cfg.MaxValue)
	if len(edits) == 0 {
		return stats, ErrNoEdits
	}
	stats.EditsGenerated = len(edits)

	// Step 4: Submit edits concurrently
	submitEdits(ctx, client, cfg, edits, stats)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("edit submission interrupted: %w", err)
	}

	// Step 5: Read back and verify
	sheet, err = client.Sheet(ctx)
	if err != nil {
		return stats, fmt.Errorf("sheet retrieval failed: %w", err)
	}
	rankings, err := client.Rankings(ctx, len(sheet.Rows))
	if err != nil {
		return stats, fmt.Errorf("ranking retrieval failed: %w", err)
	}
	stats.Revision = sheet.Revision
	stats.TopScore = sheet.Summary.TopScore
	verifyErr := Verify(sheet, rankings)

	// Step 6: Save edits to file
	if cfg.OutputFile != "" {
		if err := saveEdits(cfg.OutputFile, edits); err != nil {
			log.Warn(ctx, "failed to save edits to file", logger.Error(err))
		} else {
			log.Info(ctx, "edits saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	switch {
	case verifyErr != nil:
		return stats, verifyErr
	case stats.EditsFailed > 0 || stats.Mismatched > 0:
		return stats, fmt.Errorf("%w: %d failed and %d mismatched edits", ErrVerification, stats.EditsFailed, stats.Mismatched)
	}
	log.Info(ctx, "drive completed successfully")
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxValue <= 0 {
		cfg.MaxValue = DefaultMaxValue
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}

// saveEdits writes the generated edits as a JSON array.
func saveEdits(filename string, edits []Edit) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(edits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal edits: %w", err)
	}
	return os.WriteFile(filename, append(data, '\n'), filePermission)
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var editsPerSecond float64
	if stats.Duration > 0 {
		editsPerSecond = float64(stats.EditsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("editsGenerated", humanize.Comma(int64(stats.EditsGenerated))),
		logger.String("editsSuccessful", humanize.Comma(int64(stats.EditsSuccessful))),
		logger.Int("editsFailed", stats.EditsFailed),
		logger.Int("coerced", stats.Coerced),
		logger.Int("mismatched", stats.Mismatched),
		logger.Uint64("revision", stats.Revision),
		logger.Float64("topScore", stats.TopScore),
		logger.String("duration", stats.Duration.String()),
		logger.String("editsPerSecond", humanize.FormatFloat("#,###.#", editsPerSecond)))
}
