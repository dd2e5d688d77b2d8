// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a YAML file and environment variables on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/votesheet/internal/domain/model"
)

// Default thresholds and sizes.
const (
	defaultTopN           = 9
	defaultWarningPercent = 80
	defaultFeedBuffer     = 16
	defaultCategoryCount  = 5
)

// Category describes one voting bucket.
type Category struct {
	Key      string  `koanf:"key"`
	Name     string  `koanf:"name"`
	Weight   float64 `koanf:"weight"`
	MaxVotes int     `koanf:"max_votes"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// TopN is the number of highlighted leaders.
	TopN int `koanf:"top_n"`
	// WarningPercent is the utilization above which a category is flagged.
	WarningPercent float64 `koanf:"warning_percent"`
	// FeedBuffer bounds each change feed subscriber.
	FeedBuffer int `koanf:"feed_buffer"`
	// Categories are the five weighted voting buckets, in column order.
	Categories []Category `koanf:"categories"`
	// Candidates is the ordered list of names on the sheet.
	Candidates []string `koanf:"candidates"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		TopN:           defaultTopN,
		WarningPercent: defaultWarningPercent,
		FeedBuffer:     defaultFeedBuffer,
		Categories:     DefaultCategories(),
		Candidates:     DefaultCandidates(),
	}
}

// DefaultCategories returns the stock five categories.
func DefaultCategories() []Category {
	return []Category{
		{Key: "A", Name: "1995", Weight: 1.870, MaxVotes: 94},
		{Key: "B", Name: "1695", Weight: 1.574, MaxVotes: 300},
		{Key: "C", Name: "1495", Weight: 1.398, MaxVotes: 391},
		{Key: "D", Name: "13XX", Weight: 1.261, MaxVotes: 647},
		{Key: "E", Name: "1030", Weight: 1.000, MaxVotes: 6},
	}
}

// DefaultCandidates returns the stock candidate list.
func DefaultCandidates() []string {
	return []string{
		"Abhishek Tiwari", "Ajay Jaitly", "Amit Singh", "Arijit Ghosh",
		"Mahendra Singh Yadav", "Milan Saxena", "Mukesh Kumar Gupta", "Nisha Singh",
		"Rajendra Kumar Gupta", "Rakesh Kumar Singh", "Sanjay Taneja", "Saurabh C Verma",
		"Sumit Manocha", "S.C. Bisht", "Vibhor Gupta", "Yogendra Bajaj",
	}
}

// Validate checks the static sheet definition and server settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.TopN < 1 {
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidConfig, c.TopN)
	}
	if c.WarningPercent <= 0 || c.WarningPercent > 100 {
		return fmt.Errorf("%w: warning_percent must be in (0, 100], got %g", ErrInvalidConfig, c.WarningPercent)
	}
	if c.FeedBuffer < 1 {
		return fmt.Errorf("%w: feed_buffer must be positive, got %d", ErrInvalidConfig, c.FeedBuffer)
	}
	if len(c.Categories) != defaultCategoryCount {
		return fmt.Errorf("%w: exactly %d categories required, got %d", ErrInvalidConfig, defaultCategoryCount, len(c.Categories))
	}
	keys := make(map[string]struct{}, len(c.Categories))
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Key) == "" {
			return fmt.Errorf("%w: category %d has no key", ErrInvalidConfig, i)
		}
		if _, dup := keys[cat.Key]; dup {
			return fmt.Errorf("%w: duplicate category key %q", ErrInvalidConfig, cat.Key)
		}
		keys[cat.Key] = struct{}{}
		if cat.Weight <= 0 {
			return fmt.Errorf("%w: category %s weight must be positive", ErrInvalidConfig, cat.Key)
		}
		if cat.MaxVotes < 0 {
			return fmt.Errorf("%w: category %s max_votes must not be negative", ErrInvalidConfig, cat.Key)
		}
	}
	if len(c.Candidates) == 0 {
		return fmt.Errorf("%w: at least one candidate required", ErrInvalidConfig)
	}
	for i, name := range c.Candidates {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: candidate %d has an empty name", ErrInvalidConfig, i)
		}
	}
	return nil
}

// SheetCategories converts the configured categories to the domain model.
func (c *Config) SheetCategories() []model.Category {
	cats := make([]model.Category, len(c.Categories))
	for i, cat := range c.Categories {
		cats[i] = model.Category{Key: cat.Key, Name: cat.Name, Weight: cat.Weight, MaxVotes: cat.MaxVotes}
	}
	return cats
}
