// Package validation classifies per-category vote usage against the advisory
// ceilings. Nothing here rejects an edit.
package validation

import (
	"math"

	"github.com/okian/votesheet/internal/domain/scoring"
)

// Status is the utilization class of a category.
type Status string

// Utilization classes.
const (
	StatusNormal    Status = "normal"
	StatusWarning   Status = "warning"
	StatusOverLimit Status = "over-limit"
)

// DefaultWarningPercent is the utilization above which a category warns.
const DefaultWarningPercent = 80.0

// Usage is the utilization of one category.
type Usage struct {
	Category int
	Key      string
	Label    string
	Used     int
	Max      int
	Percent  float64 // +Inf when Max is 0 and Used is positive
	Status   Status
}

// Rules evaluates utilization.
type Rules struct {
	warningPercent float64
}

// Option applies a configuration option to Rules.
type Option func(*Rules)

// WithWarningPercent sets the warning threshold. Values outside (0, 100] are
// ignored.
func WithWarningPercent(p float64) Option {
	return func(r *Rules) {
		if p > 0 && p <= 100 {
			r.warningPercent = p
		}
	}
}

// NewRules returns rules with the default 80% threshold.
func NewRules(opts ...Option) *Rules {
	r := &Rules{warningPercent: DefaultWarningPercent}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WarningPercent returns the configured threshold.
func (r *Rules) WarningPercent() float64 { return r.warningPercent }

// Percent returns used/max as a percentage. A zero ceiling yields 0 when
// nothing is used and +Inf otherwise.
func Percent(used, maxVotes int) float64 {
	if maxVotes <= 0 {
		if used <= 0 {
			return 0
		}
		return math.Inf(1)
	}
	return float64(used) / float64(maxVotes) * 100
}

// Classify maps a percentage to a status.
func (r *Rules) Classify(percent float64) Status {
	switch {
	case percent > 100:
		return StatusOverLimit
	case percent > r.warningPercent:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// Evaluate returns the usage of every category in column order.
func (r *Rules) Evaluate(s *scoring.Sheet) []Usage {
	cats := s.Categories()
	out := make([]Usage, len(cats))
	for j, c := range cats {
		used := s.CategoryTotal(j)
		pct := Percent(used, c.MaxVotes)
		out[j] = Usage{
			Category: j,
			Key:      c.Key,
			Label:    c.Label(),
			Used:     used,
			Max:      c.MaxVotes,
			Percent:  pct,
			Status:   r.Classify(pct),
		}
	}
	return out
}

// OverLimit counts categories classified over-limit.
func OverLimit(usage []Usage) int {
	n := 0
	for _, u := range usage {
		if u.Status == StatusOverLimit {
			n++
		}
	}
	return n
}
