package driver

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/internal/domain/types"
	"github.com/okian/votesheet/internal/domain/validation"
)

// Rebuild turns a served sheet back into a local scoring model.
func Rebuild(sheet types.Sheet) (*scoring.Sheet, error) {
	cats := make([]model.Category, len(sheet.Categories))
	for i, c := range sheet.Categories {
		cats[i] = model.Category{Key: c.Key, Name: c.Name, Weight: c.Weight, MaxVotes: c.MaxVotes}
	}
	names := make([]string, len(sheet.Rows))
	votes := make([][]int, len(sheet.Rows))
	for i, r := range sheet.Rows {
		names[i] = r.Name
		votes[i] = r.Votes
	}
	return scoring.New(cats, names, scoring.WithInitialVotes(votes))
}

// Verify recomputes every derived value of sheet and compares it with what
// the service served, including the separately fetched rankings. All
// discrepancies are joined into one error.
func Verify(sheet types.Sheet, rankings []types.Entry) error {
	local, err := Rebuild(sheet)
	if err != nil {
		return fmt.Errorf("%w: rebuild: %w", ErrVerification, err)
	}
	var errs []error

	for i, r := range sheet.Rows {
		if r.TotalVotes != local.TotalVotes(i) {
			errs = append(errs, fmt.Errorf("row %d total %d, want %d", i, r.TotalVotes, local.TotalVotes(i)))
		}
		if !closeTo(r.Score, local.WeightedScore(i)) {
			errs = append(errs, fmt.Errorf("row %d score %.6f, want %.6f", i, r.Score, local.WeightedScore(i)))
		}
	}

	ranked := local.Ranked()
	errs = append(errs, compareRanking("sheet rankings", sheet.Rankings, ranked, sheet.TopN)...)
	errs = append(errs, compareRanking("rankings", rankings, ranked, sheet.TopN)...)

	for j, u := range sheet.Utilization {
		used := local.CategoryTotal(j)
		if u.Used != used {
			errs = append(errs, fmt.Errorf("category %s used %d, want %d", u.Key, u.Used, used))
		}
		p := validation.Percent(used, u.Max)
		switch {
		case math.IsInf(p, 0) && u.Percent != nil:
			errs = append(errs, fmt.Errorf("category %s percent %.1f, want null", u.Key, *u.Percent))
		case !math.IsInf(p, 0) && (u.Percent == nil || !closeTo(*u.Percent, p)):
			errs = append(errs, fmt.Errorf("category %s percent mismatch, want %.1f", u.Key, p))
		}
		if over := u.Status == string(validation.StatusOverLimit); over != (p > 100) {
			errs = append(errs, fmt.Errorf("category %s status %q at %.1f%%", u.Key, u.Status, p))
		}
	}

	sum := local.Summary()
	if sheet.Summary.TotalVotes != sum.TotalVotes {
		errs = append(errs, fmt.Errorf("summary total %d, want %d", sheet.Summary.TotalVotes, sum.TotalVotes))
	}
	if sheet.Summary.CategoriesUsed != sum.CategoriesUsed {
		errs = append(errs, fmt.Errorf("summary categories used %d, want %d", sheet.Summary.CategoriesUsed, sum.CategoriesUsed))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(errs...))
	}
	return nil
}

// compareRanking checks got against the first len(got) local standings.
func compareRanking(name string, got []types.Entry, want []scoring.Standing, topN int) []error {
	if len(got) > len(want) {
		return []error{fmt.Errorf("%s: %d entries for %d candidates", name, len(got), len(want))}
	}
	var errs []error
	for i, e := range got {
		w := want[i]
		if e.Candidate != w.Candidate || e.Rank != w.Rank {
			errs = append(errs, fmt.Errorf("%s: position %d is candidate %d rank %d, want candidate %d rank %d",
				name, i, e.Candidate, e.Rank, w.Candidate, w.Rank))
			continue
		}
		if !closeTo(e.Score, w.Score) {
			errs = append(errs, fmt.Errorf("%s: candidate %d score %.6f, want %.6f", name, e.Candidate, e.Score, w.Score))
		}
		if e.Top != (i < topN) {
			errs = append(errs, fmt.Errorf("%s: candidate %d top flag %v at position %d", name, e.Candidate, e.Top, i))
		}
	}
	return errs
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= scoreTolerance*math.Max(1, math.Abs(b))
}
