// Package scoring holds the vote matrix and every value derived from it.
//
// A Sheet is a plain in-memory model with no locking; callers that share one
// across goroutines must serialize access (see the repository package).
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/votesheet/internal/domain/model"
)

// Standing is one row of the ranking.
type Standing struct {
	Rank       int // 1-based position in the ranking
	Candidate  int // index into the candidate list
	Name       string
	Score      float64
	TotalVotes int
}

// Summary aggregates the whole sheet.
type Summary struct {
	TotalVotes     int
	CategoriesUsed int
	TopScore       float64
}

// Option applies a configuration option to a Sheet.
type Option func(*Sheet)

// WithInitialVotes replaces the all-zero starting matrix. The matrix becomes
// the snapshot Reset restores. Negative cells are clamped to zero.
func WithInitialVotes(votes [][]int) Option {
	return func(s *Sheet) {
		s.initial = votes
	}
}

// Sheet is the scoring model: static categories and candidates plus the
// mutable candidates × categories vote matrix.
type Sheet struct {
	categories []model.Category
	candidates []string
	votes      [][]int
	original   [][]int
	initial    [][]int
}

// New builds a sheet with every cell set to the original snapshot.
func New(categories []model.Category, candidates []string, opts ...Option) (*Sheet, error) {
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	for _, c := range categories {
		if !(c.Weight > 0) || math.IsInf(c.Weight, 0) {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidWeight, c.Key, c.Weight)
		}
		if c.MaxVotes < 0 {
			return nil, fmt.Errorf("%w: %s=%d", ErrInvalidCeiling, c.Key, c.MaxVotes)
		}
	}

	s := &Sheet{
		categories: append([]model.Category(nil), categories...),
		candidates: append([]string(nil), candidates...),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.original = newMatrix(len(s.candidates), len(s.categories))
	if s.initial != nil {
		if len(s.initial) != len(s.candidates) {
			return nil, fmt.Errorf("%w: %d rows for %d candidates", ErrInitialVotesDimension, len(s.initial), len(s.candidates))
		}
		for i, row := range s.initial {
			if len(row) != len(s.categories) {
				return nil, fmt.Errorf("%w: row %d has %d cells for %d categories", ErrInitialVotesDimension, i, len(row), len(s.categories))
			}
			for j, v := range row {
				s.original[i][j] = max(v, 0)
			}
		}
		s.initial = nil
	}
	s.votes = cloneMatrix(s.original)
	return s, nil
}

func newMatrix(rows, cols int) [][]int {
	m := make([][]int, rows)
	for i := range m {
		m[i] = make([]int, cols)
	}
	return m
}

func cloneMatrix(src [][]int) [][]int {
	m := make([][]int, len(src))
	for i, row := range src {
		m[i] = append([]int(nil), row...)
	}
	return m
}

// CandidateCount returns the number of rows.
func (s *Sheet) CandidateCount() int { return len(s.candidates) }

// CategoryCount returns the number of columns.
func (s *Sheet) CategoryCount() int { return len(s.categories) }

// Categories returns a copy of the category definitions in column order.
func (s *Sheet) Categories() []model.Category {
	return append([]model.Category(nil), s.categories...)
}

// Candidates returns a copy of the candidate names in row order.
func (s *Sheet) Candidates() []string {
	return append([]string(nil), s.candidates...)
}

func (s *Sheet) validCandidate(i int) bool { return i >= 0 && i < len(s.candidates) }
func (s *Sheet) validCategory(j int) bool  { return j >= 0 && j < len(s.categories) }

// SetVote overwrites one cell. Negative values are stored as 0; ceilings are
// never enforced here. Only out-of-range indices are rejected.
func (s *Sheet) SetVote(candidate, category, value int) error {
	if !s.validCandidate(candidate) {
		return fmt.Errorf("%w: %d", ErrCandidateOutOfRange, candidate)
	}
	if !s.validCategory(category) {
		return fmt.Errorf("%w: %d", ErrCategoryOutOfRange, category)
	}
	s.votes[candidate][category] = max(value, 0)
	return nil
}

// Vote returns one cell, or 0 for out-of-range indices.
func (s *Sheet) Vote(candidate, category int) int {
	if !s.validCandidate(candidate) || !s.validCategory(category) {
		return 0
	}
	return s.votes[candidate][category]
}

// Votes returns a copy of a candidate's row, or nil when out of range.
func (s *Sheet) Votes(candidate int) []int {
	if !s.validCandidate(candidate) {
		return nil
	}
	return append([]int(nil), s.votes[candidate]...)
}

// Matrix returns a copy of the whole vote matrix.
func (s *Sheet) Matrix() [][]int {
	return cloneMatrix(s.votes)
}

// TotalVotes is the sum of a candidate's row.
func (s *Sheet) TotalVotes(candidate int) int {
	if !s.validCandidate(candidate) {
		return 0
	}
	total := 0
	for _, v := range s.votes[candidate] {
		total += v
	}
	return total
}

// WeightedScore is the dot product of a candidate's row and the weights,
// accumulated in column order.
func (s *Sheet) WeightedScore(candidate int) float64 {
	if !s.validCandidate(candidate) {
		return 0
	}
	score := 0.0
	for j, v := range s.votes[candidate] {
		score += float64(v) * s.categories[j].Weight
	}
	return score
}

// CategoryTotal is the sum of a column.
func (s *Sheet) CategoryTotal(category int) int {
	if !s.validCategory(category) {
		return 0
	}
	total := 0
	for _, row := range s.votes {
		total += row[category]
	}
	return total
}

// Ranked returns every candidate ordered by weighted score, highest first.
// Equal scores keep their original relative order.
func (s *Sheet) Ranked() []Standing {
	out := make([]Standing, len(s.candidates))
	for i, name := range s.candidates {
		out[i] = Standing{
			Candidate:  i,
			Name:       name,
			Score:      s.WeightedScore(i),
			TotalVotes: s.TotalVotes(i),
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Top returns the first n standings; all of them when fewer than n exist.
func (s *Sheet) Top(n int) []Standing {
	if n <= 0 {
		return nil
	}
	ranked := s.Ranked()
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Summary returns sheet-wide aggregates.
func (s *Sheet) Summary() Summary {
	var sum Summary
	for j := range s.categories {
		if total := s.CategoryTotal(j); total > 0 {
			sum.CategoriesUsed++
			sum.TotalVotes += total
		}
	}
	for i := range s.candidates {
		if score := s.WeightedScore(i); i == 0 || score > sum.TopScore {
			sum.TopScore = score
		}
	}
	return sum
}

// Reset restores the original snapshot.
func (s *Sheet) Reset() {
	s.votes = cloneMatrix(s.original)
}
