package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/internal/domain/validation"
	"github.com/okian/votesheet/pkg/logger"
	"github.com/okian/votesheet/pkg/metrics"
)

// SheetStore is the single writer for a scoring.Sheet.
//
// Every mutation runs under mu, rebuilds the derived values and publishes a
// new Snapshot before the lock is released, so readers never observe a
// half-applied edit.
type SheetStore struct {
	mu        sync.Mutex
	sheet     *scoring.Sheet
	rules     *validation.Rules
	topN      int
	revision  uint64
	publisher Publisher
	log       logger.Logger
	now       func() time.Time

	// snapshot is atomic pointer to the latest Snapshot
	snapshot atomic.Pointer[Snapshot]
}

var _ Store = (*SheetStore)(nil)

// NewSheetStore takes ownership of sheet and publishes revision 0.
func NewSheetStore(sheet *scoring.Sheet, opts ...Option) *SheetStore {
	s := &SheetStore{
		sheet: sheet,
		rules: validation.NewRules(),
		topN:  9,
		log:   logger.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.publishSnapshotInternal()
	s.mu.Unlock()
	return s
}

// SetVote implements Store.SetVote.
func (s *SheetStore) SetVote(ctx context.Context, candidate, category, value int) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sheet.SetVote(candidate, category, value); err != nil {
		metrics.RecordErrorByComponent("repository", "out_of_range")
		return nil, fmt.Errorf("set vote: %w", err)
	}
	s.revision++
	snap := s.publishSnapshotInternal()
	metrics.RecordVoteEdit()
	s.log.Debug(ctx, "vote stored",
		logger.Int("candidate", candidate),
		logger.Int("category", category),
		logger.Int("value", s.sheet.Vote(candidate, category)),
		logger.Uint64("revision", snap.Revision),
	)
	s.notify(snap, model.ReasonVote)
	return snap, nil
}

// Reset implements Store.Reset.
func (s *SheetStore) Reset(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sheet.Reset()
	s.revision++
	snap := s.publishSnapshotInternal()
	metrics.RecordReset()
	s.log.Info(ctx, "sheet reset", logger.Uint64("revision", snap.Revision))
	s.notify(snap, model.ReasonReset)
	return snap, nil
}

// Snapshot implements Store.Snapshot. It never blocks on writers.
func (s *SheetStore) Snapshot(_ context.Context) *Snapshot {
	return s.snapshot.Load()
}

// Rank implements Store.Rank.
func (s *SheetStore) Rank(ctx context.Context, candidate int) (Entry, error) {
	snap := s.Snapshot(ctx)
	if candidate < 0 || candidate >= len(snap.Rows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	row := snap.Rows[candidate]
	return snap.Ranking[row.Rank-1], nil
}

// TopN implements Store.TopN.
func (s *SheetStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	ranking := s.Snapshot(ctx).Ranking
	if n > len(ranking) {
		n = len(ranking)
	}
	return append([]Entry(nil), ranking[:n]...), nil
}

// Count implements Store.Count.
func (s *SheetStore) Count(ctx context.Context) int {
	return len(s.Snapshot(ctx).Rows)
}

func (s *SheetStore) notify(snap *Snapshot, reason string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(model.Change{Revision: snap.Revision, Reason: reason, At: snap.At})
}

// publishSnapshotInternal rebuilds and publishes a new snapshot (assumes lock is held)
func (s *SheetStore) publishSnapshotInternal() *Snapshot {
	start := time.Now()

	ranked := s.sheet.Ranked()
	ranking := make([]Entry, len(ranked))
	rankOf := make([]int, len(ranked))
	for i, st := range ranked {
		ranking[i] = Entry{
			Rank:       st.Rank,
			Candidate:  st.Candidate,
			Name:       st.Name,
			Score:      st.Score,
			TotalVotes: st.TotalVotes,
			Top:        st.Rank <= s.topN,
		}
		rankOf[st.Candidate] = st.Rank
	}

	names := s.sheet.Candidates()
	rows := make([]Row, len(names))
	for i, name := range names {
		rows[i] = Row{
			Candidate:  i,
			Name:       name,
			Votes:      s.sheet.Votes(i),
			TotalVotes: s.sheet.TotalVotes(i),
			Score:      s.sheet.WeightedScore(i),
			Rank:       rankOf[i],
			Top:        rankOf[i] <= s.topN,
		}
	}

	usage := s.rules.Evaluate(s.sheet)
	snap := &Snapshot{
		Revision:   s.revision,
		At:         s.now(),
		TopN:       s.topN,
		Categories: s.sheet.Categories(),
		Rows:       rows,
		Ranking:    ranking,
		Usage:      usage,
		Summary:    s.sheet.Summary(),
		OverLimit:  validation.OverLimit(usage),
	}
	s.snapshot.Store(snap)

	metrics.RecordSnapshotRebuildDuration(float64(time.Since(start).Microseconds()) / 1000)
	s.updateMetrics(snap)
	return snap
}

// updateMetrics updates all sheet-related gauges
func (s *SheetStore) updateMetrics(snap *Snapshot) {
	metrics.UpdateRevision(snap.Revision)
	metrics.UpdateTotalVotes(snap.Summary.TotalVotes)
	metrics.UpdateTopScore(snap.Summary.TopScore)
	for _, u := range snap.Usage {
		metrics.UpdateCategoryUsage(u.Key, u.Used, u.Percent, u.Status == validation.StatusOverLimit)
	}
}
