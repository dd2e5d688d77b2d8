// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/votesheet/internal/adapters/mq/feed"
	repository "github.com/okian/votesheet/internal/adapters/repository"
	"github.com/okian/votesheet/internal/config"
	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/internal/domain/types"
	"github.com/okian/votesheet/internal/domain/validation"
	"github.com/okian/votesheet/internal/export"
	"github.com/okian/votesheet/pkg/logger"
	"github.com/okian/votesheet/pkg/metrics"
)

// Service implements the API dependencies for the vote sheet.
type Service struct {
	mu sync.RWMutex

	// Core components
	store *repository.SheetStore
	feed  *feed.Broadcaster

	// Configuration
	categories     []model.Category
	candidates     []string
	initialVotes   [][]int
	topN           int
	warningPercent float64
	feedBuffer     int

	// State
	started   bool
	startedAt time.Time
	edits     atomic.Uint64
	resets    atomic.Uint64
	now       func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig copies the sheet definition and tuning from a loaded config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		s.categories = cfg.SheetCategories()
		s.candidates = append([]string(nil), cfg.Candidates...)
		s.topN = cfg.TopN
		s.warningPercent = cfg.WarningPercent
		s.feedBuffer = cfg.FeedBuffer
	}
}

// WithCategories sets the category definitions.
func WithCategories(cats []model.Category) Option {
	return func(s *Service) {
		s.categories = cats
	}
}

// WithCandidates sets the candidate names.
func WithCandidates(names []string) Option {
	return func(s *Service) {
		s.candidates = names
	}
}

// WithInitialVotes sets the original snapshot that Reset restores.
func WithInitialVotes(votes [][]int) Option {
	return func(s *Service) {
		s.initialVotes = votes
	}
}

// WithTopN sets how many leading ranks are highlighted.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithWarningPercent sets the utilization warning threshold.
func WithWarningPercent(p float64) Option {
	return func(s *Service) {
		if p > 0 {
			s.warningPercent = p
		}
	}
}

// WithFeedBuffer sets the per-subscriber change buffer.
func WithFeedBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.feedBuffer = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with the stock sheet.
func New(opts ...Option) *Service {
	defaults := config.New()
	s := &Service{
		topN:           defaults.TopN,
		warningPercent: defaults.WarningPercent,
		feedBuffer:     defaults.FeedBuffer,
		now:            time.Now,
		logger:         nil, // Will be replaced when service starts
	}
	WithConfig(defaults)(s)

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the sheet and its store. It fails when the sheet definition
// is invalid.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting vote sheet service...")

	var sheetOpts []scoring.Option
	if s.initialVotes != nil {
		sheetOpts = append(sheetOpts, scoring.WithInitialVotes(s.initialVotes))
	}
	sheet, err := scoring.New(s.categories, s.candidates, sheetOpts...)
	if err != nil {
		return fmt.Errorf("build sheet: %w", err)
	}

	s.feed = feed.New(
		feed.WithBufferSize(s.feedBuffer),
		feed.WithLogger(s.logger.Named("feed")),
	)
	s.store = repository.NewSheetStore(sheet,
		repository.WithTopN(s.topN),
		repository.WithRules(validation.NewRules(validation.WithWarningPercent(s.warningPercent))),
		repository.WithPublisher(s.feed),
		repository.WithLogger(s.logger.Named("store")),
		repository.WithClock(s.now),
	)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "vote sheet service started",
		logger.Int("candidates", sheet.CandidateCount()),
		logger.Int("categories", sheet.CategoryCount()),
		logger.Int("topN", s.topN),
		logger.Float64("warningPercent", s.warningPercent),
	)

	return nil
}

// Stop closes the change feed. Open subscriber channels are closed.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping vote sheet service...")

	if s.feed != nil {
		_ = s.feed.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "vote sheet service stopped")
}

func (s *Service) running() (*repository.SheetStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Sheet returns the full view of the latest revision.
func (s *Service) Sheet(ctx context.Context) (types.Sheet, error) {
	store, err := s.running()
	if err != nil {
		return types.Sheet{}, err
	}
	return sheetView(store.Snapshot(ctx)), nil
}

// SetVote coerces the requested value and stores it.
func (s *Service) SetVote(ctx context.Context, req types.VoteRequest) (types.VoteResult, error) {
	store, err := s.running()
	if err != nil {
		return types.VoteResult{}, err
	}

	value, kind := scoring.CoerceVote(req.Value)
	if kind != scoring.CoercionNone {
		metrics.RecordVoteCoercion(string(kind))
		s.logger.Debug(ctx, "vote coerced",
			logger.Any("raw", req.Value),
			logger.Int("value", value),
			logger.String("reason", string(kind)),
		)
	}

	snap, err := store.SetVote(ctx, req.Candidate, req.Category, value)
	if err != nil {
		return types.VoteResult{}, err
	}
	s.edits.Add(1)

	return types.VoteResult{
		Revision: snap.Revision,
		Stored:   snap.Rows[req.Candidate].Votes[req.Category],
		Coercion: string(kind),
		Row:      rowView(snap.Rows[req.Candidate]),
		Usage:    usageView(snap.Usage[req.Category]),
		Summary:  summaryView(snap),
	}, nil
}

// Reset restores the original snapshot.
func (s *Service) Reset(ctx context.Context) (types.Sheet, error) {
	store, err := s.running()
	if err != nil {
		return types.Sheet{}, err
	}
	snap, err := store.Reset(ctx)
	if err != nil {
		return types.Sheet{}, err
	}
	s.resets.Add(1)
	return sheetView(snap), nil
}

// TopN returns the first n ranking entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	store, err := s.running()
	if err != nil {
		return nil, err
	}
	entries, err := store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	// Convert to API format
	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = entryView(entry)
	}
	return apiEntries, nil
}

// Rank returns the ranking entry of one candidate.
func (s *Service) Rank(ctx context.Context, candidate int) (types.Entry, error) {
	store, err := s.running()
	if err != nil {
		return types.Entry{}, err
	}
	entry, err := store.Rank(ctx, candidate)
	if err != nil {
		return types.Entry{}, err
	}
	return entryView(entry), nil
}

// Count returns the number of candidates.
func (s *Service) Count(ctx context.Context) int {
	store, err := s.running()
	if err != nil {
		return 0
	}
	return store.Count(ctx)
}

// Utilization returns the usage of every category.
func (s *Service) Utilization(ctx context.Context) ([]types.CategoryUsage, error) {
	store, err := s.running()
	if err != nil {
		return nil, err
	}
	snap := store.Snapshot(ctx)
	out := make([]types.CategoryUsage, len(snap.Usage))
	for i, u := range snap.Usage {
		out[i] = usageView(u)
	}
	return out, nil
}

// Export renders the latest revision as CSV and returns it with its file
// name. The whole file is rendered before anything is returned, so a
// failure never yields a partial download.
func (s *Service) Export(ctx context.Context) ([]byte, string, error) {
	store, err := s.running()
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, store.Snapshot(ctx)); err != nil {
		metrics.RecordExport("error")
		s.logger.Error(ctx, "export failed", logger.Error(err))
		return nil, "", fmt.Errorf("export: %w", err)
	}
	metrics.RecordExport("ok")
	return buf.Bytes(), export.FileName(s.now()), nil
}

// Subscribe registers a change subscriber.
func (s *Service) Subscribe(ctx context.Context) (string, <-chan model.Change, error) {
	s.mu.RLock()
	f, started := s.feed, s.started
	s.mu.RUnlock()
	if !started {
		return "", nil, ErrNotStarted
	}
	sub, err := f.Subscribe(ctx)
	if err != nil {
		return "", nil, err
	}
	return sub.ID, sub.C, nil
}

// Unsubscribe removes a change subscriber.
func (s *Service) Unsubscribe(ctx context.Context, id string) {
	s.mu.RLock()
	f := s.feed
	s.mu.RUnlock()
	if f != nil {
		f.Unsubscribe(ctx, id)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Edits:  s.edits.Load(),
		Resets: s.resets.Load(),
	}

	if s.started {
		snap := s.store.Snapshot(ctx)
		stats.Summary = summaryView(snap)
		stats.Revision = snap.Revision
		stats.Candidates = len(snap.Rows)
		stats.Categories = len(snap.Categories)
		stats.Subscribers = s.feed.Len()
		stats.Uptime = s.now().Sub(s.startedAt).Round(time.Second).String()
	}

	// Update metrics
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	return stats
}
