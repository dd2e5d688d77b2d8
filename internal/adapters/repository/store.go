// Package repository owns the live sheet and publishes immutable snapshots of
// it for readers.
package repository

import (
	"context"
	"time"

	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/internal/domain/validation"
)

// Entry represents a ranking row.
type Entry struct {
	Rank       int
	Candidate  int
	Name       string
	Score      float64
	TotalVotes int
	Top        bool
}

// Row is one candidate in declared order with its derived values.
type Row struct {
	Candidate  int
	Name       string
	Votes      []int
	TotalVotes int
	Score      float64
	Rank       int
	Top        bool
}

// Snapshot is an immutable view of one revision of the sheet. Readers must
// not modify it.
type Snapshot struct {
	Revision   uint64
	At         time.Time
	TopN       int
	Categories []model.Category
	Rows       []Row   // declared order
	Ranking    []Entry // rank order
	Usage      []validation.Usage
	Summary    scoring.Summary
	OverLimit  int
}

// Publisher is notified after every committed mutation.
type Publisher interface {
	Publish(change model.Change)
}

// Store provides read/write access to the sheet.
type Store interface {
	// SetVote overwrites one cell and returns the snapshot it produced.
	SetVote(ctx context.Context, candidate, category, value int) (*Snapshot, error)
	// Reset restores the original votes and returns the new snapshot.
	Reset(ctx context.Context) (*Snapshot, error)
	// Snapshot returns the latest published snapshot.
	Snapshot(ctx context.Context) *Snapshot

	// Rank returns the ranking entry for a candidate.
	// Returns ErrNotFound if the candidate index is unknown.
	Rank(ctx context.Context, candidate int) (Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of candidates on the sheet.
	Count(ctx context.Context) int
}
