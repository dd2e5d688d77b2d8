// Package feed fans sheet change notifications out to render subscribers.
//
// Each subscriber owns a bounded channel. Publishing never blocks: a
// subscriber whose buffer is full misses that notification. Notifications
// carry only the revision, so a subscriber that catches up on a later one
// renders the current state anyway.
package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/pkg/logger"
	"github.com/okian/votesheet/pkg/metrics"
)

// Default feed configuration constants.
const defaultBufferSize = 16

// Subscription is a registered receiver of change notifications.
type Subscription struct {
	ID string
	C  <-chan model.Change

	ch chan model.Change
}

// Broadcaster provides non-blocking publish and channel-based subscribe
// semantics.
type Broadcaster struct {
	bufferSize int
	log        logger.Logger

	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool
}

// New creates a broadcaster with configuration options.
func New(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		bufferSize: defaultBufferSize,
		log:        logger.NewNop(),
		subs:       make(map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	metrics.UpdateFeedSubscribers(0)
	return b
}

// Subscribe registers a new subscriber. The returned channel is closed by
// Unsubscribe or Close.
func (b *Broadcaster) Subscribe(ctx context.Context) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		metrics.RecordErrorByComponent("feed", "closed")
		return nil, ErrClosed
	}

	ch := make(chan model.Change, b.bufferSize)
	sub := &Subscription{ID: uuid.NewString(), C: ch, ch: ch}
	b.subs[sub.ID] = sub
	metrics.UpdateFeedSubscribers(len(b.subs))
	b.log.Debug(ctx, "subscriber added", logger.String("subscriber_id", sub.ID), logger.Int("subscribers", len(b.subs)))
	return sub, nil
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (b *Broadcaster) Unsubscribe(ctx context.Context, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.ch)
	metrics.UpdateFeedSubscribers(len(b.subs))
	b.log.Debug(ctx, "subscriber removed", logger.String("subscriber_id", id), logger.Int("subscribers", len(b.subs)))
}

// Publish delivers a change to every subscriber that has room for it.
func (b *Broadcaster) Publish(change model.Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for id, sub := range b.subs {
		select {
		case sub.ch <- change:
			metrics.RecordFeedPublished()
		default:
			metrics.RecordFeedDropped()
			metrics.RecordErrorByComponent("feed", "subscriber_full")
			b.log.Warn(context.Background(), "subscriber full, change skipped",
				logger.String("subscriber_id", id),
				logger.Uint64("revision", change.Revision),
			)
		}
	}
}

// Len returns the number of subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later Subscribe calls fail with
// ErrClosed and Publish becomes a no-op.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil // already closed
	}
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
	b.closed = true
	metrics.UpdateFeedSubscribers(0)
	return nil
}

// IsClosed returns true if the broadcaster has been closed.
func (b *Broadcaster) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
