package driver

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/pkg/logger"
)

// submitEdits sends edits concurrently through a worker pool. Each stored
// value is checked against local coercion of the submitted value.
func submitEdits(ctx context.Context, client *Client, cfg *Config, edits []Edit, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting edits", logger.Int("edits", len(edits)), logger.Int("workers", cfg.Workers))

	var submitted, successful, failed, coerced, mismatched atomic.Int64

	editChan := make(chan Edit, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for edit := range editChan {
				if ctx.Err() != nil {
					continue
				}
				submitted.Add(1)
				res, err := client.PutVote(ctx, edit)
				if err != nil {
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "edit failed", logger.Int("candidate", edit.Candidate), logger.Int("category", edit.Category), logger.Error(err))
					}
					continue
				}
				successful.Add(1)
				want, kind := scoring.CoerceVote(edit.Value)
				if kind != scoring.CoercionNone {
					coerced.Add(1)
				}
				if res.Stored != want || res.Coercion != string(kind) {
					mismatched.Add(1)
					log.Warn(ctx, "stored value differs",
						logger.Any("value", edit.Value),
						logger.Int("stored", res.Stored),
						logger.Int("expected", want),
						logger.String("coercion", res.Coercion))
				}
			}
		}()
	}

	func() {
		defer close(editChan)
		for _, edit := range edits {
			select {
			case <-ctx.Done():
				return
			case editChan <- edit:
			}
		}
	}()
	wg.Wait()

	stats.EditsSubmitted = int(submitted.Load())
	stats.EditsSuccessful = int(successful.Load())
	stats.EditsFailed = int(failed.Load())
	stats.Coerced = int(coerced.Load())
	stats.Mismatched = int(mismatched.Load())
}
