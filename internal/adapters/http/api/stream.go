// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/pkg/logger"
)

// defaultHeartbeat keeps idle proxies from closing the stream.
const defaultHeartbeat = 15 * time.Second

// StreamDependencies defines the interface for change streaming.
type StreamDependencies interface {
	SheetDependencies
	Subscribe(ctx context.Context) (string, <-chan model.Change, error)
	Unsubscribe(ctx context.Context, id string)
}

// StreamHandler serves the sheet as server-sent events.
type StreamHandler struct {
	deps      StreamDependencies
	heartbeat time.Duration
	log       logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies) *StreamHandler {
	return &StreamHandler{deps: deps, heartbeat: defaultHeartbeat, log: logger.NewNop()}
}

// HandleStream handles GET /stream requests. It sends the current sheet on
// connect and again after every change, as "sheet" events.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	id, changes, err := h.deps.Subscribe(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	defer h.deps.Unsubscribe(ctx, id)

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := h.sendSheet(ctx, w, rc); err != nil {
		h.log.Debug(ctx, "stream closed", logger.String("subscriber_id", id), logger.Error(err))
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := h.sendSheet(ctx, w, rc); err != nil {
				h.log.Debug(ctx, "stream closed", logger.String("subscriber_id", id), logger.Error(err))
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// sendSheet writes the sheet as it is now, which may already be newer than
// the change that triggered it.
func (h *StreamHandler) sendSheet(ctx context.Context, w http.ResponseWriter, rc *http.ResponseController) error {
	sheet, err := h.deps.Sheet(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(sheet)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: sheet\ndata: %s\n\n", sheet.Revision, data); err != nil {
		return err
	}
	return rc.Flush()
}
