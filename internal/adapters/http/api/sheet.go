// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/votesheet/internal/domain/types"
)

// SheetDependencies defines the interface for whole-sheet reads.
type SheetDependencies interface {
	Sheet(ctx context.Context) (types.Sheet, error)
}

// SheetHandler handles sheet requests.
type SheetHandler struct {
	deps SheetDependencies
}

// NewSheetHandler creates a new sheet handler.
func NewSheetHandler(deps SheetDependencies) *SheetHandler {
	return &SheetHandler{deps: deps}
}

// HandleGetSheet handles GET /sheet requests.
func (h *SheetHandler) HandleGetSheet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_sheet"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sheet, err := h.deps.Sheet(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}
