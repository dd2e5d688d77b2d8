// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/votesheet/internal/domain/types"
)

// UtilizationDependencies defines the interface for category usage reads.
type UtilizationDependencies interface {
	Utilization(ctx context.Context) ([]types.CategoryUsage, error)
}

// UtilizationHandler handles utilization requests.
type UtilizationHandler struct {
	deps UtilizationDependencies
}

// NewUtilizationHandler creates a new utilization handler.
func NewUtilizationHandler(deps UtilizationDependencies) *UtilizationHandler {
	return &UtilizationHandler{deps: deps}
}

// HandleGetUtilization handles GET /utilization requests.
func (h *UtilizationHandler) HandleGetUtilization(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_utilization"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	usage, err := h.deps.Utilization(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
