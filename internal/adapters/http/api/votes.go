// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/votesheet/internal/domain/types"
)

// VoteDependencies defines the interface for cell edits.
type VoteDependencies interface {
	SetVote(ctx context.Context, req types.VoteRequest) (types.VoteResult, error)
}

// VoteHandler handles vote edits.
type VoteHandler struct {
	deps VoteDependencies
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(deps VoteDependencies) *VoteHandler {
	return &VoteHandler{deps: deps}
}

// voteRequest mirrors the OpenAPI schema for PUT /votes. Indices are
// pointers so a missing one is distinguishable from 0.
type voteRequest struct {
	Candidate *int `json:"candidate"`
	Category  *int `json:"category"`
	Value     any  `json:"value"`
}

func (v voteRequest) validate() error {
	switch {
	case v.Candidate == nil:
		return errors.New("missing candidate")
	case v.Category == nil:
		return errors.New("missing category")
	}
	return nil
}

// HandlePutVote handles PUT and POST /votes requests. The value may be a
// number, a string or null; it is coerced, never rejected.
func (h *VoteHandler) HandlePutVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_vote"
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.SetVote(r.Context(), types.VoteRequest{
		Candidate: *req.Candidate,
		Category:  *req.Category,
		Value:     req.Value,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
