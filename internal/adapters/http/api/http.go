// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	repository "github.com/okian/votesheet/internal/adapters/repository"
	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/internal/domain/types"
	"github.com/okian/votesheet/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SheetDependencies
	VoteDependencies
	RankingDependencies
	RankDependencies
	UtilizationDependencies
	ExportDependencies
	ResetDependencies
	StreamDependencies
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	sheetHandler       *SheetHandler
	voteHandler        *VoteHandler
	rankingsHandler    *RankingsHandler
	rankHandler        *RankHandler
	utilizationHandler *UtilizationHandler
	exportHandler      *ExportHandler
	resetHandler       *ResetHandler
	streamHandler      *StreamHandler
	dashboardHandler   *dashboardHandler

	log logger.Logger
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHeartbeat sets the keep-alive interval of the change stream.
func WithHeartbeat(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.streamHandler.heartbeat = d
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		sheetHandler:       NewSheetHandler(deps),
		voteHandler:        NewVoteHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps),
		rankHandler:        NewRankHandler(deps),
		utilizationHandler: NewUtilizationHandler(deps),
		exportHandler:      NewExportHandler(deps),
		resetHandler:       NewResetHandler(deps),
		streamHandler:      NewStreamHandler(deps),
		dashboardHandler:   newDashboardHandler(),
		log:                logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streamHandler.log = s.log
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	wrap := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.log)
	}

	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", wrap(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sheet", wrap(s.sheetHandler.HandleGetSheet, "sheet"))
	mux.HandleFunc("/votes", wrap(s.voteHandler.HandlePutVote, "votes"))
	mux.HandleFunc("/rankings", wrap(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/rank/", wrap(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/utilization", wrap(s.utilizationHandler.HandleGetUtilization, "utilization"))
	mux.HandleFunc("/export", wrap(s.exportHandler.HandleExport, "export"))
	mux.HandleFunc("/reset", wrap(s.resetHandler.HandleReset, "reset"))
	mux.HandleFunc("/stream", wrap(s.streamHandler.HandleStream, "stream"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps upstream errors to status codes: bad input is 400,
// unknown candidates are 404 and anything else is 500.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case isBadRequest(err):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func isBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, scoring.ErrCandidateOutOfRange) ||
		errors.Is(err, scoring.ErrCategoryOutOfRange) ||
		errors.Is(err, repository.ErrInvalidLimit)
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
