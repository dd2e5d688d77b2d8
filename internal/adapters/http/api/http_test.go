package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/votesheet/internal/adapters/http/api"
	repository "github.com/okian/votesheet/internal/adapters/repository"
	"github.com/okian/votesheet/internal/domain/model"
	"github.com/okian/votesheet/internal/domain/scoring"
	"github.com/okian/votesheet/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies implements api.Dependencies and api.StatsProvider.
type mockDependencies struct {
	mu sync.Mutex

	sheet     types.Sheet
	sheetErr  error
	entries   []types.Entry
	topNErr   error
	rank      types.Entry
	rankErr   error
	usage     []types.CategoryUsage
	voteErr   error
	lastVote  types.VoteRequest
	exportErr error
	resets    int
	changes   chan model.Change
	unsubbed  []string
	stats     types.Stats
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		sheet: types.Sheet{Revision: 3, TopN: 9, Summary: types.Summary{TotalVotes: 12}},
		entries: []types.Entry{
			{Rank: 1, Candidate: 1, Name: "Grace", Score: 18.888, Top: true},
			{Rank: 2, Candidate: 0, Name: "Ada", Score: 18.7, Top: true},
			{Rank: 3, Candidate: 2, Name: "Linus", Score: 0, Top: true},
		},
		changes: make(chan model.Change, 4),
	}
}

func (m *mockDependencies) Sheet(ctx context.Context) (types.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sheet, m.sheetErr
}

func (m *mockDependencies) SetVote(ctx context.Context, req types.VoteRequest) (types.VoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastVote = req
	if m.voteErr != nil {
		return types.VoteResult{}, m.voteErr
	}
	v, kind := scoring.CoerceVote(req.Value)
	return types.VoteResult{Revision: 4, Stored: v, Coercion: string(kind)}, nil
}

func (m *mockDependencies) Reset(ctx context.Context) (types.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return types.Sheet{Revision: m.sheet.Revision + 1}, nil
}

func (m *mockDependencies) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n < 1 {
		return nil, repository.ErrInvalidLimit
	}
	if n > len(m.entries) {
		return m.entries, nil
	}
	return m.entries[:n], nil
}

func (m *mockDependencies) Count(ctx context.Context) int {
	return len(m.entries)
}

func (m *mockDependencies) Rank(ctx context.Context, candidate int) (types.Entry, error) {
	if m.rankErr != nil {
		return types.Entry{}, m.rankErr
	}
	return m.rank, nil
}

func (m *mockDependencies) Utilization(ctx context.Context) ([]types.CategoryUsage, error) {
	return m.usage, nil
}

func (m *mockDependencies) Export(ctx context.Context) ([]byte, string, error) {
	if m.exportErr != nil {
		return nil, "", m.exportErr
	}
	return []byte("Candidate,A (1995)\n"), "voting_results_2024-03-08.csv", nil
}

func (m *mockDependencies) Subscribe(ctx context.Context) (string, <-chan model.Change, error) {
	return "sub-1", m.changes, nil
}

func (m *mockDependencies) Unsubscribe(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubbed = append(m.unsubbed, id)
}

func (m *mockDependencies) GetStats(ctx context.Context) types.Stats {
	return m.stats
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newMockDependencies()
		server := api.NewServer(deps, deps)
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(context.Background(), mux)

			routes := []struct {
				method, path string
				want         int
			}{
				{"GET", "/healthz", http.StatusOK},
				{"GET", "/stats", http.StatusOK},
				{"GET", "/sheet", http.StatusOK},
				{"GET", "/rankings", http.StatusOK},
				{"GET", "/rank/1", http.StatusOK},
				{"GET", "/utilization", http.StatusOK},
				{"GET", "/export", http.StatusOK},
				{"POST", "/reset", http.StatusOK},
				{"PUT", "/votes", http.StatusBadRequest},
				{"GET", "/dashboard", http.StatusOK},
			}

			Convey("Then every route answers", func() {
				for _, rt := range routes {
					req := httptest.NewRequest(rt.method, rt.path, strings.NewReader(`{}`))
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, req)
					So(fmt.Sprintf("%s %s -> %d", rt.method, rt.path, w.Code), ShouldEqual, fmt.Sprintf("%s %s -> %d", rt.method, rt.path, rt.want))
				}
			})

			Convey("And responses carry a request id", func() {
				req := httptest.NewRequest("GET", "/sheet", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
			})

			Convey("And a valid incoming request id is kept", func() {
				id := "7b0f8c1e-2d4a-4c3e-9f1a-1234567890ab"
				req := httptest.NewRequest("GET", "/sheet", nil)
				req.Header.Set(api.RequestIDHeader, id)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, id)
			})

			Convey("And wrong methods are not found", func() {
				req := httptest.NewRequest("DELETE", "/sheet", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestVoteHandler_HandlePutVote(t *testing.T) {
	Convey("Given a vote handler", t, func() {
		deps := newMockDependencies()
		handler := api.NewVoteHandler(deps)

		Convey("When the value is a loose string", func() {
			req := httptest.NewRequest("PUT", "/votes", strings.NewReader(`{"candidate":2,"category":4,"value":"7abc"}`))
			w := httptest.NewRecorder()
			handler.HandlePutVote(w, req)

			Convey("Then it is passed through and coerced", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastVote.Candidate, ShouldEqual, 2)
				So(deps.lastVote.Category, ShouldEqual, 4)
				So(deps.lastVote.Value, ShouldEqual, "7abc")

				var res types.VoteResult
				So(json.NewDecoder(w.Body).Decode(&res), ShouldBeNil)
				So(res.Stored, ShouldEqual, 7)
				So(res.Coercion, ShouldEqual, "trailing_text")
			})
		})

		Convey("When the value is null", func() {
			req := httptest.NewRequest("POST", "/votes", strings.NewReader(`{"candidate":0,"category":0,"value":null}`))
			w := httptest.NewRecorder()
			handler.HandlePutVote(w, req)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the body is malformed", func() {
			cases := []string{
				`{"candidate":0`,
				`{"category":1,"value":3}`,
				`{"candidate":0,"value":3}`,
				`{"candidate":0,"category":1,"extra":true}`,
				`{"candidate":0,"category":1}{}`,
			}

			Convey("Then each is a bad request", func() {
				for _, body := range cases {
					req := httptest.NewRequest("PUT", "/votes", strings.NewReader(body))
					w := httptest.NewRecorder()
					handler.HandlePutVote(w, req)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				}
			})
		})

		Convey("When the index is out of range", func() {
			deps.voteErr = fmt.Errorf("set vote: %w: 16", scoring.ErrCandidateOutOfRange)
			req := httptest.NewRequest("PUT", "/votes", strings.NewReader(`{"candidate":16,"category":0,"value":1}`))
			w := httptest.NewRecorder()
			handler.HandlePutVote(w, req)

			Convey("Then it is a bad request with a JSON error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body map[string]string
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "api.put_vote")
			})
		})

		Convey("When the service fails", func() {
			deps.voteErr = errors.New("boom")
			req := httptest.NewRequest("PUT", "/votes", strings.NewReader(`{"candidate":1,"category":0,"value":1}`))
			w := httptest.NewRecorder()
			handler.HandlePutVote(w, req)

			Convey("Then it is an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestRankingsHandler_HandleGetRankings(t *testing.T) {
	Convey("Given a rankings handler", t, func() {
		deps := newMockDependencies()
		handler := api.NewRankingsHandler(deps)

		Convey("When requesting a limit", func() {
			req := httptest.NewRequest("GET", "/rankings?limit=2", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRankings(w, req)

			Convey("Then it should return the first entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []types.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response, ShouldHaveLength, 2)
				So(response[0].Name, ShouldEqual, "Grace")
			})
		})

		Convey("When no limit is specified", func() {
			req := httptest.NewRequest("GET", "/rankings", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRankings(w, req)

			Convey("Then every candidate is returned", func() {
				var response []types.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response, ShouldHaveLength, 3)
			})
		})

		Convey("When the limit exceeds the candidates", func() {
			req := httptest.NewRequest("GET", "/rankings?limit=50", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRankings(w, req)

			Convey("Then it is capped", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []types.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response, ShouldHaveLength, 3)
			})
		})

		Convey("When the limit is invalid", func() {
			for _, q := range []string{"0", "-1", "abc"} {
				req := httptest.NewRequest("GET", "/rankings?limit="+q, nil)
				w := httptest.NewRecorder()
				handler.HandleGetRankings(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the ranking fails", func() {
			deps.topNErr = errors.New("boom")
			req := httptest.NewRequest("GET", "/rankings", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRankings(w, req)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRankHandler_HandleGetRank(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		deps := newMockDependencies()
		deps.rank = types.Entry{Rank: 5, Candidate: 3, Name: "Ada", Score: 8.5}
		handler := api.NewRankHandler(deps)

		Convey("When requesting an existing candidate", func() {
			req := httptest.NewRequest("GET", "/rank/3", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, req)

			Convey("Then it should return the entry", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response types.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Rank, ShouldEqual, 5)
				So(response.Name, ShouldEqual, "Ada")
			})
		})

		Convey("When the candidate is unknown", func() {
			deps.rankErr = repository.ErrNotFound
			req := httptest.NewRequest("GET", "/rank/40", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path is not an index", func() {
			for _, path := range []string{"/rank/", "/rank/abc", "/rank/1/2"} {
				req := httptest.NewRequest("GET", path, nil)
				w := httptest.NewRecorder()
				handler.HandleGetRank(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestExportHandler_HandleExport(t *testing.T) {
	Convey("Given an export handler", t, func() {
		deps := newMockDependencies()
		handler := api.NewExportHandler(deps)

		Convey("When exporting", func() {
			req := httptest.NewRequest("GET", "/export", nil)
			w := httptest.NewRecorder()
			handler.HandleExport(w, req)

			Convey("Then a CSV attachment is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename=voting_results_2024-03-08.csv`)
				So(w.Body.String(), ShouldStartWith, "Candidate,")
			})
		})

		Convey("When the export fails", func() {
			deps.exportErr = errors.New("disk full")
			req := httptest.NewRequest("GET", "/export", nil)
			w := httptest.NewRecorder()
			handler.HandleExport(w, req)

			Convey("Then the user gets an error to retry on", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "disk full")
			})
		})
	})
}

func TestResetHandler_HandleReset(t *testing.T) {
	Convey("Given a reset handler", t, func() {
		deps := newMockDependencies()
		handler := api.NewResetHandler(deps)

		Convey("When reset is requested with GET", func() {
			w := httptest.NewRecorder()
			handler.HandleReset(w, httptest.NewRequest("GET", "/reset", nil))

			Convey("Then nothing is reset", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(deps.resets, ShouldEqual, 0)
			})
		})

		Convey("When reset is posted", func() {
			w := httptest.NewRecorder()
			handler.HandleReset(w, httptest.NewRequest("POST", "/reset", nil))

			Convey("Then the new sheet is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.resets, ShouldEqual, 1)
			})
		})
	})
}

func TestUtilizationHandler_HandleGetUtilization(t *testing.T) {
	Convey("Given a utilization handler", t, func() {
		deps := newMockDependencies()
		deps.usage = []types.CategoryUsage{{Key: "E", Label: "E (1030)", Used: 1, Max: 0, Status: "over-limit"}}
		handler := api.NewUtilizationHandler(deps)

		Convey("When the percent is not finite", func() {
			w := httptest.NewRecorder()
			handler.HandleGetUtilization(w, httptest.NewRequest("GET", "/utilization", nil))

			Convey("Then it is null in JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"percent":null`)
			})
		})
	})
}

func TestStreamHandler_HandleStream(t *testing.T) {
	Convey("Given a stream served over HTTP", t, func() {
		deps := newMockDependencies()
		server := api.NewServer(deps, deps, api.WithHeartbeat(time.Hour))
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/stream", nil)
		So(err, ShouldBeNil)
		resp, err := http.DefaultClient.Do(req)
		So(err, ShouldBeNil)
		defer resp.Body.Close()
		reader := bufio.NewReader(resp.Body)

		readEvent := func() string {
			var lines []string
			for {
				line, err := reader.ReadString('\n')
				if err != nil {
					return strings.Join(lines, "")
				}
				if line == "\n" {
					return strings.Join(lines, "")
				}
				lines = append(lines, line)
			}
		}

		Convey("Then the current sheet is sent on connect", func() {
			So(resp.Header.Get("Content-Type"), ShouldEqual, "text/event-stream")
			event := readEvent()
			So(event, ShouldStartWith, "id: 3\nevent: sheet\ndata: ")
			So(event, ShouldContainSubstring, `"total_votes":12`)

			Convey("And again after a change", func() {
				deps.mu.Lock()
				deps.sheet.Revision = 4
				deps.mu.Unlock()
				deps.changes <- model.Change{Revision: 4, Reason: model.ReasonVote}

				So(readEvent(), ShouldStartWith, "id: 4\n")
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return OK status", func() {
				handler.HandleHealth(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		deps := newMockDependencies()
		deps.stats = types.Stats{Revision: 7, Candidates: 16, Edits: 7}
		handler := api.NewStatsHandler(deps)

		Convey("When handling stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return stats", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response types.Stats
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response.Revision, ShouldEqual, 7)
				So(response.Candidates, ShouldEqual, 16)
			})
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given op-tagged errors", t, func() {
		cause := errors.New("cause")

		Convey("Then kinds and causes stay reachable", func() {
			err := api.WrapKind("api.put_vote", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.put_vote: bad request: cause")

			So(api.NewKind("api.get_rank", api.ErrNotFound).Error(), ShouldEqual, "api.get_rank: not found")
			So(api.Wrap("api.export", nil), ShouldBeNil)
		})
	})
}
