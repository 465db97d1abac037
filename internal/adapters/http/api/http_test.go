package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/arena/internal/adapters/http/api"
	"github.com/okian/arena/internal/adapters/repository"
	service "github.com/okian/arena/internal/app"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/rating"
	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

type mockDeps struct {
	entries     []types.Entry
	games       []types.GameSummary
	logs        map[string]*types.GameLog
	progressErr error
	gamesErr    error
	lastLimit   int
}

func (m *mockDeps) GetStats() map[string]any {
	return map[string]any{"started": true, "agents": len(m.entries)}
}

func (m *mockDeps) Leaderboard(context.Context) []types.Entry { return m.entries }

func (m *mockDeps) Statistics(context.Context) rating.Statistics {
	return rating.Statistics{TotalGames: 3, Agents: len(m.entries), Leaderboard: m.entries}
}

func (m *mockDeps) Predict(_ context.Context, a, b model.AgentID) rating.Prediction {
	p := rating.Expected(1600, 1500)
	return rating.Prediction{AgentA: a, AgentB: b, ProbabilityA: p, ProbabilityB: 1 - p, RatingGap: 100}
}

func (m *mockDeps) Progress(context.Context) (service.ProgressView, error) {
	if m.progressErr != nil {
		return service.ProgressView{}, m.progressErr
	}
	var v service.ProgressView
	v.GamesPerMatchup = 2
	v.Status.Total = 4
	v.Status.Completed = 1
	v.Status.Pending = 3
	return v, nil
}

func (m *mockDeps) RecentGames(_ context.Context, limit int) ([]types.GameSummary, error) {
	m.lastLimit = limit
	if m.gamesErr != nil {
		return nil, m.gamesErr
	}
	return m.games, nil
}

func (m *mockDeps) Game(_ context.Context, id string) (*types.GameLog, error) {
	if l, ok := m.logs[id]; ok {
		return l, nil
	}
	return nil, repository.ErrGameNotFound
}

func (m *mockDeps) ActiveGames(context.Context) []service.ActiveGame {
	return []service.ActiveGame{{GameID: "live", CurrentTurn: 7, Started: time.Unix(0, 0).UTC()}}
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestRoutes(t *testing.T) {
	Convey("Given the status API", t, func() {
		deps := &mockDeps{
			entries: []types.Entry{
				{Rank: 1, Agent: "b", Rating: 1516},
				{Rank: 2, Agent: "a", Rating: 1484},
			},
			games: []types.GameSummary{{GameID: "g1", TotalTurns: 21}},
			logs: map[string]*types.GameLog{
				"g1": {GameID: "g1", TotalTurns: 21, WinnerModel: "b"},
			},
		}
		h := api.NewServer(deps).Routes(context.Background())

		Convey("GET /api/leaderboard lists standings", func() {
			w := get(h, "/api/leaderboard")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			body := decode(w)
			So(body["agents"], ShouldEqual, 2)
			first := body["entries"].([]any)[0].(map[string]any)
			So(first["agent"], ShouldEqual, "b")
			So(first["rank"], ShouldEqual, 1)
		})

		Convey("GET /api/statistics returns totals", func() {
			w := get(h, "/api/statistics")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["total_games"], ShouldEqual, 3)
		})

		Convey("GET /api/predict needs both agents", func() {
			So(get(h, "/api/predict?a=x").Code, ShouldEqual, http.StatusBadRequest)

			w := get(h, "/api/predict?a=x&b=y")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["agent_a"], ShouldEqual, "x")
			So(body["probability_a"].(float64)+body["probability_b"].(float64), ShouldAlmostEqual, 1.0)
			So(body["rating_difference"], ShouldEqual, 100)
		})

		Convey("GET /api/progress reports the schedule", func() {
			w := get(h, "/api/progress")

			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["games_per_matchup"], ShouldEqual, 2)
			So(body["status"].(map[string]any)["pending"], ShouldEqual, 3)
		})

		Convey("GET /api/progress without a tournament is 404", func() {
			deps.progressErr = service.ErrNoTournament

			So(get(h, "/api/progress").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("GET /api/games defaults the limit to 50", func() {
			w := get(h, "/api/games")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 50)
			So(decode(w)["count"], ShouldEqual, 1)
		})

		Convey("GET /api/games rejects a bad limit", func() {
			So(get(h, "/api/games?limit=0").Code, ShouldEqual, http.StatusBadRequest)
			So(get(h, "/api/games?limit=abc").Code, ShouldEqual, http.StatusBadRequest)

			So(get(h, "/api/games?limit=5").Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 5)
		})

		Convey("GET /api/games surfaces store failures", func() {
			deps.gamesErr = errors.New("disk gone")

			So(get(h, "/api/games").Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("GET /api/games/{id} returns one log or 404", func() {
			w := get(h, "/api/games/g1")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["winner_model"], ShouldEqual, "b")

			w = get(h, "/api/games/missing")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("GET /api/active-games lists live games", func() {
			w := get(h, "/api/active-games")

			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["count"], ShouldEqual, 1)
			So(body["games"].([]any)[0].(map[string]any)["current_turn"], ShouldEqual, 7)
		})

		Convey("GET /stats returns service stats", func() {
			w := get(h, "/stats")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("GET /healthz exposes metrics", func() {
			_ = get(h, "/api/leaderboard")
			w := get(h, "/healthz")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
			So(w.Body.String(), ShouldContainSubstring, `endpoint="/api/leaderboard"`)
		})

		Convey("Unknown routes and write methods are rejected", func() {
			So(get(h, "/nope").Code, ShouldEqual, http.StatusNotFound)

			req := httptest.NewRequest(http.MethodPost, "/api/leaderboard", strings.NewReader("{}"))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
