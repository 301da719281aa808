package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skipulag/vegvisir/internal/catalog"
	"github.com/skipulag/vegvisir/internal/engine"
	"github.com/skipulag/vegvisir/internal/events"
	"github.com/skipulag/vegvisir/internal/store"
)

const testCatalogYAML = `
tier_constants: {low: 0.2, medium: 0.4, high: 0.7}
factors:
  - {id: F1, name: Decision Complexity}
  - {id: F2, name: Contractor Strength}
scenarios:
  - {id: S1, name: City-led, factors: {F1: 2, F2: 4}}
  - {id: S2, name: Market sale, factors: {F1: 4, F2: 2}}
goals:
  - id: G1
    name: Delivery Speed
    direction: lower_is_better
    baseline: {constant: 36}
  - id: G2
    name: Build Quality
    direction: higher_is_better
    baseline: {constant: 100}
risks:
  - id: R1
    name: Zoning Plan Delays
    base_probability: {low: 0.20, likely: 0.40, high: 0.65}
    sensitivities:
      - {factor: F2, direction: protective, tier: medium}
    impacts:
      - {goal: G1, magnitude: {low: 3, likely: 6, high: 12}}
      - {goal: G2, magnitude: {low: -10, likely: -6, high: -3}}
  - id: R2
    name: Contractor Insolvency
    base_probability: {low: 0.05, likely: 0.15, high: 0.35}
    sensitivities:
      - {factor: F1, direction: exposure, tier: low}
    impacts:
      - {goal: G1, magnitude: {low: 4, likely: 9, high: 18}}
      - {goal: G2, magnitude: {low: -12, likely: -8, high: -2}}
weight_profiles:
  - {name: balanced, weights: {G1: 1, G2: 1}}
`

type testServer struct {
	handler     http.Handler
	store       *store.MemoryStore
	catalogPath string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0o644))

	cat, err := catalog.Load(path)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(cat, logger)
	require.NoError(t, err)

	s := store.NewMemoryStore()
	sim := SimulationDefaults{
		DefaultTrials: 1000,
		MaxTrials:     100000,
		DefaultAlpha:  1.0,
		BatchSize:     128,
	}
	handler := NewRouter(engine.NewHolder(eng), s, events.NoopClient{}, sim, path, "admin-secret", logger)
	return &testServer{handler: handler, store: s, catalogPath: path}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func TestGetScenarios(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Scenarios []catalog.Scenario `json:"scenarios"`
		Factors   []catalog.Factor   `json:"factors"`
	}
	decode(t, w, &resp)
	assert.Len(t, resp.Scenarios, 2)
	assert.Len(t, resp.Factors, 2)
	assert.Equal(t, "S1", resp.Scenarios[0].ID)
}

func TestGetScenarioRisks(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/scenarios/S2/risks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ScenarioID string                  `json:"scenario_id"`
		Risks      []engine.RiskAssessment `json:"risks"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "S2", resp.ScenarioID)
	require.Len(t, resp.Risks, 2)
	assert.GreaterOrEqual(t, resp.Risks[0].Probability, resp.Risks[1].Probability)
}

func TestGetScenarioRisksTopN(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/scenarios/S2/risks?top=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Risks []engine.RiskAssessment `json:"risks"`
	}
	decode(t, w, &resp)
	assert.Len(t, resp.Risks, 1)
}

func TestGetScenarioRisksUnknown(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, "GET", "/api/v1/scenarios/S99/risks", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetGoalsAndProfiles(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/goals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var goals struct {
		Goals []catalog.Goal `json:"goals"`
	}
	decode(t, w, &goals)
	assert.Len(t, goals.Goals, 2)

	w = ts.do(t, "GET", "/api/v1/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profiles struct {
		Profiles []catalog.WeightProfile `json:"profiles"`
	}
	decode(t, w, &profiles)
	require.Len(t, profiles.Profiles, 1)
	// Authored weights are normalized onto the simplex at load.
	assert.InDelta(t, 0.5, profiles.Profiles[0].Weights["G1"], 1e-12)
}

func TestGetScores(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/scores", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Scores      map[string][]engine.GoalScore `json:"scores"`
		BestPerGoal map[string]string             `json:"best_per_goal"`
	}
	decode(t, w, &resp)
	assert.Len(t, resp.Scores, 2)
	assert.Len(t, resp.Scores["S1"], 2)
	assert.Len(t, resp.BestPerGoal, 2)
}

func TestRankWithProfile(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/v1/rank", RankRequest{Profile: "balanced"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RankResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "balanced", resp.Profile)
	require.Len(t, resp.Ranking, 2)
	assert.Equal(t, 1, resp.Ranking[0].Rank)
	assert.GreaterOrEqual(t, resp.Ranking[0].WeightedTotal, resp.Ranking[1].WeightedTotal)

	// The run is persisted.
	runs, err := ts.store.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.KindRanking, runs[0].Kind)
}

func TestRankWithExplicitWeights(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/v1/rank", RankRequest{
		Weights: map[string]float64{"G1": 0.25, "G2": 0.75},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RankResponse
	decode(t, w, &resp)
	assert.InDelta(t, 0.25, resp.Weights["G1"], 1e-12)
}

func TestRankRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", RankRequest{}},
		{"both profile and weights", RankRequest{Profile: "balanced", Weights: map[string]float64{"G1": 1}}},
		{"unknown profile", RankRequest{Profile: "nonexistent"}},
		{"weights not summing to one", RankRequest{Weights: map[string]float64{"G1": 0.9, "G2": 0.9}}},
		{"missing goal", RankRequest{Weights: map[string]float64{"G1": 1}}},
		{"negative weight", RankRequest{Weights: map[string]float64{"G1": 1.5, "G2": -0.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, "POST", "/api/v1/rank", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSimulate(t *testing.T) {
	ts := newTestServer(t)

	alpha := 2.0
	trials := 500
	seed := uint64(42)
	w := ts.do(t, "POST", "/api/v1/simulate", SimulateRequest{Alpha: &alpha, Trials: &trials, Seed: &seed})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RunID        string             `json:"run_id"`
		Alpha        float64            `json:"alpha"`
		Trials       int                `json:"trials"`
		Seed         uint64             `json:"seed"`
		WinFractions map[string]float64 `json:"win_fractions"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 2.0, resp.Alpha)
	assert.Equal(t, 500, resp.Trials)
	assert.Equal(t, uint64(42), resp.Seed)

	sum := 0.0
	for _, f := range resp.WinFractions {
		sum += f
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	runs, err := ts.store.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.KindSimulation, runs[0].Kind)
}

func TestSimulateDefaultsAndSeedEcho(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/v1/simulate", SimulateRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Alpha  float64 `json:"alpha"`
		Trials int     `json:"trials"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 1.0, resp.Alpha)
	assert.Equal(t, 1000, resp.Trials)
}

func TestSimulateRejectsTrialsOverMax(t *testing.T) {
	ts := newTestServer(t)

	trials := 1000001
	w := ts.do(t, "POST", "/api/v1/simulate", SimulateRequest{Trials: &trials})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulateRejectsBadAlpha(t *testing.T) {
	ts := newTestServer(t)

	alpha := -1.0
	w := ts.do(t, "POST", "/api/v1/simulate", SimulateRequest{Alpha: &alpha})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunsListAndGet(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/v1/rank", RankRequest{Profile: "balanced"})
	require.Equal(t, http.StatusOK, w.Code)
	var ranked RankResponse
	decode(t, w, &ranked)

	w = ts.do(t, "GET", "/api/v1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []*store.Run `json:"runs"`
	}
	decode(t, w, &list)
	require.Len(t, list.Runs, 1)

	w = ts.do(t, "GET", "/api/v1/runs/"+ranked.RunID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, "GET", "/api/v1/runs?kind=simulation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list.Runs, 0)
}

func TestRunsGetErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/api/v1/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, "GET", "/api/v1/runs/6f1c0f6e-0000-4000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, "GET", "/api/v1/runs?kind=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminReloadRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/api/v1/admin/reload", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminReload(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/admin/reload", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status    string `json:"status"`
		Scenarios int    `json:"scenarios"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "reloaded", resp.Status)
	assert.Equal(t, 2, resp.Scenarios)
}

func TestAdminReloadRejectsBrokenCatalog(t *testing.T) {
	ts := newTestServer(t)

	require.NoError(t, os.WriteFile(ts.catalogPath, []byte("scenarios: [broken"), 0o644))

	req := httptest.NewRequest("POST", "/api/v1/admin/reload", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// The running engine is untouched.
	w2 := ts.do(t, "GET", "/api/v1/scores", nil)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewMetricsRouter()
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
