package api

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/skipulag/vegvisir/internal/engine"
	"github.com/skipulag/vegvisir/internal/events"
	"github.com/skipulag/vegvisir/internal/store"
)

type SimulateHandler struct {
	holder *engine.Holder
	store  store.Store
	events events.Client
	sim    SimulationDefaults
}

func NewSimulateHandler(h *engine.Holder, s store.Store, ev events.Client, sim SimulationDefaults) *SimulateHandler {
	return &SimulateHandler{holder: h, store: s, events: ev, sim: sim}
}

// SimulateRequest configures a robustness run. Omitted fields fall back to
// server defaults; an omitted seed is drawn fresh and echoed back so the run
// can be reproduced.
type SimulateRequest struct {
	Alpha  *float64 `json:"alpha,omitempty"`
	Trials *int     `json:"trials,omitempty"`
	Seed   *uint64  `json:"seed,omitempty"`
}

type SimulateResponse struct {
	RunID string `json:"run_id"`
	*engine.SimulationResult
}

func (h *SimulateHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params := engine.SimulationParams{
		Alpha:     h.sim.DefaultAlpha,
		Trials:    h.sim.DefaultTrials,
		Seed:      rand.Uint64(),
		Workers:   h.sim.Workers,
		BatchSize: h.sim.BatchSize,
	}
	if req.Alpha != nil {
		params.Alpha = *req.Alpha
	}
	if req.Trials != nil {
		params.Trials = *req.Trials
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}
	if params.Trials > h.sim.MaxTrials {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "trials exceeds server maximum",
		})
		return
	}

	start := time.Now()
	result, err := h.holder.Get().Simulate(r.Context(), params)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	simulationTrials.Add(float64(result.Trials))
	simulationDuration.Observe(time.Since(start).Seconds())

	run := &store.Run{
		Kind:    store.KindSimulation,
		Alpha:   &result.Alpha,
		Trials:  &result.Trials,
		Seed:    &result.Seed,
		Results: map[string]interface{}{
			"wins":          result.Wins,
			"win_fractions": result.WinFractions,
		},
	}
	if err := h.store.CreateRun(r.Context(), run); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_ = h.events.Publish(events.SubjectRunCompleted(run.ID.String()), events.RunCompletedEvent{
		RunID:     run.ID.String(),
		Kind:      string(store.KindSimulation),
		Trials:    result.Trials,
		Timestamp: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, SimulateResponse{
		RunID:            run.ID.String(),
		SimulationResult: result,
	})
}
