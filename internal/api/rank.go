package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/skipulag/vegvisir/internal/catalog"
	"github.com/skipulag/vegvisir/internal/engine"
	"github.com/skipulag/vegvisir/internal/events"
	"github.com/skipulag/vegvisir/internal/store"
)

type RankHandler struct {
	holder *engine.Holder
	store  store.Store
	events events.Client
}

func NewRankHandler(h *engine.Holder, s store.Store, ev events.Client) *RankHandler {
	return &RankHandler{holder: h, store: s, events: ev}
}

// RankRequest selects a weight vector either by profile name or explicitly.
// Explicit weights must cover every goal and sum to 1.
type RankRequest struct {
	Profile string             `json:"profile,omitempty"`
	Weights map[string]float64 `json:"weights,omitempty"`
}

type RankResponse struct {
	RunID   string                  `json:"run_id"`
	Profile string                  `json:"profile,omitempty"`
	Weights map[string]float64      `json:"weights"`
	Ranking []engine.RankedScenario `json:"ranking"`
}

func (h *RankHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	eng := h.holder.Get()
	weights, err := resolveWeights(eng.Catalog(), req.Profile, req.Weights)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ranking, err := eng.Rank(weights)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	rankRequests.Inc()

	run := &store.Run{
		Kind:    store.KindRanking,
		Profile: req.Profile,
		Weights: weights,
		Results: map[string]interface{}{"ranking": ranking},
	}
	if err := h.store.CreateRun(r.Context(), run); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_ = h.events.Publish(events.SubjectRunCompleted(run.ID.String()), events.RunCompletedEvent{
		RunID:     run.ID.String(),
		Kind:      string(store.KindRanking),
		Profile:   req.Profile,
		Winner:    ranking[0].ScenarioID,
		Timestamp: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, RankResponse{
		RunID:   run.ID.String(),
		Profile: req.Profile,
		Weights: weights,
		Ranking: ranking,
	})
}

// resolveWeights picks the request's weight vector: a named profile, explicit
// weights, or neither but not both.
func resolveWeights(cat *catalog.Catalog, profile string, weights map[string]float64) (map[string]float64, error) {
	if profile != "" && weights != nil {
		return nil, errors.New("specify either profile or weights, not both")
	}
	if profile != "" {
		p := cat.Profile(profile)
		if p == nil {
			return nil, errors.New("unknown profile: " + profile)
		}
		return p.Weights, nil
	}
	if weights != nil {
		return weights, nil
	}
	return nil, errors.New("profile or weights required")
}

func writeConfigError(w http.ResponseWriter, err error) {
	var cfgErr *catalog.ConfigurationError
	if errors.As(err, &cfgErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": cfgErr.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
