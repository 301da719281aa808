package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/skipulag/vegvisir/internal/catalog"
	"github.com/skipulag/vegvisir/internal/engine"
)

type CatalogHandler struct {
	holder *engine.Holder
}

func NewCatalogHandler(h *engine.Holder) *CatalogHandler {
	return &CatalogHandler{holder: h}
}

func (h *CatalogHandler) Scenarios(w http.ResponseWriter, r *http.Request) {
	cat := h.holder.Get().Catalog()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": cat.Scenarios,
		"factors":   cat.Factors,
	})
}

func (h *CatalogHandler) ScenarioRisks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	assessments, ok := h.holder.Get().ScenarioRisks(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown scenario: " + id})
		return
	}

	// Optional top-N cut, highest probability first.
	if top, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && top > 0 && top < len(assessments) {
		assessments = assessments[:top]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario_id": id,
		"risks":       assessments,
	})
}

func (h *CatalogHandler) Goals(w http.ResponseWriter, r *http.Request) {
	cat := h.holder.Get().Catalog()
	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": cat.Goals})
}

func (h *CatalogHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	cat := h.holder.Get().Catalog()
	profiles := cat.Profiles
	if profiles == nil {
		profiles = []catalog.WeightProfile{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

func (h *CatalogHandler) Scores(w http.ResponseWriter, r *http.Request) {
	eng := h.holder.Get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scores":        eng.Scores(),
		"best_per_goal": eng.BestScenarioPerGoal(),
	})
}
