package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/skipulag/vegvisir/internal/catalog"
	"github.com/skipulag/vegvisir/internal/engine"
	"github.com/skipulag/vegvisir/internal/events"
)

type AdminHandler struct {
	holder      *engine.Holder
	events      events.Client
	catalogPath string
	logger      *slog.Logger
}

func NewAdminHandler(h *engine.Holder, ev events.Client, catalogPath string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{holder: h, events: ev, catalogPath: catalogPath, logger: logger}
}

// Reload loads the catalog from disk, recalibrates, and swaps the new engine
// in atomically. A catalog that fails validation or calibration leaves the
// running engine untouched.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	cat, err := catalog.Load(h.catalogPath)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	eng, err := engine.New(cat, h.logger)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	h.holder.Swap(eng)
	catalogReloads.Inc()
	h.logger.Info("catalog reloaded",
		"path", h.catalogPath,
		"scenarios", len(cat.Scenarios),
		"risks", len(cat.Risks),
		"goals", len(cat.Goals),
	)

	_ = h.events.Publish(events.SubjectCatalogReloaded, events.CatalogReloadedEvent{
		Path:      h.catalogPath,
		Scenarios: len(cat.Scenarios),
		Goals:     len(cat.Goals),
		Risks:     len(cat.Risks),
		Timestamp: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "reloaded",
		"scenarios": len(cat.Scenarios),
		"risks":     len(cat.Risks),
		"goals":     len(cat.Goals),
	})
}
