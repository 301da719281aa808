package events

const (
	StreamName   = "VEGVISIR_EVENTS"
	StreamMaxAge = "720h" // 30 days

	SubjectCatalogReloaded = "veg.catalog.reloaded"
)

func SubjectRunCompleted(runID string) string { return "veg.run." + runID + ".completed" }
