package events

import "time"

type RunCompletedEvent struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Profile   string    `json:"profile,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Trials    int       `json:"trials,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CatalogReloadedEvent struct {
	Path      string    `json:"path"`
	Scenarios int       `json:"scenarios"`
	Goals     int       `json:"goals"`
	Risks     int       `json:"risks"`
	Timestamp time.Time `json:"timestamp"`
}
