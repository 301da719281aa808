package catalog

import "fmt"

// ConfigurationError reports a catalog invariant violation. It always names
// the offending entity so catalog debugging stays tractable. Configuration
// errors are fatal: the engine never returns partial results over a broken
// catalog.
type ConfigurationError struct {
	Kind      string // "factor", "scenario", "risk", "goal", "profile", "tier_constants", "weights"
	ID        string
	Invariant string
}

func (e *ConfigurationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Invariant)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Invariant)
}

func configErr(kind, id, format string, args ...interface{}) error {
	return &ConfigurationError{Kind: kind, ID: id, Invariant: fmt.Sprintf(format, args...)}
}
