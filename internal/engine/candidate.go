// Package engine implements the autofill decision core: the confidence
// matcher, profile value resolution, and the per-field skip/fill state
// machine. The engine is pure over its inputs; it performs no I/O and holds
// no shared mutable state, so it is safe to run concurrently against
// different documents.
package engine

import "time"

// Candidate is one form control under evaluation, exposed through a fixed
// attribute set so the engine can run against any scope: a live DOM, parsed
// HTML, or synthetic fixtures.
type Candidate interface {
	// TagName is the lowercase element name, "input" or "textarea".
	TagName() string
	Name() string
	ID() string
	// Type is the lowercase input type attribute; empty for textareas.
	Type() string
	Placeholder() string
	Value() string
	// Label is the resolved label text for the control.
	Label() string
	Autocomplete() string
	Disabled() bool
	ReadOnly() bool

	// SetValue writes the value through whatever mechanism the backing
	// implementation requires (e.g. a native property setter), then applies
	// the requested side effects.
	SetValue(value string, opts FillOptions)
}

// Document yields candidate fields in document order.
type Document interface {
	Fields() []Candidate
}

// FillOptions carries the side effects requested for a fill action.
type FillOptions struct {
	// DispatchEvents asks the implementation to emit input/change/blur
	// notifications so reactive frameworks treat the write as user input.
	DispatchEvents bool
	// Highlight applies a transient visual marker that self-reverts after
	// HighlightDuration.
	Highlight         bool
	HighlightDuration time.Duration
}

// Settings configures one orchestration pass.
type Settings struct {
	Enabled             bool          `json:"enabled"`
	ConfidenceThreshold int           `json:"confidenceThreshold"`
	HighlightFilled     bool          `json:"highlightFilled"`
	HighlightDuration   time.Duration `json:"highlightDuration"`
	DispatchEvents      bool          `json:"dispatchEvents"`
	SkipFilledFields    bool          `json:"skipFilledFields"`
	// UserInitiated marks the pass as an explicit per-page user action,
	// which is what fields with the on_click policy require.
	UserInitiated bool `json:"userInitiated"`
}

// DefaultSettings returns the settings used when the caller supplies none.
func DefaultSettings() Settings {
	return Settings{
		Enabled:             true,
		ConfidenceThreshold: 50,
		HighlightFilled:     true,
		HighlightDuration:   2 * time.Second,
		DispatchEvents:      true,
		SkipFilledFields:    true,
	}
}
