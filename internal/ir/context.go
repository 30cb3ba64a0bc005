package ir

import "time"

// RunContext is the immutable per-run configuration. It is constructed once
// by the config loader and passed explicitly into every component; there is
// no ambient global configuration state.
type RunContext struct {
	SubscriptionID string
	ResourceGroup  string
	Location       string
	Workspace      string

	// SkipExisting permits non-destructive updates to resources that
	// already exist instead of treating them as conflicts.
	SkipExisting bool
	// AbortOnFailure stops the run after the first failed resource,
	// marking the remainder as skipped.
	AbortOnFailure bool
	// Timeout bounds each provider operation. Zero means the engine
	// default.
	Timeout time.Duration

	// OutputDir receives the rendered Cribl configuration files.
	OutputDir string
}
