package ir

// Action is the reconciliation verdict for a single resource.
type Action string

const (
	ActionNoOp     Action = "NOOP"
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionConflict Action = "CONFLICT"
)

// Decision is the terminal outcome of reconciling one declaration against
// observed state. Exactly one action applies per resource per run.
type Decision struct {
	Action Action
	// Spec is the full desired spec, set for CREATE.
	Spec map[string]any
	// Diff carries only the additions to make, set for UPDATE. Updates are
	// additive: an update never removes or mutates existing elements.
	Diff map[string]any
	// Reason explains a CONFLICT.
	Reason string
}

// NoOp reports whether the decision requires no provider call.
func (d *Decision) NoOp() bool {
	return d.Action == ActionNoOp
}
