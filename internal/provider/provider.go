package provider

import (
	"context"

	"github.com/azlog-io/azlog/internal/ir"
)

// Applied is what a successful Apply returns.
type Applied struct {
	// ID is the provider-assigned resource identifier.
	ID string
	// Outputs carries resolved fields downstream steps need, e.g. a
	// storage connection string or a DCR immutable ID.
	Outputs map[string]any
}

// Interface is the cloud-resource collaborator the engine drives. The real
// implementation talks ARM; tests use the in-memory null provider.
type Interface interface {
	// CheckFoundation reports whether the resource group every other
	// resource lives in exists. It is strictly read-only; plan relies on
	// that.
	CheckFoundation(ctx context.Context, run *ir.RunContext) (bool, error)

	// EnsureFoundation verifies the resource group exists and creates it
	// when absent. An error here is terminal for the run.
	EnsureFoundation(ctx context.Context, run *ir.RunContext) error

	// Get observes the current state of the named resource. "Not found"
	// is reported through ObservedState.Exists; only transport or auth
	// problems surface as errors.
	Get(ctx context.Context, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*ir.ObservedState, error)

	// Apply creates or updates the named resource according to the
	// decision. Global-uniqueness collisions must be reported as
	// *ConflictError so the caller can retry under a new name.
	Apply(ctx context.Context, run *ir.RunContext, decl *ir.ResourceDeclaration, decision *ir.Decision, name string) (*Applied, error)
}
