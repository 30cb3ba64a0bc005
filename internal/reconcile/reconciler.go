package reconcile

import (
	"fmt"
	"sync"

	"github.com/azlog-io/azlog/internal/ir"
)

// Diff is what a comparator reports about an existing resource.
type Diff struct {
	// InSync means the observed resource already satisfies the declaration.
	InSync bool
	// Additions carries the missing declared elements (subnets, columns).
	// Applying them never removes or mutates what is already there.
	Additions map[string]any
	// Destructive marks a gap that cannot be closed additively, e.g. a
	// column whose type changed. Destructive gaps are always conflicts.
	Destructive bool
	Reason      string
}

// Comparator supplies the resource-type-specific half of reconciliation.
type Comparator interface {
	// BuildSpec renders the full creation spec from a declaration.
	BuildSpec(decl *ir.ResourceDeclaration) map[string]any
	// Compare reports the gap between an existing resource and the
	// declaration. Only called when the resource exists.
	Compare(observed *ir.ObservedState, decl *ir.ResourceDeclaration) Diff
}

var (
	comparatorsMu sync.RWMutex
	comparators   = map[ir.ResourceType]Comparator{}
)

// RegisterComparator binds a comparator to a resource type.
func RegisterComparator(t ir.ResourceType, c Comparator) {
	comparatorsMu.Lock()
	defer comparatorsMu.Unlock()
	comparators[t] = c
}

func comparatorFor(t ir.ResourceType) Comparator {
	comparatorsMu.RLock()
	defer comparatorsMu.RUnlock()
	if c, ok := comparators[t]; ok {
		return c
	}
	return genericComparator{}
}

// Reconcile decides what to do about one declaration given the observed
// state. The decision is terminal: no retries happen at this layer.
//
//   - absent                      -> CREATE
//   - exists, no gap              -> NOOP
//   - additive gap, skipExisting  -> UPDATE (additions only)
//   - any gap, strict mode        -> CONFLICT
//   - destructive gap             -> CONFLICT
func Reconcile(decl *ir.ResourceDeclaration, observed *ir.ObservedState, skipExisting bool) *ir.Decision {
	cmp := comparatorFor(decl.Type)

	if observed == nil || !observed.Exists {
		return &ir.Decision{Action: ir.ActionCreate, Spec: cmp.BuildSpec(decl)}
	}

	diff := cmp.Compare(observed, decl)
	if diff.InSync {
		return &ir.Decision{Action: ir.ActionNoOp}
	}
	if diff.Destructive {
		return &ir.Decision{Action: ir.ActionConflict, Reason: diff.Reason}
	}
	if !skipExisting {
		reason := diff.Reason
		if reason == "" {
			reason = fmt.Sprintf("%s already exists", decl.Address())
		}
		return &ir.Decision{Action: ir.ActionConflict, Reason: reason}
	}
	if len(diff.Additions) == 0 {
		// Nothing to add; adopt the existing resource.
		return &ir.Decision{Action: ir.ActionNoOp}
	}
	return &ir.Decision{Action: ir.ActionUpdate, Diff: diff.Additions}
}
