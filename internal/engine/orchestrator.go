package engine

import (
	"context"
	"time"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/logging"
	"github.com/azlog-io/azlog/internal/naming"
	"github.com/azlog-io/azlog/internal/provider"
	"github.com/azlog-io/azlog/internal/reconcile"
)

// Event reports per-resource progress during a run.
type Event struct {
	Address  string
	Action   string
	Status   string // "started", "completed", "failed", "skipped"
	Duration time.Duration
	Err      error
}

// Callback receives progress events if set.
type Callback func(Event)

// Orchestrator drives reconciliation across an ordered declaration list.
// Declarations run strictly sequentially: later resources depend on earlier
// ones existing, and observed state is fetched fresh per resource.
type Orchestrator struct {
	prov provider.Interface
	// Callback receives progress events for the CLI renderer.
	Callback Callback
	// Overrides maps a declaration address to a previously resolved name,
	// typically read from the deployment ledger. An override bypasses name
	// building, so uniqueness suffixes and user renames survive re-runs.
	Overrides map[string]string
}

func New(prov provider.Interface) *Orchestrator {
	return &Orchestrator{prov: prov}
}

// Run reconciles every declaration and returns the summary. Per-resource
// failures are recorded and the run continues; only a terminal setup
// failure (the resource group itself) short-circuits, in which case the
// returned error is non-nil and the remaining declarations are skipped.
func (o *Orchestrator) Run(ctx context.Context, run *ir.RunContext, decls []*ir.ResourceDeclaration) (*ir.DeploymentSummary, error) {
	summary := &ir.DeploymentSummary{TotalDeclared: len(decls)}

	if err := o.prov.EnsureFoundation(ctx, run); err != nil {
		if !provider.IsTerminal(err) {
			err = &provider.TerminalSetupError{Err: err}
		}
		logging.Error("foundation check failed", "error", err)
		for _, decl := range decls {
			o.skip(summary, decl)
		}
		return summary, err
	}

	abort := false
	for _, decl := range decls {
		if abort || ctx.Err() != nil {
			o.skip(summary, decl)
			continue
		}

		outcome := o.reconcileOne(ctx, run, decl)
		summary.Record(outcome)

		if outcome.Result == ir.ResultFailed && run.AbortOnFailure {
			logging.Warn("aborting run after failure", "resource", decl.Address())
			abort = true
		}
	}

	return summary, nil
}

func (o *Orchestrator) reconcileOne(ctx context.Context, run *ir.RunContext, decl *ir.ResourceDeclaration) *ir.DeploymentOutcome {
	start := time.Now()
	outcome := &ir.DeploymentOutcome{Resource: decl}

	fail := func(err error) *ir.DeploymentOutcome {
		outcome.Result = ir.ResultFailed
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		o.emit(Event{Address: decl.Address(), Action: actionOf(outcome.Decision), Status: "failed", Duration: outcome.Duration, Err: err})
		return outcome
	}

	// Naming problems are config errors: fail before any provider call.
	candidate, err := o.candidateFor(decl)
	if err != nil {
		return fail(err)
	}
	outcome.Name = candidate.Value

	opCtx, cancel := WithTimeout(ctx, run.Timeout)
	defer cancel()

	observed, err := o.prov.Get(opCtx, run, decl, candidate.Value)
	if err != nil {
		return fail(err)
	}

	decision := reconcile.Reconcile(decl, observed, run.SkipExisting)
	outcome.Decision = decision
	logging.Debug("reconciled", "resource", decl.Address(), "name", candidate.Value, "action", decision.Action)

	switch decision.Action {
	case ir.ActionNoOp:
		outcome.Result = ir.ResultSucceeded
		outcome.Outputs = observed.Snapshot
		outcome.Duration = time.Since(start)
		o.emit(Event{Address: decl.Address(), Action: string(decision.Action), Status: "completed", Duration: outcome.Duration})
		return outcome

	case ir.ActionConflict:
		return fail(&provider.AlreadyExistsError{Address: decl.Address(), Reason: decision.Reason})
	}

	o.emit(Event{Address: decl.Address(), Action: string(decision.Action), Status: "started"})

	var applied *provider.Applied
	if decl.GloballyUnique && decision.Action == ir.ActionCreate {
		finalName, rerr := naming.CreateWithRetry(opCtx, candidate, decl.Naming.MaxLength, naming.DefaultMaxAttempts,
			func(ctx context.Context, name string) error {
				a, aerr := o.prov.Apply(ctx, run, decl, decision, name)
				if aerr == nil {
					applied = a
				}
				return aerr
			})
		if rerr != nil {
			return fail(rerr)
		}
		outcome.Name = finalName
	} else {
		applied, err = o.prov.Apply(opCtx, run, decl, decision, candidate.Value)
		if err != nil {
			return fail(err)
		}
	}

	outcome.Result = ir.ResultSucceeded
	if applied != nil {
		outcome.Outputs = applied.Outputs
	}
	outcome.Duration = time.Since(start)
	o.emit(Event{Address: decl.Address(), Action: string(decision.Action), Status: "completed", Duration: outcome.Duration})
	return outcome
}

func (o *Orchestrator) candidateFor(decl *ir.ResourceDeclaration) (ir.CandidateName, error) {
	if name, ok := o.Overrides[decl.Address()]; ok && name != "" {
		return ir.CandidateName{
			Value:                 name,
			LengthBudgetRemaining: decl.Naming.MaxLength - len(name),
		}, nil
	}
	return naming.BuildName(decl.BaseName, decl.Location, decl.Naming)
}

func (o *Orchestrator) skip(summary *ir.DeploymentSummary, decl *ir.ResourceDeclaration) {
	summary.Record(&ir.DeploymentOutcome{Resource: decl, Result: ir.ResultSkipped})
	o.emit(Event{Address: decl.Address(), Status: "skipped"})
}

func (o *Orchestrator) emit(event Event) {
	if o.Callback != nil {
		o.Callback(event)
	}
}

func actionOf(d *ir.Decision) string {
	if d == nil {
		return ""
	}
	return string(d.Action)
}
