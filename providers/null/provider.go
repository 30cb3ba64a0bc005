// Package null is an in-memory provider used by unit tests and dry runs.
// It records every call and supports scripted failures and global-name
// collisions.
package null

import (
	"context"
	"fmt"
	"sync"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/provider"
)

func init() {
	provider.RegisterFactory("null", func() provider.Interface { return New() })
}

type Provider struct {
	mu sync.Mutex

	foundationErr     error
	foundationMissing bool
	resources         map[string]map[string]any
	taken             map[string]bool
	getErrs           map[string]error
	applyErrs         map[string]error

	// GetCalls and ApplyCalls record the names each method was invoked
	// with, in order. EnsureCalls counts EnsureFoundation invocations.
	GetCalls    []string
	ApplyCalls  []string
	EnsureCalls int
}

func New() *Provider {
	return &Provider{
		resources: make(map[string]map[string]any),
		taken:     make(map[string]bool),
		getErrs:   make(map[string]error),
		applyErrs: make(map[string]error),
	}
}

// Seed registers an already-existing resource under its final name.
func (p *Provider) Seed(name string, snapshot map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	p.resources[name] = snapshot
}

// MarkTaken claims a name in the simulated global namespace: creates under
// it fail with a ConflictError.
func (p *Provider) MarkTaken(names ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range names {
		p.taken[n] = true
	}
}

// FailFoundation makes CheckFoundation and EnsureFoundation fail.
func (p *Provider) FailFoundation(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.foundationErr = err
}

// RemoveFoundation marks the resource group absent until EnsureFoundation
// runs.
func (p *Provider) RemoveFoundation() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.foundationMissing = true
}

// FailGet makes Get fail for the given resource address.
func (p *Provider) FailGet(address string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getErrs[address] = err
}

// FailApply makes Apply fail for the given resource address.
func (p *Provider) FailApply(address string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyErrs[address] = err
}

func (p *Provider) CheckFoundation(ctx context.Context, run *ir.RunContext) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.foundationErr != nil {
		return false, p.foundationErr
	}
	return !p.foundationMissing, nil
}

func (p *Provider) EnsureFoundation(ctx context.Context, run *ir.RunContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EnsureCalls++
	if p.foundationErr != nil {
		return p.foundationErr
	}
	p.foundationMissing = false
	return nil
}

func (p *Provider) Get(ctx context.Context, run *ir.RunContext, decl *ir.ResourceDeclaration, name string) (*ir.ObservedState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.GetCalls = append(p.GetCalls, name)
	if err := p.getErrs[decl.Address()]; err != nil {
		return nil, err
	}

	snapshot, ok := p.resources[name]
	if !ok {
		return &ir.ObservedState{Exists: false}, nil
	}
	return &ir.ObservedState{Exists: true, Snapshot: snapshot}, nil
}

func (p *Provider) Apply(ctx context.Context, run *ir.RunContext, decl *ir.ResourceDeclaration, decision *ir.Decision, name string) (*provider.Applied, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ApplyCalls = append(p.ApplyCalls, name)
	if err := p.applyErrs[decl.Address()]; err != nil {
		return nil, err
	}
	if decision.Action == ir.ActionCreate && p.taken[name] {
		return nil, &provider.ConflictError{Name: name, Reason: "name taken in global namespace"}
	}

	snapshot := p.resources[name]
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	for k, v := range decision.Spec {
		snapshot[k] = v
	}
	for k, v := range decision.Diff {
		snapshot[k] = v
	}
	p.resources[name] = snapshot

	return &provider.Applied{
		ID:      fmt.Sprintf("null://%s/%s", decl.Type, name),
		Outputs: map[string]any{"id": fmt.Sprintf("null://%s/%s", decl.Type, name), "name": name},
	}, nil
}
