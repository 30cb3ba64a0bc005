package null

import (
	"context"
	"testing"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Provider contract: Get reports absence as data, Apply makes the resource
// observable, collisions surface as ConflictError.

func TestProvider_Lifecycle(t *testing.T) {
	ctx := context.Background()
	p := New()
	run := &ir.RunContext{ResourceGroup: "rg-test"}
	decl := &ir.ResourceDeclaration{Type: ir.TypeTable, BaseName: "Syslog"}

	require.NoError(t, p.EnsureFoundation(ctx, run))

	// 1. Absent resource: exists=false, not an error.
	observed, err := p.Get(ctx, run, decl, "Syslog_CL")
	require.NoError(t, err)
	assert.False(t, observed.Exists)

	// 2. Create.
	applied, err := p.Apply(ctx, run, decl, &ir.Decision{
		Action: ir.ActionCreate,
		Spec:   map[string]any{ir.AttrRetentionDays: 30},
	}, "Syslog_CL")
	require.NoError(t, err)
	assert.NotEmpty(t, applied.ID)

	// 3. Now observable, with the applied spec as snapshot.
	observed, err = p.Get(ctx, run, decl, "Syslog_CL")
	require.NoError(t, err)
	assert.True(t, observed.Exists)
	assert.Equal(t, 30, observed.Snapshot[ir.AttrRetentionDays])

	// 4. Additive update merges into the snapshot.
	_, err = p.Apply(ctx, run, decl, &ir.Decision{
		Action: ir.ActionUpdate,
		Diff:   map[string]any{ir.AttrRetentionDays: 90},
	}, "Syslog_CL")
	require.NoError(t, err)
	observed, _ = p.Get(ctx, run, decl, "Syslog_CL")
	assert.Equal(t, 90, observed.Snapshot[ir.AttrRetentionDays])
}

func TestProvider_FoundationCheckIsReadOnly(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.RemoveFoundation()
	run := &ir.RunContext{ResourceGroup: "rg-test"}

	exists, err := p.CheckFoundation(ctx, run)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Zero(t, p.EnsureCalls)

	// Checking did not create; ensuring does.
	require.NoError(t, p.EnsureFoundation(ctx, run))
	exists, err = p.CheckFoundation(ctx, run)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, p.EnsureCalls)
}

func TestProvider_GlobalNameConflict(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.MarkTaken("sacribl")

	decl := &ir.ResourceDeclaration{Type: ir.TypeStorageAccount, BaseName: "cribl", GloballyUnique: true}
	_, err := p.Apply(ctx, &ir.RunContext{}, decl, &ir.Decision{Action: ir.ActionCreate}, "sacribl")
	require.Error(t, err)
	assert.True(t, provider.IsConflict(err))

	// A suffixed name is free.
	_, err = p.Apply(ctx, &ir.RunContext{}, decl, &ir.Decision{Action: ir.ActionCreate}, "sacribl01")
	require.NoError(t, err)
}

func TestProvider_RegisteredFactory(t *testing.T) {
	reg := provider.NewRegistry()
	p, err := reg.Load("null")
	require.NoError(t, err)
	assert.NotNil(t, p)

	// Load caches the instance.
	again, err := reg.Load("null")
	require.NoError(t, err)
	assert.Same(t, p, again)
}
