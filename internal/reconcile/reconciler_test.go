package reconcile

import (
	"testing"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vnetDecl(subnets ...ir.SubnetSpec) *ir.ResourceDeclaration {
	return &ir.ResourceDeclaration{
		Type:     ir.TypeVNet,
		BaseName: "vnet-cribl",
		Location: "eastus",
		Attributes: map[string]any{
			ir.AttrAddressSpace: []string{"10.10.0.0/16"},
			ir.AttrSubnets:      subnets,
		},
	}
}

func TestReconcile_AbsentCreates(t *testing.T) {
	decl := vnetDecl(ir.SubnetSpec{Name: "default", AddressPrefix: "10.10.1.0/24"})

	d := Reconcile(decl, &ir.ObservedState{Exists: false}, true)
	assert.Equal(t, ir.ActionCreate, d.Action)
	require.NotNil(t, d.Spec)
	assert.Contains(t, d.Spec, ir.AttrSubnets)
}

func TestReconcile_ExistingInSyncIsNoOp(t *testing.T) {
	decl := vnetDecl(ir.SubnetSpec{Name: "default", AddressPrefix: "10.10.1.0/24"})
	observed := &ir.ObservedState{
		Exists:   true,
		Snapshot: map[string]any{ir.AttrSubnets: []string{"default", "GatewaySubnet"}},
	}

	// Idempotency holds in both modes.
	for _, skip := range []bool{true, false} {
		d := Reconcile(decl, observed, skip)
		assert.Equal(t, ir.ActionNoOp, d.Action, "skipExisting=%v", skip)
	}
}

func TestReconcile_MissingSubnetIsAdditiveUpdate(t *testing.T) {
	decl := vnetDecl(
		ir.SubnetSpec{Name: "default", AddressPrefix: "10.10.1.0/24"},
		ir.SubnetSpec{Name: "flowlogs", AddressPrefix: "10.10.2.0/24"},
	)
	observed := &ir.ObservedState{
		Exists:   true,
		Snapshot: map[string]any{ir.AttrSubnets: []string{"default"}},
	}

	d := Reconcile(decl, observed, true)
	require.Equal(t, ir.ActionUpdate, d.Action)
	missing, ok := d.Diff[ir.AttrSubnets].([]ir.SubnetSpec)
	require.True(t, ok)
	require.Len(t, missing, 1)
	assert.Equal(t, "flowlogs", missing[0].Name)
}

func TestReconcile_GapInStrictModeConflicts(t *testing.T) {
	decl := vnetDecl(ir.SubnetSpec{Name: "flowlogs", AddressPrefix: "10.10.2.0/24"})
	observed := &ir.ObservedState{
		Exists:   true,
		Snapshot: map[string]any{ir.AttrSubnets: []string{"default"}},
	}

	d := Reconcile(decl, observed, false)
	assert.Equal(t, ir.ActionConflict, d.Action)
	assert.NotEmpty(t, d.Reason)
}

func TestReconcile_StrictTypesFailLoudlyOnExistence(t *testing.T) {
	decl := &ir.ResourceDeclaration{Type: ir.TypePublicIP, BaseName: "pip-gw"}
	observed := &ir.ObservedState{Exists: true}

	d := Reconcile(decl, observed, false)
	assert.Equal(t, ir.ActionConflict, d.Action)
	assert.Contains(t, d.Reason, "already exists")

	// Permissive mode adopts the existing resource instead.
	d = Reconcile(decl, observed, true)
	assert.Equal(t, ir.ActionNoOp, d.Action)
}

func TestReconcile_TableColumns(t *testing.T) {
	decl := &ir.ResourceDeclaration{
		Type:     ir.TypeTable,
		BaseName: "CommonSecurityLog",
		Attributes: map[string]any{
			ir.AttrColumns: []ir.ColumnSpec{
				{Name: "TimeGenerated", Type: "dateTime"},
				{Name: "SourceIP", Type: "string"},
			},
		},
	}

	// Missing column: additive update.
	observed := &ir.ObservedState{
		Exists:   true,
		Snapshot: map[string]any{ir.AttrColumns: map[string]string{"TimeGenerated": "dateTime"}},
	}
	d := Reconcile(decl, observed, true)
	require.Equal(t, ir.ActionUpdate, d.Action)
	missing := d.Diff[ir.AttrColumns].([]ir.ColumnSpec)
	require.Len(t, missing, 1)
	assert.Equal(t, "SourceIP", missing[0].Name)

	// Type change: destructive, conflicts even in permissive mode.
	observed = &ir.ObservedState{
		Exists: true,
		Snapshot: map[string]any{ir.AttrColumns: map[string]string{
			"TimeGenerated": "dateTime",
			"SourceIP":      "int",
		}},
	}
	d = Reconcile(decl, observed, true)
	assert.Equal(t, ir.ActionConflict, d.Action)
	assert.Contains(t, d.Reason, "SourceIP")
}

func TestReconcile_FlowLogReEnable(t *testing.T) {
	decl := &ir.ResourceDeclaration{
		Type:     ir.TypeFlowLog,
		BaseName: "fl-vnet-cribl",
		Attributes: map[string]any{
			ir.AttrRetentionDays: 30,
		},
	}
	observed := &ir.ObservedState{
		Exists: true,
		Snapshot: map[string]any{
			ir.AttrEnabled:       false,
			ir.AttrRetentionDays: 7,
		},
	}

	d := Reconcile(decl, observed, true)
	require.Equal(t, ir.ActionUpdate, d.Action)
	assert.Equal(t, true, d.Diff[ir.AttrEnabled])
	assert.Equal(t, 30, d.Diff[ir.AttrRetentionDays])

	// Already enabled at the declared retention: nothing to do.
	observed.Snapshot[ir.AttrEnabled] = true
	observed.Snapshot[ir.AttrRetentionDays] = 30
	d = Reconcile(decl, observed, true)
	assert.Equal(t, ir.ActionNoOp, d.Action)
}
