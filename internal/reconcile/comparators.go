package reconcile

import (
	"fmt"

	"github.com/azlog-io/azlog/internal/ir"
)

func init() {
	RegisterComparator(ir.TypeVNet, vnetComparator{})
	RegisterComparator(ir.TypeTable, tableComparator{})
	RegisterComparator(ir.TypeFlowLog, flowLogComparator{})
	RegisterComparator(ir.TypePublicIP, strictComparator{})
	RegisterComparator(ir.TypeVPNGateway, strictComparator{})
	RegisterComparator(ir.TypeBastion, strictComparator{})
}

// genericComparator is the default: existence is enough, the observed
// resource is adopted as-is. Used for resource groups, watchers, workspaces,
// subnets, DCEs, DCRs, NSGs and storage accounts.
type genericComparator struct{}

func (genericComparator) BuildSpec(decl *ir.ResourceDeclaration) map[string]any {
	return cloneAttrs(decl.Attributes)
}

func (genericComparator) Compare(_ *ir.ObservedState, _ *ir.ResourceDeclaration) Diff {
	return Diff{InSync: true}
}

// strictComparator treats existence itself as the gap: re-creating a public
// IP or gateway should fail loudly unless the run allows skipping.
type strictComparator struct{}

func (strictComparator) BuildSpec(decl *ir.ResourceDeclaration) map[string]any {
	return cloneAttrs(decl.Attributes)
}

func (strictComparator) Compare(_ *ir.ObservedState, decl *ir.ResourceDeclaration) Diff {
	return Diff{
		Reason: fmt.Sprintf("%s already exists", decl.Address()),
	}
}

// vnetComparator reconciles subnet membership additively: subnets declared
// but absent are added, existing subnets are left alone.
type vnetComparator struct{}

func (vnetComparator) BuildSpec(decl *ir.ResourceDeclaration) map[string]any {
	return cloneAttrs(decl.Attributes)
}

func (vnetComparator) Compare(observed *ir.ObservedState, decl *ir.ResourceDeclaration) Diff {
	existing := map[string]bool{}
	if names, ok := observed.Snapshot[ir.AttrSubnets].([]string); ok {
		for _, n := range names {
			existing[n] = true
		}
	}

	var missing []ir.SubnetSpec
	if declared, ok := decl.Attributes[ir.AttrSubnets].([]ir.SubnetSpec); ok {
		for _, s := range declared {
			if !existing[s.Name] {
				missing = append(missing, s)
			}
		}
	}

	if len(missing) == 0 {
		return Diff{InSync: true}
	}
	return Diff{
		Additions: map[string]any{ir.AttrSubnets: missing},
		Reason:    fmt.Sprintf("%d declared subnet(s) missing", len(missing)),
	}
}

// tableComparator reconciles custom table schemas: missing columns are
// additive, a type change on an existing column is destructive.
type tableComparator struct{}

func (tableComparator) BuildSpec(decl *ir.ResourceDeclaration) map[string]any {
	return cloneAttrs(decl.Attributes)
}

func (tableComparator) Compare(observed *ir.ObservedState, decl *ir.ResourceDeclaration) Diff {
	existing, _ := observed.Snapshot[ir.AttrColumns].(map[string]string)

	var missing []ir.ColumnSpec
	declared, _ := decl.Attributes[ir.AttrColumns].([]ir.ColumnSpec)
	for _, c := range declared {
		typ, ok := existing[c.Name]
		if !ok {
			missing = append(missing, c)
			continue
		}
		if typ != c.Type {
			return Diff{
				Destructive: true,
				Reason:      fmt.Sprintf("column %q is %s but declared as %s", c.Name, typ, c.Type),
			}
		}
	}

	if len(missing) == 0 {
		return Diff{InSync: true}
	}
	return Diff{
		Additions: map[string]any{ir.AttrColumns: missing},
		Reason:    fmt.Sprintf("%d declared column(s) missing", len(missing)),
	}
}

// flowLogComparator re-enables disabled flow logs and raises retention, both
// non-destructive.
type flowLogComparator struct{}

func (flowLogComparator) BuildSpec(decl *ir.ResourceDeclaration) map[string]any {
	return cloneAttrs(decl.Attributes)
}

func (flowLogComparator) Compare(observed *ir.ObservedState, decl *ir.ResourceDeclaration) Diff {
	additions := map[string]any{}

	enabled, _ := observed.Snapshot[ir.AttrEnabled].(bool)
	if !enabled {
		additions[ir.AttrEnabled] = true
	}

	wantRetention, _ := decl.Attributes[ir.AttrRetentionDays].(int)
	haveRetention, _ := observed.Snapshot[ir.AttrRetentionDays].(int)
	if wantRetention > 0 && haveRetention != wantRetention {
		additions[ir.AttrRetentionDays] = wantRetention
	}

	if len(additions) == 0 {
		return Diff{InSync: true}
	}
	return Diff{Additions: additions, Reason: "flow log settings drifted"}
}

func cloneAttrs(attrs map[string]any) map[string]any {
	spec := make(map[string]any, len(attrs))
	for k, v := range attrs {
		spec[k] = v
	}
	return spec
}
