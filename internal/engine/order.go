package engine

import (
	"sort"

	"github.com/azlog-io/azlog/internal/ir"
)

// phases fixes the deployment order: networking before the resources
// attached to it, storage and workspace before the observability pieces
// that reference them. There is no dependency inference; this table is the
// whole ordering contract.
var phases = map[ir.ResourceType]int{
	ir.TypeResourceGroup:  0,
	ir.TypeNetworkWatcher: 1,
	ir.TypeVNet:           2,
	ir.TypeSubnet:         3,
	ir.TypeNSG:            4,
	ir.TypePublicIP:       5,
	ir.TypeStorageAccount: 6,
	ir.TypeWorkspace:      7,
	ir.TypeTable:          8,
	ir.TypeDCE:            9,
	ir.TypeDCR:            10,
	ir.TypeFlowLog:        11,
	ir.TypeVPNGateway:     12,
	ir.TypeBastion:        13,
}

// SortDeclarations returns a copy of decls in deployment order. The sort is
// stable: declarations of the same type keep their configured order.
func SortDeclarations(decls []*ir.ResourceDeclaration) []*ir.ResourceDeclaration {
	sorted := make([]*ir.ResourceDeclaration, len(decls))
	copy(sorted, decls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return phaseOf(sorted[i]) < phaseOf(sorted[j])
	})
	return sorted
}

func phaseOf(decl *ir.ResourceDeclaration) int {
	if p, ok := phases[decl.Type]; ok {
		return p
	}
	// Unknown types run last, after everything they could depend on.
	return len(phases)
}
