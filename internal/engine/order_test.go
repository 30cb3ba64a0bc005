package engine

import (
	"testing"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/stretchr/testify/assert"
)

func TestSortDeclarations(t *testing.T) {
	decls := []*ir.ResourceDeclaration{
		{Type: ir.TypeFlowLog, BaseName: "fl"},
		{Type: ir.TypeDCR, BaseName: "dcr-b"},
		{Type: ir.TypeVPNGateway, BaseName: "gw"},
		{Type: ir.TypeVNet, BaseName: "vnet"},
		{Type: ir.TypeDCR, BaseName: "dcr-a"},
		{Type: ir.TypeStorageAccount, BaseName: "sa"},
		{Type: ir.TypeResourceGroup, BaseName: "rg"},
		{Type: ir.TypeWorkspace, BaseName: "law"},
	}

	sorted := SortDeclarations(decls)

	var order []ir.ResourceType
	for _, d := range sorted {
		order = append(order, d.Type)
	}
	assert.Equal(t, []ir.ResourceType{
		ir.TypeResourceGroup,
		ir.TypeVNet,
		ir.TypeStorageAccount,
		ir.TypeWorkspace,
		ir.TypeDCR,
		ir.TypeDCR,
		ir.TypeFlowLog,
		ir.TypeVPNGateway,
	}, order)

	// Stable within a phase: configured order of the two DCRs survives.
	assert.Equal(t, "dcr-b", sorted[4].BaseName)
	assert.Equal(t, "dcr-a", sorted[5].BaseName)

	// Input untouched.
	assert.Equal(t, ir.TypeFlowLog, decls[0].Type)
}
