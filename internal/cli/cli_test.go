package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/azlog-io/azlog/internal/config"
	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/state"
	"github.com/azlog-io/azlog/providers/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameOverrides(t *testing.T) {
	ledger := &state.Ledger{Version: 1, Entries: []*state.Entry{
		{Type: ir.TypeStorageAccount, BaseName: "cribl", Name: "sacribl02"},
		{Type: ir.TypeDCR, BaseName: "Syslog", Name: "dcr-jp-Syslog-eastus"},
		{Type: ir.TypeDCR, BaseName: "Custom", Name: "dcr-jp-Custom-prod"},
	}}
	run := &ir.RunContext{Location: "westus"}

	decls := []*ir.ResourceDeclaration{
		{Type: ir.TypeStorageAccount, BaseName: "cribl", Naming: ir.NamingPolicy{MaxLength: 24, AlnumOnly: true}},
		{Type: ir.TypeDCR, BaseName: "Syslog", Naming: ir.NamingPolicy{MaxLength: 64, HyphenAllowed: true}},
		{Type: ir.TypeDCR, BaseName: "Custom", Naming: ir.NamingPolicy{MaxLength: 64, HyphenAllowed: true}},
		{Type: ir.TypeTable, BaseName: "Unrecorded", Naming: ir.NamingPolicy{MaxLength: 45}},
	}

	overrides := nameOverrides(ledger, run, decls)

	// Uniqueness suffix survives untouched.
	assert.Equal(t, "sacribl02", overrides["storageAccount.cribl"])
	// Region suffix follows the run to the new location.
	assert.Equal(t, "dcr-jp-Syslog-westus", overrides["dcr.Syslog"])
	// A custom suffix is user intent and is never rewritten.
	assert.Equal(t, "dcr-jp-Custom-prod", overrides["dcr.Custom"])
	assert.NotContains(t, overrides, "table.Unrecorded")
}

func TestDeploy_DryRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	params := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(params, []byte(`{
	  "subscriptionId": "2d4f39a1-8c3e-4b1a-9c6d-0e5f7a2b9c11",
	  "resourceGroup": "rg-cribl",
	  "location": "eastus",
	  "workspace": "law-cribl",
	  "skipExisting": true,
	  "storage": {"baseName": "cribl"}
	}`), 0644))

	schemaDir := filepath.Join(dir, "schemas")
	require.NoError(t, os.MkdirAll(schemaDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, "syslog.json"), []byte(`{
	  "name": "Syslog",
	  "columns": [{"name": "TimeGenerated", "type": "datetime"}]
	}`), 0644))

	rootCmd.SetArgs([]string{"deploy", params, "--dry-run", "--schema-dir", schemaDir})
	require.NoError(t, rootCmd.Execute())

	// The run recorded its resolved names next to the params file.
	ledger, err := state.NewManager(filepath.Join(dir, ".azlog", "ledger.json")).Read(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ledger.Find(ir.TypeStorageAccount, "cribl"))
	assert.NotNil(t, ledger.Find(ir.TypeTable, "Syslog"))
	assert.NotNil(t, ledger.Find(ir.TypeDCR, "Syslog"))
}

func TestPlan_IsReadOnly(t *testing.T) {
	p := null.New()
	p.RemoveFoundation()
	run := &ir.RunContext{ResourceGroup: "rg-cribl", Location: "eastus"}
	decls := []*ir.ResourceDeclaration{
		{Type: ir.TypeTable, BaseName: "Syslog", Location: "eastus", Naming: ir.NamingPolicy{MaxLength: 45, HyphenAllowed: true}},
		{Type: ir.TypeWorkspace, BaseName: "law-cribl", Location: "eastus", Naming: ir.NamingPolicy{MaxLength: 63, HyphenAllowed: true}},
	}

	counts, err := planAgainst(context.Background(), p, run, decls, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.creates)

	// Planning against a fresh subscription provisions nothing: no resource
	// group create, no applies, and no reads into an absent group.
	assert.Zero(t, p.EnsureCalls)
	assert.Empty(t, p.ApplyCalls)
	assert.Empty(t, p.GetCalls)

	exists, err := p.CheckFoundation(context.Background(), run)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLedgerBackend_DefaultsToLocalFile(t *testing.T) {
	dir := t.TempDir()
	backend, err := ledgerBackend(&config.Config{}, filepath.Join(dir, "params.json"))
	require.NoError(t, err)

	require.NoError(t, backend.Lock())
	defer backend.Unlock()

	ledger, err := backend.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ledger.Entries)
}
