package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ReadMissingFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "ledger.json"))

	ledger, err := m.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Version)
	assert.Empty(t, ledger.Entries)
}

func TestManager_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "ledger.json")
	m := NewManager(path)

	ledger := &Ledger{Version: 1}
	ledger.Upsert(&Entry{
		Type:     ir.TypeStorageAccount,
		BaseName: "cribl",
		Name:     "sacribl02",
		ID:       "/subscriptions/x/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/sacribl02",
		Outputs:  map[string]any{"primaryKey": "redacted"},
	})

	require.NoError(t, m.Write(context.Background(), ledger))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := m.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "sacribl02", got.Entries[0].Name)
	assert.Equal(t, "cribl", got.Entries[0].BaseName)
}

func TestManager_EncryptedRoundTrip(t *testing.T) {
	t.Setenv(EncryptionKeyEnvVar, "ledger-key-for-tests")
	path := filepath.Join(t.TempDir(), "ledger.json")
	m := NewManager(path)

	ledger := &Ledger{Version: 1, Entries: []*Entry{{Type: ir.TypeDCR, BaseName: "Syslog", Name: "dcr-Syslog-eastus"}}}
	require.NoError(t, m.Write(context.Background(), ledger))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, IsEncrypted(raw))

	got, err := m.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "dcr-Syslog-eastus", got.Entries[0].Name)
}

func TestLedger_Upsert(t *testing.T) {
	ledger := &Ledger{Version: 1}
	ledger.Upsert(&Entry{Type: ir.TypeTable, BaseName: "Syslog", Name: "Syslog_CL"})
	ledger.Upsert(&Entry{Type: ir.TypeDCR, BaseName: "Syslog", Name: "dcr-Syslog-eastus"})
	ledger.Upsert(&Entry{Type: ir.TypeTable, BaseName: "Syslog", Name: "Syslog_CL", ID: "table-id"})

	require.Len(t, ledger.Entries, 2)
	assert.Equal(t, "table-id", ledger.Find(ir.TypeTable, "Syslog").ID)
	assert.Nil(t, ledger.Find(ir.TypeVNet, "Syslog"))
}

func TestLedger_RecordSummary(t *testing.T) {
	summary := &ir.DeploymentSummary{}
	summary.Record(&ir.DeploymentOutcome{
		Resource: &ir.ResourceDeclaration{Type: ir.TypeStorageAccount, BaseName: "cribl"},
		Name:     "sacribl01",
		Result:   ir.ResultSucceeded,
		Outputs:  map[string]any{"id": "storage-id"},
	})
	summary.Record(&ir.DeploymentOutcome{
		Resource: &ir.ResourceDeclaration{Type: ir.TypeTable, BaseName: "Broken"},
		Result:   ir.ResultFailed,
	})
	summary.Record(&ir.DeploymentOutcome{
		Resource: &ir.ResourceDeclaration{Type: ir.TypeTable, BaseName: "Later"},
		Result:   ir.ResultSkipped,
	})

	ledger := &Ledger{Version: 1}
	ledger.RecordSummary(summary)

	require.Len(t, ledger.Entries, 1)
	assert.Equal(t, "sacribl01", ledger.Entries[0].Name)
	assert.Equal(t, "storage-id", ledger.Entries[0].ID)
	assert.NotEmpty(t, ledger.UpdatedAt)
}

func TestManager_LockUnlock(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "ledger.json"))

	require.NoError(t, m.Lock())
	assert.Error(t, m.Lock())
	require.NoError(t, m.Unlock())
	require.NoError(t, m.Lock())
	require.NoError(t, m.Unlock())
}
