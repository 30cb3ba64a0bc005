package cribl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	ledger := &state.Ledger{Version: 1, Entries: []*state.Entry{
		{
			Type: ir.TypeDCR, BaseName: "Syslog", Name: "dcr-jp-Syslog-eastus",
			Outputs: map[string]any{
				ir.AttrStreamName: "Custom-Syslog_CL",
				ir.AttrTableName:  "Syslog_CL",
				"immutableId":     "dcr-0123456789abcdef",
				"ingestionEndpoint": "https://dce-jp-cribl-eastus.eastus-1.ingest.monitor.azure.com",
			},
		},
		{
			Type: ir.TypeStorageAccount, BaseName: "cribl", Name: "sacribl02",
			Outputs: map[string]any{
				"connectionString": "DefaultEndpointsProtocol=https;AccountName=sacribl02;AccountKey=k",
				ir.AttrContainer:   "flowlogs",
			},
		},
		// No connection coordinates recorded: skipped, not an error.
		{Type: ir.TypeDCR, BaseName: "Bare", Name: "dcr-jp-Bare-eastus"},
		// Not exportable at all.
		{Type: ir.TypeVNet, BaseName: "cribl", Name: "vnet-jp-cribl-eastus"},
	}}

	outDir := t.TempDir()
	written, err := NewExporter(outDir).Export(ledger)
	require.NoError(t, err)
	require.Len(t, written, 2)

	raw, err := os.ReadFile(filepath.Join(outDir, "destinations", "azlog-dcr-jp-Syslog-eastus.json"))
	require.NoError(t, err)
	var dest Destination
	require.NoError(t, json.Unmarshal(raw, &dest))
	assert.Equal(t, "sentinel", dest.Type)
	assert.Equal(t, "Custom-Syslog_CL", dest.StreamName)
	assert.Contains(t, dest.URL, "/dataCollectionRules/dcr-0123456789abcdef/streams/Custom-Syslog_CL")

	raw, err = os.ReadFile(filepath.Join(outDir, "collectors", "azlog-sacribl02.json"))
	require.NoError(t, err)
	var coll Collector
	require.NoError(t, json.Unmarshal(raw, &coll))
	assert.Equal(t, "azure_blob", coll.Collector.Type)
	assert.Equal(t, "flowlogs", coll.Collector.Conf.ContainerName)
}
