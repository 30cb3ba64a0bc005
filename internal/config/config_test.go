package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `{
  "subscriptionId": "2d4f39a1-8c3e-4b1a-9c6d-0e5f7a2b9c11",
  "resourceGroup": "rg-cribl",
  "location": "eastus",
  "workspace": "law-cribl",
  "prefix": "jp",
  "skipExisting": true,
  "timeoutMinutes": 45,
  "outputDir": "./cribl",
  "dataCollectionEndpoint": {"enabled": true, "baseName": "cribl"},
  "storage": {"baseName": "cribl", "sku": "Standard_LRS"},
  "network": {
    "vnet": {
      "baseName": "cribl",
      "addressSpace": "10.10.0.0/16",
      "subnets": [
        {"name": "default", "addressPrefix": "10.10.1.0/24"},
        {"name": "GatewaySubnet", "addressPrefix": "10.10.255.0/27"}
      ]
    },
    "flowLogs": {"enabled": true, "retentionDays": 7},
    "gateway": {"baseName": "cribl", "sku": "VpnGw1"}
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "params.json", validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rg-cribl", cfg.ResourceGroup)
	assert.Equal(t, "jp", cfg.Prefix)
	assert.True(t, cfg.SkipExisting)
	require.NotNil(t, cfg.Network.VNet)
	assert.Len(t, cfg.Network.VNet.Subnets, 2)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeFile(t, t.TempDir(), "params.json", `{
	  "subscriptionId": "2d4f39a1-8c3e-4b1a-9c6d-0e5f7a2b9c11",
	  "resourceGroup": "rg-cribl",
	  "location": "eastus",
	  "workspace": "law-cribl",
	  "resorceGroup": "typo"
	}`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown field")
}

func TestLoad_MissingRequiredField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "params.json", `{
	  "subscriptionId": "2d4f39a1-8c3e-4b1a-9c6d-0e5f7a2b9c11",
	  "location": "eastus",
	  "workspace": "law-cribl"
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "ResourceGroup")
}

func TestLoadSchemaDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_syslog.json", `{
	  "name": "Syslog_CL",
	  "retentionDays": 90,
	  "columns": [{"name": "TimeGenerated", "type": "datetime"}, {"name": "Message", "type": "string"}]
	}`)
	writeFile(t, dir, "a_csl.json", `{
	  "name": "CommonSecurityLog",
	  "columns": [{"name": "TimeGenerated", "type": "datetime"}],
	  "directDcr": true
	}`)

	schemas, err := LoadSchemaDir(dir)
	require.NoError(t, err)
	require.Len(t, schemas, 2)

	// Filename order, and the _CL convention is normalized away.
	assert.Equal(t, "CommonSecurityLog", schemas[0].Name)
	assert.Equal(t, "Syslog", schemas[1].Name)
	assert.True(t, schemas[0].DirectDCR)
}

func TestLoadSchemaDir_BadColumnType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{
	  "name": "Bad",
	  "columns": [{"name": "x", "type": "varchar"}]
	}`)

	_, err := LoadSchemaDir(dir)
	assert.ErrorContains(t, err, "oneof")
}

func TestBuild(t *testing.T) {
	path := writeFile(t, t.TempDir(), "params.json", validConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	schemas := []*TableSchema{
		{Name: "Syslog", Columns: []ColumnConfig{{Name: "TimeGenerated", Type: "datetime"}}},
		{Name: "CommonSecurityLog", Columns: []ColumnConfig{{Name: "TimeGenerated", Type: "datetime"}}, DirectDCR: true},
	}

	run, decls, err := Build(cfg, schemas)
	require.NoError(t, err)
	assert.Equal(t, "rg-cribl", run.ResourceGroup)
	assert.True(t, run.SkipExisting)

	byAddress := map[string]*ir.ResourceDeclaration{}
	for _, d := range decls {
		byAddress[d.Address()] = d
	}

	vnet := byAddress["vnet.cribl"]
	require.NotNil(t, vnet)
	assert.Equal(t, "10.10.0.0/16", vnet.Attributes[ir.AttrAddressSpace])
	assert.Len(t, vnet.Attributes[ir.AttrSubnets], 2)

	sa := byAddress["storageAccount.cribl"]
	require.NotNil(t, sa)
	assert.True(t, sa.GloballyUnique)
	assert.True(t, sa.Naming.AlnumOnly)
	assert.Equal(t, 24, sa.Naming.MaxLength)

	table := byAddress["table.Syslog"]
	require.NotNil(t, table)
	assert.Equal(t, "_CL", table.Naming.CustomSuffix)
	assert.Equal(t, 30, table.Attributes[ir.AttrRetentionDays])

	dcr := byAddress["dcr.Syslog"]
	require.NotNil(t, dcr)
	assert.Equal(t, "dcr-jp-", dcr.Naming.Prefix)
	assert.Equal(t, 64, dcr.Naming.MaxLength)
	assert.Equal(t, "Syslog_CL", dcr.Attributes[ir.AttrTableName])
	assert.Equal(t, "Custom-Syslog_CL", dcr.Attributes[ir.AttrStreamName])
	assert.Equal(t, "dce-jp-cribl-eastus", dcr.Attributes[ir.AttrDCEID])

	direct := byAddress["dcr.CommonSecurityLog"]
	require.NotNil(t, direct)
	assert.Equal(t, 30, direct.Naming.MaxLength)
	assert.NotContains(t, direct.Attributes, ir.AttrDCEID)

	fl := byAddress["flowLog.cribl"]
	require.NotNil(t, fl)
	assert.Equal(t, "vnet-jp-cribl-eastus", fl.Attributes[ir.AttrVNetName])
	assert.Equal(t, "sacribl", fl.Attributes[ir.AttrStorageID])
	assert.Equal(t, 7, fl.Attributes[ir.AttrRetentionDays])

	gw := byAddress["vpnGateway.cribl"]
	require.NotNil(t, gw)
	assert.Equal(t, "VpnGw1", gw.Attributes[ir.AttrSKU])
	assert.Equal(t, "pip-jp-cribl-eastus", gw.Attributes[ir.AttrPublicIPID])
	require.NotNil(t, byAddress["publicIP.cribl"])

	watcher := byAddress["networkWatcher.NetworkWatcher"]
	require.NotNil(t, watcher)
	assert.Equal(t, "_eastus", watcher.Naming.CustomSuffix)
}

func TestBuild_FlowLogsRequireStorage(t *testing.T) {
	cfg := &Config{
		SubscriptionID: "2d4f39a1-8c3e-4b1a-9c6d-0e5f7a2b9c11",
		ResourceGroup:  "rg",
		Location:       "eastus",
		Workspace:      "law",
		Network: &NetworkConfig{
			VNet:     &VNetConfig{BaseName: "cribl", AddressSpace: "10.0.0.0/16", Subnets: []SubnetConfig{{Name: "default", AddressPrefix: "10.0.1.0/24"}}},
			FlowLogs: &FlowLogConfig{Enabled: true},
		},
	}

	_, _, err := Build(cfg, nil)
	assert.ErrorContains(t, err, "flowLogs")
}
