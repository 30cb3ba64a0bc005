// Package cribl renders the resolved resource coordinates from a
// deployment ledger into Cribl Stream configuration payloads. This is pure
// data transcription: no cloud calls, no reconciliation.
package cribl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/state"
)

// Destination is a sentinel-style Cribl destination pointing at a DCR
// ingestion stream.
type Destination struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	URL        string `json:"url"`
	DCRID      string `json:"dcrId"`
	StreamName string `json:"streamName"`
	Table      string `json:"table"`
}

// Collector is an azure_blob Cribl collector reading from the flow-log
// storage account.
type Collector struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Collector CollectorConf `json:"collector"`
}

type CollectorConf struct {
	Type string        `json:"type"`
	Conf AzureBlobConf `json:"conf"`
}

type AzureBlobConf struct {
	ConnectionString string `json:"connectionString"`
	ContainerName    string `json:"containerName"`
}

// Exporter writes destination and collector payloads under an output
// directory, one file per resource.
type Exporter struct {
	outDir string
}

func NewExporter(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export renders every exportable ledger entry and returns the written
// file paths. Entries without the needed connection coordinates (e.g. a
// DCR deployed before its endpoint resolved) are skipped, not failed.
func (e *Exporter) Export(ledger *state.Ledger) ([]string, error) {
	var written []string
	for _, entry := range ledger.Entries {
		switch entry.Type {
		case ir.TypeDCR:
			dest, ok := destinationFrom(entry)
			if !ok {
				continue
			}
			path, err := e.writeJSON("destinations", dest.ID, dest)
			if err != nil {
				return written, err
			}
			written = append(written, path)
		case ir.TypeStorageAccount:
			coll, ok := collectorFrom(entry)
			if !ok {
				continue
			}
			path, err := e.writeJSON("collectors", coll.ID, coll)
			if err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func destinationFrom(entry *state.Entry) (*Destination, bool) {
	stream, _ := entry.Outputs[ir.AttrStreamName].(string)
	immutableID, _ := entry.Outputs["immutableId"].(string)
	endpoint, _ := entry.Outputs["ingestionEndpoint"].(string)
	table, _ := entry.Outputs[ir.AttrTableName].(string)
	if stream == "" || immutableID == "" || endpoint == "" {
		return nil, false
	}
	return &Destination{
		ID:         "azlog-" + entry.Name,
		Type:       "sentinel",
		URL:        fmt.Sprintf("%s/dataCollectionRules/%s/streams/%s?api-version=2023-01-01", endpoint, immutableID, stream),
		DCRID:      immutableID,
		StreamName: stream,
		Table:      table,
	}, true
}

func collectorFrom(entry *state.Entry) (*Collector, bool) {
	conn, _ := entry.Outputs["connectionString"].(string)
	container, _ := entry.Outputs[ir.AttrContainer].(string)
	if conn == "" || container == "" {
		return nil, false
	}
	return &Collector{
		ID:   "azlog-" + entry.Name,
		Type: "collection",
		Collector: CollectorConf{
			Type: "azure_blob",
			Conf: AzureBlobConf{
				ConnectionString: conn,
				ContainerName:    container,
			},
		},
	}, true
}

func (e *Exporter) writeJSON(kind, id string, payload any) (string, error) {
	dir := filepath.Join(e.outDir, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	content, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize %s payload: %w", kind, err)
	}
	content = append(content, '\n')

	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
