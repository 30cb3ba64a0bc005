package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/azlog-io/azlog/internal/ir"
)

// Ledger records the resolved names and connection coordinates of every
// resource a run touched. Reconciliation never trusts it over the cloud,
// observed state is always fetched fresh. What it buys re-runs is name
// continuity: uniqueness suffixes and custom overrides survive, and the
// Cribl export can run without another deployment.
type Ledger struct {
	Version   int      `json:"version"`
	UpdatedAt string   `json:"updatedAt"`
	Entries   []*Entry `json:"entries"`
}

// Entry is one resolved resource.
type Entry struct {
	Type     ir.ResourceType `json:"type"`
	BaseName string          `json:"baseName"`
	Name     string          `json:"name"`
	ID       string          `json:"id,omitempty"`
	Outputs  map[string]any  `json:"outputs,omitempty"`
}

// Find returns the entry for a declaration, or nil.
func (l *Ledger) Find(t ir.ResourceType, baseName string) *Entry {
	for _, e := range l.Entries {
		if e.Type == t && e.BaseName == baseName {
			return e
		}
	}
	return nil
}

// Upsert inserts or replaces the entry keyed by (type, baseName).
func (l *Ledger) Upsert(entry *Entry) {
	for i, e := range l.Entries {
		if e.Type == entry.Type && e.BaseName == entry.BaseName {
			l.Entries[i] = entry
			return
		}
	}
	l.Entries = append(l.Entries, entry)
}

// RecordSummary folds the successful outcomes of a run into the ledger.
func (l *Ledger) RecordSummary(summary *ir.DeploymentSummary) {
	for _, o := range summary.Outcomes {
		if o.Result != ir.ResultSucceeded || o.Name == "" {
			continue
		}
		entry := &Entry{
			Type:     o.Resource.Type,
			BaseName: o.Resource.BaseName,
			Name:     o.Name,
			Outputs:  o.Outputs,
		}
		if id, ok := o.Outputs["id"].(string); ok {
			entry.ID = id
		}
		l.Upsert(entry)
	}
	l.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// Manager handles reading and writing the ledger on the local filesystem.
type Manager struct {
	path string
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Read loads the ledger. A missing file yields an empty ledger; an
// encrypted file is transparently decrypted.
func (m *Manager) Read(ctx context.Context) (*Ledger, error) {
	raw, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return &Ledger{Version: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", m.path, err)
	}
	return decode(raw)
}

// Write saves the ledger. If AZLOG_LEDGER_KEY is set the file is encrypted
// at rest; it carries storage account keys.
func (m *Manager) Write(ctx context.Context, ledger *Ledger) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	content, err := encode(ledger)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, content, 0600); err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", m.path, err)
	}
	return nil
}

func decode(raw []byte) (*Ledger, error) {
	if IsEncrypted(raw) {
		decrypted, err := Decrypt(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt ledger: %w", err)
		}
		raw = decrypted
	}
	var ledger Ledger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	if ledger.Version == 0 {
		ledger.Version = 1
	}
	return &ledger, nil
}

func encode(ledger *Ledger) ([]byte, error) {
	content, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ledger: %w", err)
	}
	content = append(content, '\n')
	return Encrypt(content)
}
