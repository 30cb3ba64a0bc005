package state

import (
	"context"
	"fmt"
)

// Backend defines the interface for ledger storage backends.
type Backend interface {
	// Read loads the ledger from the backend.
	Read(ctx context.Context) (*Ledger, error)

	// Write saves the ledger to the backend.
	Write(ctx context.Context, ledger *Ledger) error

	// Lock acquires an exclusive lock on the ledger.
	Lock() error

	// Unlock releases the lock on the ledger.
	Unlock() error
}

// BackendConfig holds configuration for a ledger backend.
type BackendConfig struct {
	Type   string            `json:"type"` // "local", "azblob"
	Config map[string]string `json:"config"`
}

// NewBackend creates a ledger backend from configuration. A nil config or
// "local" type yields the filesystem manager at the given default path.
func NewBackend(cfg *BackendConfig, defaultPath string) (Backend, error) {
	if cfg == nil {
		return NewManager(defaultPath), nil
	}

	switch cfg.Type {
	case "local", "":
		path := cfg.Config["path"]
		if path == "" {
			path = defaultPath
		}
		return NewManager(path), nil
	case "azblob":
		return newBlobBackend(cfg.Config)
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}
