package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// staleAfter is how old a lock file may be before another process may
// take it over.
const staleAfter = 10 * time.Minute

// Lock acquires a file lock on the ledger to prevent concurrent runs
// against the same project directory.
func (m *Manager) Lock() error {
	lockPath := m.lockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if info, err := os.Stat(lockPath); err == nil {
		if time.Since(info.ModTime()) > staleAfter {
			os.Remove(lockPath)
		} else {
			return fmt.Errorf("ledger is locked by another process (lock file: %s); "+
				"remove the lock file manually if that process is gone", lockPath)
		}
	}

	content := fmt.Sprintf("pid=%d\ntime=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(lockPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	return nil
}

// Unlock releases the ledger lock.
func (m *Manager) Unlock() error {
	if err := os.Remove(m.lockPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func (m *Manager) lockPath() string {
	return m.path + ".lock"
}
