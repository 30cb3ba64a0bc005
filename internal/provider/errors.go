package provider

import (
	"errors"
	"fmt"
)

// ConflictError reports a global-uniqueness violation: the requested name is
// taken somewhere outside our scope. It is the only error the uniqueness
// retrier recovers from.
type ConflictError struct {
	Name   string
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("name %q is already taken", e.Name)
	}
	return fmt.Sprintf("name %q is already taken: %s", e.Name, e.Reason)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ExhaustedError reports that the uniqueness retrier ran out of attempts.
// LastName is the final name tried, kept for diagnostics.
type ExhaustedError struct {
	Attempts int
	LastName string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no unique name found after %d attempts (last tried %q)", e.Attempts, e.LastName)
}

// AlreadyExistsError reports a strict-mode conflict: the resource exists and
// the run is not permitted to adopt or update it.
type AlreadyExistsError struct {
	Address string
	Reason  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Address, e.Reason)
}

// TerminalSetupError wraps a failure that invalidates the whole run, such as
// the resource group being unreadable. The orchestrator stops and marks all
// remaining declarations skipped.
type TerminalSetupError struct {
	Err error
}

func (e *TerminalSetupError) Error() string {
	return fmt.Sprintf("terminal setup failure: %v", e.Err)
}

func (e *TerminalSetupError) Unwrap() error {
	return e.Err
}

// IsTerminal reports whether err is (or wraps) a TerminalSetupError.
func IsTerminal(err error) bool {
	var te *TerminalSetupError
	return errors.As(err, &te)
}
