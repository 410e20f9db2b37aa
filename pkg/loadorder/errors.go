package loadorder

import (
	"fmt"
	"strings"

	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
)

// MissingComponentError reports a requested or transitively required
// component that the registry does not know.
type MissingComponentError struct {
	ID       string // The unresolvable component
	Referrer string // The component that depends on ID; empty when ID was requested directly
	Err      error  // The registry's not-found error, if any
}

// Error implements the error interface.
func (e *MissingComponentError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("component %q required by %q not found", e.ID, e.Referrer)
	}
	return fmt.Sprintf("component %q not found", e.ID)
}

// Unwrap returns the registry error so errors.Is(err, component.ErrNotFound) holds.
func (e *MissingComponentError) Unwrap() error { return e.Err }

// Code returns the machine-readable error code.
func (e *MissingComponentError) Code() stackerrors.Code {
	return stackerrors.ErrCodeMissingComponent
}

// CyclicDependencyError reports a dependency cycle. Cycle lists the
// components along the cycle with the first component repeated at the end,
// e.g. [a b a].
type CyclicDependencyError struct {
	Cycle []string
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

// Code returns the machine-readable error code.
func (e *CyclicDependencyError) Code() stackerrors.Code {
	return stackerrors.ErrCodeCyclicDependency
}
