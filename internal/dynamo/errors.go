package dynamo

import (
	"errors"
	"fmt"
	"strings"
)

// Model and configuration errors.
var (
	// ErrDuplicateName indicates two variables share a name.
	ErrDuplicateName = errors.New("sysdyn: duplicate variable name")

	// ErrEmptyName indicates a variable without a name.
	ErrEmptyName = errors.New("sysdyn: variable name is empty")

	// ErrReservedName indicates a variable named after a reserved word.
	ErrReservedName = errors.New("sysdyn: name is reserved")

	// ErrUnknownKind indicates an unrecognized kind label in a model file.
	ErrUnknownKind = errors.New("sysdyn: unknown variable kind")

	// ErrUnknownVariable indicates a reference to a name outside the model.
	ErrUnknownVariable = errors.New("sysdyn: unknown variable")

	// ErrBadTable indicates malformed lookup breakpoints.
	ErrBadTable = errors.New("sysdyn: invalid lookup table")

	// ErrBadTimeStep indicates a non-positive simulation time step.
	ErrBadTimeStep = errors.New("sysdyn: time step must be positive")

	// ErrBadTimeRange indicates an end time at or before the start time.
	ErrBadTimeRange = errors.New("sysdyn: end time must be after start time")

	// ErrBadReportInterval indicates a reporting interval that is not a
	// positive multiple of the time step.
	ErrBadReportInterval = errors.New("sysdyn: reporting interval must be a positive multiple of the time step")

	// ErrBadParameter indicates a non-positive element parameter such as a
	// delay duration or averaging time.
	ErrBadParameter = errors.New("sysdyn: element parameter out of valid bounds")
)

// UnresolvedReferenceError reports an equation referencing a name that does
// not resolve to any model variable. Raised at build time.
type UnresolvedReferenceError struct {
	Variable string // consumer whose equation holds the reference
	Missing  string // the unresolvable name
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("sysdyn: %q references undefined variable %q", e.Variable, e.Missing)
}

// CyclicDependencyError reports a dependency cycle through instantaneous
// variables only. Feedback must pass through a stateful variable; anything
// else is a model error caught at build time.
type CyclicDependencyError struct {
	Cycle []string // members in reference order, first repeated at the end
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("sysdyn: cyclic dependency without a stateful variable: %s",
		strings.Join(e.Cycle, " -> "))
}

// NumericDomainError reports an undefined numeric result (division by zero,
// non-finite value) produced while evaluating a variable. Raised at run
// time and fatal to that run; snapshots recorded before the failure remain
// valid.
type NumericDomainError struct {
	Variable string
	Time     float64
	Reason   string
}

func (e *NumericDomainError) Error() string {
	return fmt.Sprintf("sysdyn: %q at t=%.6g: %s", e.Variable, e.Time, e.Reason)
}
