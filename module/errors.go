package module

import "errors"

// Predefined errors for registry and selection operations.
var (
	// ErrModuleNotFound is returned by Load when no candidate
	// implementation succeeds: none is registered, none matches the
	// requested name, or every attempt failed.
	ErrModuleNotFound = errors.New("no module found")

	// ErrDuplicateName is returned by Register when an implementation
	// with the same name already exists in the registry.
	ErrDuplicateName = errors.New("duplicate module name")

	// ErrEmptyName is returned by Register when the implementation
	// name is empty.
	ErrEmptyName = errors.New("empty module name")
)
