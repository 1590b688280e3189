package architext

import "errors"

var (
	// ErrOwnership is returned when an entry is inserted while it still occupies another slot.
	ErrOwnership = errors.New("entry already occupies a slot")
	// ErrCycle is returned when a container would end up inside itself.
	ErrCycle = errors.New("container cannot contain itself")
	// ErrInvalidEntry is returned for entries that are neither a provider nor a container.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrAmbiguousProvider is returned when a single provider is required but a
	// name matched several.
	ErrAmbiguousProvider = errors.New("ambiguous provider reference")
	// ErrNonUniformGroup is returned when reading an attribute the members of a group disagree on.
	ErrNonUniformGroup = errors.New("non-uniform group state")
	// ErrEmptyGroup is returned when a group operation needs at least one member.
	ErrEmptyGroup = errors.New("no provider with that name")
)
