package model

import (
	"errors"
	"fmt"
)

// Mapping errors come in two tiers.
// ErrMappingFailure marks an expected, silent skip of a triple, qualifier or value.
// Everything else is a hard error the operator should see.
var (
	// ErrMappingFailure indicates the input has no valid target representation.
	ErrMappingFailure = errors.New("mapping failure")

	// ErrMapping indicates the mapping tables are incomplete for the input.
	ErrMapping = errors.New("mapping error")

	// ErrUnsupportedType indicates a value type the normalizer cannot produce.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnknownValueType indicates a property whose value type was never resolved.
	ErrUnknownValueType = errors.New("unknown value type")

	// ErrParse indicates a malformed literal or line.
	ErrParse = errors.New("parse error")

	// Writer errors.

	// ErrContradiction indicates an existing, incompatible statement for the property.
	ErrContradiction = errors.New("contradictory statement")

	// ErrSourcedSubStatement indicates a refinement would overwrite a sourced statement.
	ErrSourcedSubStatement = errors.New("substatement with meaningful reference")

	// ErrEntityNotFound indicates the subject entity does not exist.
	ErrEntityNotFound = errors.New("entity does not exist")
)

// MappingFailure builds an ErrMappingFailure with context
func MappingFailure(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMappingFailure, fmt.Sprintf(format, args...))
}

// IsMappingFailure reports whether err is an expected skip
func IsMappingFailure(err error) bool {
	return errors.Is(err, ErrMappingFailure)
}
