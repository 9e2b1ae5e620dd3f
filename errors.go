package multimatch

import "errors"

// Sentinel errors returned by Build, Save/Load, and the scan/lookup
// entry points. Wrap with fmt.Errorf("...: %w", err) at call sites that
// need more context.
var (
	// ErrBuildCapacityExceeded is returned when the double-array packer
	// cannot grow base/check below the 95%-of-MaxInt32 ceiling.
	ErrBuildCapacityExceeded = errors.New("multimatch: double-array packer exceeded capacity")

	// ErrEmptyKey is returned by Build when the dictionary contains a
	// zero-length key; the packer's synthetic terminal-marker scheme
	// cannot distinguish an empty key inserted at the root from "no
	// keywords at all".
	ErrEmptyKey = errors.New("multimatch: dictionary contains an empty key")

	// ErrUnsupportedValueType is returned by Save when V is not one of
	// the primitive types in the wire format's value-type-code table.
	ErrUnsupportedValueType = errors.New("multimatch: unsupported value type for Save")

	// ErrCorruptStream is returned by Load on a malformed varint,
	// unexpected EOF, or a value shorter than its declared length.
	ErrCorruptStream = errors.New("multimatch: corrupt stream")

	// ErrNotBuilt is returned by scan/lookup operations invoked on an
	// Automaton that was never returned by Build or Load.
	ErrNotBuilt = errors.New("multimatch: automaton not built")

	// ErrValueHandlerRequired is returned by LoadFromWithValues when the
	// stream has saveValues=false and handler is nil: there is no
	// saved values block and nothing to call to reconstruct one.
	ErrValueHandlerRequired = errors.New("multimatch: value handler required to reconstruct values")
)
