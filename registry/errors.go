package registry

import "github.com/pkg/errors"

// Validation and lookup failures surfaced by the registry. All are returned
// wrapped, so callers match with errors.Is.
var (
	// ErrVersionExtraction is returned when the version oracle cannot read
	// version metadata out of a runtime code blob.
	ErrVersionExtraction = errors.New("failed to extract runtime version")

	// ErrIncompatibleSpecName rejects an upgrade whose spec name differs
	// from the registered runtime's.
	ErrIncompatibleSpecName = errors.New("spec name mismatch")

	// ErrSpecVersionMustIncrease rejects an upgrade that does not raise the
	// spec version.
	ErrSpecVersionMustIncrease = errors.New("spec version needs to increase")

	// ErrIDSpaceExhausted is returned when no further runtime IDs can be
	// allocated.
	ErrIDSpaceExhausted = errors.New("runtime id space exhausted")

	// ErrRuntimeNotFound is returned for operations on an unknown runtime ID.
	ErrRuntimeNotFound = errors.New("runtime object not found")

	// ErrUpgradeAlreadyScheduled is returned when an upgrade for the runtime
	// is already pending at the same height.
	ErrUpgradeAlreadyScheduled = errors.New("runtime upgrade already scheduled")

	// ErrActivationOverflow is returned when the activation height does not
	// fit a uint64.
	ErrActivationOverflow = errors.New("activation height overflows")

	// ErrGenesisDecode is returned for malformed raw genesis bytes.
	ErrGenesisDecode = errors.New("failed to decode raw genesis")

	// ErrCodeNotFound is returned when a raw genesis lacks the code entry.
	ErrCodeNotFound = errors.New("runtime code not found in raw genesis")

	// ErrBadOrigin rejects a privileged call from an unprivileged origin.
	ErrBadOrigin = errors.New("bad origin")

	// ErrRuntimeCallsDisabled is returned while runtime management calls are
	// switched off.
	ErrRuntimeCallsDisabled = errors.New("runtime calls are disabled")
)
