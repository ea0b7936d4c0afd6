package core

import (
	"fmt"

	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/core/types"
	"github.com/pkg/errors"
)

// InherentData carries the block-level facts the runtime turns into
// inherent extrinsics.
type InherentData struct {
	Timestamp uint64
}

// Runtime is the execution environment block construction drives. It is
// stateless: every call operates on the supplied state view, so the same
// runtime can serve many concurrent-in-time views. Implementations must be
// deterministic.
//
// The interface hides the concrete engine behind a common contract the
// block builder can use without branching on the execution backend, the
// same way the consensus layer abstracts over transaction executors.
type Runtime interface {
	// Version returns the runtime's declared version metadata.
	Version() types.VersionInfo

	// InitializeBlock stages the new header before any extrinsic runs.
	InitializeBlock(s *state.StateDB, header *types.Header) error

	// InherentExtrinsics synthesizes the inherent extrinsics for the given
	// data. It must not rely on its own writes persisting: the caller
	// always rolls them back.
	InherentExtrinsics(s *state.StateDB, data InherentData) (types.Transactions, error)

	// ApplyExtrinsic executes one extrinsic. Validity failures are reported
	// as InvalidTransactionError; any error leaves the caller responsible
	// for reverting the enclosing scope.
	ApplyExtrinsic(s *state.StateDB, tx *types.Transaction) error

	// FinalizeBlock completes the staged header: it fills in the
	// extrinsics root and state root and clears any staging keys.
	FinalizeBlock(s *state.StateDB) (*types.Header, error)
}

// InvalidTransactionError marks a per-transaction validity failure (bad
// nonce, insufficient balance, undecodable payload). Block construction
// recovers from it locally: the extrinsic is rolled back and dropped.
type InvalidTransactionError struct {
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid transaction: %s", e.Reason)
}

// IsValidityError reports whether err is a per-transaction validity
// failure rather than an execution fault.
func IsValidityError(err error) bool {
	var invalid *InvalidTransactionError
	return errors.As(err, &invalid)
}
