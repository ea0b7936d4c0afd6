package core

import (
	"fmt"

	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// BuiltBlock is the result of consuming a BlockBuilder: the assembled
// block, the state delta to commit to the backend to obtain the block's
// state, and the storage proof when proof recording was enabled.
type BuiltBlock struct {
	Block *types.Block
	Delta *state.Delta
	Proof *state.StorageProof
}

// BlockBuilder sequences extrinsics into a new block on top of a parent
// header and applies them against the parent state through the runtime.
//
// Each extrinsic runs in its own nested transaction scope: a validity or
// execution fault rolls that extrinsic back and construction continues, so
// the final state reflects exactly the subset of extrinsics that
// individually succeeded, in their original order. Only structural faults
// (header initialization, inherent creation, finalization) abort the build.
//
// A builder is single-use: Build and the PrepareStorageChanges variants
// consume it.
type BlockBuilder struct {
	rt      Runtime
	statedb *state.StateDB

	parentHash common.Hash
	pending    types.Transactions
	applied    types.Transactions

	estimatedHeaderSize int
	consumed            bool
}

// NewBlockBuilder starts a block on top of parent. When recordProof is set,
// every state access from header initialization onwards is captured so the
// built block carries a storage proof. The supplied extrinsics are queued
// behind any inherents synthesized from inherentData.
func NewBlockBuilder(rt Runtime, parent *types.Header, backend *state.Database,
	recordProof bool, digest types.Digest, txs types.Transactions,
	inherentData *InherentData) (*BlockBuilder, error) {

	header := types.NewHeader(parent.Number+1, parent.Hash(), digest)
	estimatedHeaderSize := header.Size()

	statedb, err := backend.StateAt(parent.StateRoot)
	if err != nil {
		return nil, errors.Wrap(err, "open state at parent")
	}
	// Recording must cover the full lifetime of the execution context, so
	// the recorder is attached before anything touches the state.
	if recordProof {
		statedb.SetRecorder(state.NewProofRecorder())
	}

	if err := rt.InitializeBlock(statedb, header); err != nil {
		return nil, errors.Wrap(err, "initialize block")
	}

	if inherentData != nil {
		inherents, err := createInherents(rt, statedb, *inherentData)
		if err != nil {
			return nil, errors.Wrap(err, "create inherents")
		}
		txs = append(inherents, txs...)
	}

	return &BlockBuilder{
		rt:                  rt,
		statedb:             statedb,
		parentHash:          parent.Hash(),
		pending:             txs,
		estimatedHeaderSize: estimatedHeaderSize,
	}, nil
}

// createInherents asks the runtime for the block's inherent extrinsics
// inside a scope that is always rolled back: inherent creation must never
// durably mutate state.
func createInherents(rt Runtime, statedb *state.StateDB, data InherentData) (types.Transactions, error) {
	snap := statedb.Snapshot()
	inherents, err := rt.InherentExtrinsics(statedb, data)
	statedb.RevertToSnapshot(snap)
	return inherents, err
}

// executeExtrinsics applies the pending queue in order, one nested scope
// per extrinsic. Failed extrinsics are logged and skipped.
func (b *BlockBuilder) executeExtrinsics() {
	for i, tx := range b.pending {
		snap := b.statedb.Snapshot()
		if err := b.rt.ApplyExtrinsic(b.statedb, tx); err != nil {
			b.statedb.RevertToSnapshot(snap)
			log.Debug("Apply extrinsic failed", "index", i, "hash", tx.Hash(), "err", err)
			continue
		}
		b.applied = append(b.applied, tx)
	}
}

func (b *BlockBuilder) consume() error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	b.consumed = true
	return nil
}

// Build applies every pending extrinsic, finalizes the header and returns
// the assembled block with its state delta and optional proof. The builder
// cannot be used afterwards.
func (b *BlockBuilder) Build() (*BuiltBlock, error) {
	if err := b.consume(); err != nil {
		return nil, err
	}
	b.executeExtrinsics()

	header, err := b.rt.FinalizeBlock(b.statedb)
	if err != nil {
		return nil, errors.Wrap(err, "finalize block")
	}

	// The runtime derives the extrinsics root from what it saw applied; it
	// must agree with the builder's applied list. A mismatch means the
	// runtime and builder disagree about block content, which is never
	// recoverable.
	if want := types.DeriveSha(b.applied); header.ExtrinsicsRoot != want {
		panic(fmt.Sprintf("extrinsics root mismatch: runtime %x, builder %x", header.ExtrinsicsRoot, want))
	}

	var proof *state.StorageProof
	if b.statedb.Recording() {
		if proof, err = b.statedb.Proof(); err != nil {
			return nil, errors.Wrap(err, "extract proof")
		}
	}

	return &BuiltBlock{
		Block: types.NewBlock(header, b.applied),
		Delta: b.statedb.Delta(),
		Proof: proof,
	}, nil
}

// PrepareStorageChangesBefore replays extrinsics 0..index (exclusive) with
// the usual per-extrinsic scoping and returns the resulting state delta
// without finalizing the block. The builder is consumed.
func (b *BlockBuilder) PrepareStorageChangesBefore(index int) (*state.Delta, error) {
	if err := b.consume(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(b.pending) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "got %d, max %d", index, len(b.pending))
	}
	for i := 0; i < index; i++ {
		tx := b.pending[i]
		snap := b.statedb.Snapshot()
		if err := b.rt.ApplyExtrinsic(b.statedb, tx); err != nil {
			b.statedb.RevertToSnapshot(snap)
			log.Debug("Apply extrinsic failed", "index", i, "hash", tx.Hash(), "err", err)
		}
	}
	return b.statedb.Delta(), nil
}

// PrepareStorageChangesBeforeFinalize applies every pending extrinsic and
// returns the state delta without finalizing the block. The builder is
// consumed.
func (b *BlockBuilder) PrepareStorageChangesBeforeFinalize() (*state.Delta, error) {
	if err := b.consume(); err != nil {
		return nil, err
	}
	b.executeExtrinsics()
	return b.statedb.Delta(), nil
}

// EstimateBlockSize returns the estimated encoded size of the block in its
// current state: header plus pending extrinsic list, optionally plus the
// storage proof recorded so far. It does not consume the builder.
func (b *BlockBuilder) EstimateBlockSize(includeProof bool) int {
	size := b.estimatedHeaderSize + b.pending.EncodedSize()
	if includeProof {
		size += b.statedb.EstimatedProofSize()
	}
	return size
}
