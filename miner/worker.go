// Package miner drives block production: it collects submitted extrinsics,
// folds due runtime upgrades into the block digest and seals blocks through
// the chain's block builder.
package miner

import (
	"sync"

	"github.com/driftchain/driftchain/core"
	"github.com/driftchain/driftchain/core/types"
	"github.com/driftchain/driftchain/registry"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// Worker produces blocks on top of the chain head.
type Worker struct {
	mu sync.Mutex

	chain    *core.Chain
	registry *registry.Registry

	// recordProof enables storage proof recording on every built block.
	recordProof bool

	pending types.Transactions
}

// NewWorker returns a worker building on the given chain. Proof recording
// is forced on in `blockproofs` builds.
func NewWorker(chain *core.Chain, reg *registry.Registry, recordProof bool) *Worker {
	return &Worker{
		chain:       chain,
		registry:    reg,
		recordProof: recordProof || proofBuild,
	}
}

// SubmitTransaction queues an extrinsic for the next block.
func (w *Worker) SubmitTransaction(tx *types.Transaction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, tx)
}

// PendingCount returns the number of queued extrinsics.
func (w *Worker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// CommitBlock builds a block from the queued extrinsics, applies due
// runtime upgrades into the block digest, and inserts the block. The queue
// is drained even when some extrinsics are dropped as invalid.
func (w *Worker) CommitBlock(inherent *core.InherentData) (*core.BuiltBlock, error) {
	w.mu.Lock()
	txs := w.pending
	w.pending = nil
	w.mu.Unlock()

	parent := w.chain.CurrentHeader()
	number := parent.Number + 1

	digest := types.Digest{}
	if w.registry != nil {
		if err := w.registry.ApplyDueUpgrades(number, &digest); err != nil {
			return nil, errors.Wrapf(err, "apply runtime upgrades at %d", number)
		}
	}

	builder, err := w.chain.NewBlockAt(parent.Hash(), digest, w.recordProof, txs, inherent)
	if err != nil {
		return nil, err
	}
	built, err := builder.Build()
	if err != nil {
		return nil, err
	}
	if err := w.chain.InsertBlock(built); err != nil {
		return nil, err
	}

	log.Debug("Sealed block", "number", number, "extrinsics", built.Block.Extrinsics().Len(),
		"digest", len(digest), "proof", built.Proof != nil)
	return built, nil
}
