package core

import (
	"sync"

	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// Chain is the minimal chain driver block production runs against: it owns
// the state database, tracks headers and the current head, and commits the
// state delta of inserted blocks. Durable header storage and fork choice
// are out of scope; the chain extends its head strictly sequentially.
type Chain struct {
	mu sync.RWMutex

	db *state.Database
	rt Runtime

	headers   map[common.Hash]*types.Header
	canonical map[uint64]common.Hash
	head      *types.Header
}

// NewChain commits the genesis state and returns a chain positioned at the
// genesis header.
func NewChain(db *state.Database, rt Runtime, genesis *Genesis) (*Chain, error) {
	header, err := genesis.Commit(db)
	if err != nil {
		return nil, errors.Wrap(err, "commit genesis")
	}
	c := &Chain{
		db:        db,
		rt:        rt,
		headers:   make(map[common.Hash]*types.Header),
		canonical: make(map[uint64]common.Hash),
		head:      header,
	}
	c.headers[header.Hash()] = header
	c.canonical[0] = header.Hash()
	return c, nil
}

// StateBackend returns the chain's state database.
func (c *Chain) StateBackend() *state.Database { return c.db }

// Runtime returns the execution runtime the chain was created with.
func (c *Chain) Runtime() Runtime { return c.rt }

// CurrentHeader returns the head header.
func (c *Chain) CurrentHeader() *types.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.head.Copy()
}

// GetHeaderByHash returns the header with the given hash, or nil.
func (c *Chain) GetHeaderByHash(hash common.Hash) *types.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h, ok := c.headers[hash]; ok {
		return h.Copy()
	}
	return nil
}

// GetHeaderByNumber returns the canonical header at the given height, or nil.
func (c *Chain) GetHeaderByNumber(number uint64) *types.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if hash, ok := c.canonical[number]; ok {
		return c.headers[hash].Copy()
	}
	return nil
}

// NewBlockAt starts a block builder on top of the given parent.
func (c *Chain) NewBlockAt(parent common.Hash, digest types.Digest, recordProof bool,
	txs types.Transactions, inherentData *InherentData) (*BlockBuilder, error) {

	header := c.GetHeaderByHash(parent)
	if header == nil {
		return nil, errors.Wrapf(ErrUnknownParent, "%x", parent)
	}
	return NewBlockBuilder(c.rt, header, c.db, recordProof, digest, txs, inherentData)
}

// InsertBlock commits a built block's state delta and advances the head.
// The block must extend the current head and its header state root must
// match the delta.
func (c *Chain) InsertBlock(built *BuiltBlock) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := built.Block.Header()
	if header.ParentHash != c.head.Hash() {
		return errors.Wrapf(ErrUnknownParent, "block %d does not extend head %d", header.Number, c.head.Number)
	}
	if built.Delta.Root != header.StateRoot {
		return errors.Errorf("state root mismatch: header %x, delta %x", header.StateRoot, built.Delta.Root)
	}
	if err := c.db.Commit(c.head.StateRoot, built.Delta); err != nil {
		return errors.Wrap(err, "commit state delta")
	}

	c.headers[header.Hash()] = header
	c.canonical[header.Number] = header.Hash()
	c.head = header

	log.Info("Imported new block", "number", header.Number, "hash", header.Hash(),
		"extrinsics", built.Block.Extrinsics().Len(), "root", header.StateRoot)
	return nil
}
