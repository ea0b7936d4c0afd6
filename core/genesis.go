package core

import (
	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/common"
)

// Genesis describes the initial keyed state of the chain.
type Genesis struct {
	// State is the initial key/value content, applied verbatim.
	State []state.KeyValue
}

// Commit writes the genesis state to the backend and returns the genesis
// header.
func (g *Genesis) Commit(db *state.Database) (*types.Header, error) {
	s, err := db.StateAt(state.EmptyRoot)
	if err != nil {
		return nil, err
	}
	for _, kv := range g.State {
		s.Set(kv.Key, kv.Value)
	}
	delta := s.Delta()
	if err := db.Commit(state.EmptyRoot, delta); err != nil {
		return nil, err
	}
	return &types.Header{
		ParentHash:     common.Hash{},
		Number:         0,
		StateRoot:      delta.Root,
		ExtrinsicsRoot: types.DeriveSha(nil),
	}, nil
}
