package core_test

import (
	"testing"

	"github.com/driftchain/driftchain/core"
	"github.com/driftchain/driftchain/core/ledger"
	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	addrA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	addrB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func newTestChain(t *testing.T) *core.Chain {
	db := state.NewDatabase(memorydb.New())
	rt := ledger.NewRuntime(ledger.DefaultVersion())
	genesis := &core.Genesis{State: ledger.GenesisState(
		map[common.Address]*uint256.Int{addrA: uint256.NewInt(1000)}, true)}
	chain, err := core.NewChain(db, rt, genesis)
	require.NoError(t, err)
	return chain
}

func transfer(t *testing.T, nonce uint64, amount uint64) *types.Transaction {
	call := &ledger.Call{
		Kind:   ledger.CallTransfer,
		Nonce:  nonce,
		From:   addrA,
		To:     addrB,
		Amount: uint256.NewInt(amount),
	}
	tx, err := call.Transaction()
	require.NoError(t, err)
	return tx
}

func buildBlock(t *testing.T, chain *core.Chain, recordProof bool, txs ...*types.Transaction) *core.BuiltBlock {
	builder, err := chain.NewBlockAt(chain.CurrentHeader().Hash(), nil, recordProof,
		txs, &core.InherentData{Timestamp: 1700000000})
	require.NoError(t, err)
	built, err := builder.Build()
	require.NoError(t, err)
	return built
}

func TestBuildDropsInvalidExtrinsics(t *testing.T) {
	chain := newTestChain(t)

	valid1 := transfer(t, 0, 100)
	invalid := transfer(t, 7, 100) // wrong nonce
	valid2 := transfer(t, 1, 50)

	built := buildBlock(t, chain, false, valid1, invalid, valid2)
	extrinsics := built.Block.Extrinsics()

	// Inherent first, then the surviving user extrinsics in order.
	require.Equal(t, 3, extrinsics.Len())
	require.Equal(t, valid1.Hash(), extrinsics[1].Hash())
	require.Equal(t, valid2.Hash(), extrinsics[2].Hash())

	header := built.Block.Header()
	require.Equal(t, types.DeriveSha(extrinsics), header.ExtrinsicsRoot)
	require.Equal(t, built.Delta.Root, header.StateRoot)

	require.NoError(t, chain.InsertBlock(built))

	s, err := chain.StateBackend().StateAt(header.StateRoot)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(850).Bytes(), s.Get(ledger.BalanceKey(addrA)))
	require.Equal(t, uint256.NewInt(150).Bytes(), s.Get(ledger.BalanceKey(addrB)))
}

func TestBuildStateHoldsOnlyAppliedEffects(t *testing.T) {
	chain := newTestChain(t)

	overdraft := transfer(t, 0, 5000)
	built := buildBlock(t, chain, false, overdraft)

	require.Equal(t, 1, built.Block.Extrinsics().Len()) // inherent only
	require.NoError(t, chain.InsertBlock(built))

	s, err := chain.StateBackend().StateAt(built.Block.Header().StateRoot)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1000).Bytes(), s.Get(ledger.BalanceKey(addrA)))
	require.Nil(t, s.Get(ledger.BalanceKey(addrB)))
}

func TestBuildDeterministic(t *testing.T) {
	chainA := newTestChain(t)
	chainB := newTestChain(t)

	txs := []*types.Transaction{transfer(t, 0, 100), transfer(t, 9, 1), transfer(t, 1, 2)}
	builtA := buildBlock(t, chainA, false, txs...)
	builtB := buildBlock(t, chainB, false, txs...)

	require.Equal(t, builtA.Block.Hash(), builtB.Block.Hash())
	require.Equal(t, builtA.Delta.Root, builtB.Delta.Root)
	require.Equal(t, builtA.Delta.Entries, builtB.Delta.Entries)
}

func TestBuildProofToggle(t *testing.T) {
	chain := newTestChain(t)
	parentRoot := chain.CurrentHeader().StateRoot

	withProof := buildBlock(t, chain, true, transfer(t, 0, 100))
	require.NotNil(t, withProof.Proof)

	// The proof opens the parent state for every touched key, including the
	// sender balance before the transfer.
	value, err := state.VerifyStorageProof(parentRoot, ledger.BalanceKey(addrA), withProof.Proof)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1000).Bytes(), value)

	withoutProof := buildBlock(t, chain, false, transfer(t, 0, 100))
	require.Nil(t, withoutProof.Proof)

	// Proof recording never changes what the block commits to.
	require.Equal(t, withProof.Block.Hash(), withoutProof.Block.Hash())
}

func TestBuilderSingleUse(t *testing.T) {
	chain := newTestChain(t)
	builder, err := chain.NewBlockAt(chain.CurrentHeader().Hash(), nil, false,
		nil, &core.InherentData{Timestamp: 1})
	require.NoError(t, err)

	_, err = builder.Build()
	require.NoError(t, err)
	_, err = builder.Build()
	require.True(t, errors.Is(err, core.ErrBuilderConsumed))
	_, err = builder.PrepareStorageChangesBeforeFinalize()
	require.True(t, errors.Is(err, core.ErrBuilderConsumed))
}

func TestPrepareStorageChangesBefore(t *testing.T) {
	chain := newTestChain(t)
	txs := []*types.Transaction{transfer(t, 0, 100), transfer(t, 1, 50)}

	// Pending list is inherent + 2 user extrinsics; index 1 replays only the
	// inherent, so no balance moves yet.
	builder, err := chain.NewBlockAt(chain.CurrentHeader().Hash(), nil, false,
		txs, &core.InherentData{Timestamp: 1})
	require.NoError(t, err)
	delta, err := builder.PrepareStorageChangesBefore(1)
	require.NoError(t, err)
	for _, kv := range delta.Entries {
		require.NotEqual(t, ledger.BalanceKey(addrA), kv.Key)
	}

	builder, err = chain.NewBlockAt(chain.CurrentHeader().Hash(), nil, false,
		txs, &core.InherentData{Timestamp: 1})
	require.NoError(t, err)
	_, err = builder.PrepareStorageChangesBefore(3)
	require.True(t, errors.Is(err, core.ErrIndexOutOfRange))

	builder, err = chain.NewBlockAt(chain.CurrentHeader().Hash(), nil, false,
		txs, &core.InherentData{Timestamp: 1})
	require.NoError(t, err)
	_, err = builder.PrepareStorageChangesBefore(-1)
	require.True(t, errors.Is(err, core.ErrIndexOutOfRange))
}

func TestEstimateBlockSizeGrowsWithExtrinsics(t *testing.T) {
	chain := newTestChain(t)

	small, err := chain.NewBlockAt(chain.CurrentHeader().Hash(), nil, false,
		nil, &core.InherentData{Timestamp: 1})
	require.NoError(t, err)
	large, err := chain.NewBlockAt(chain.CurrentHeader().Hash(), nil, false,
		[]*types.Transaction{transfer(t, 0, 100), transfer(t, 1, 50)},
		&core.InherentData{Timestamp: 1})
	require.NoError(t, err)

	require.Greater(t, large.EstimateBlockSize(false), small.EstimateBlockSize(false))
}

func TestEstimateBlockSizeIncludesProof(t *testing.T) {
	chain := newTestChain(t)
	builder, err := chain.NewBlockAt(chain.CurrentHeader().Hash(), nil, true,
		[]*types.Transaction{transfer(t, 0, 100)}, &core.InherentData{Timestamp: 1})
	require.NoError(t, err)
	require.Greater(t, builder.EstimateBlockSize(true), builder.EstimateBlockSize(false))
}
