package miner

import (
	"testing"

	"github.com/driftchain/driftchain/core"
	"github.com/driftchain/driftchain/core/ledger"
	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/core/types"
	"github.com/driftchain/driftchain/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, delay uint64) (*Worker, *core.Chain, *registry.Registry) {
	kv := memorydb.New()
	db := state.NewDatabase(kv)
	rt := ledger.NewRuntime(ledger.DefaultVersion())

	sender := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	genesis := &core.Genesis{State: ledger.GenesisState(
		map[common.Address]*uint256.Int{sender: uint256.NewInt(1000)}, true)}
	chain, err := core.NewChain(db, rt, genesis)
	require.NoError(t, err)

	oracle, err := registry.NewCachedOracle(registry.EmbeddedVersionOracle{}, 4)
	require.NoError(t, err)
	reg, err := registry.NewRegistry(kv, oracle, delay)
	require.NoError(t, err)
	require.NoError(t, reg.Configs().ApplyGenesis(registry.GenesisConfig{
		EnableRuntimeCalls: true,
		ConfirmationDepth:  10,
	}))
	return NewWorker(chain, reg, false), chain, reg
}

func registryGenesis(t *testing.T, specVersion uint32) []byte {
	code, err := registry.EncodeRuntimeCode(types.VersionInfo{
		SpecName:    "evm",
		ImplName:    "test",
		SpecVersion: specVersion,
		ImplVersion: 1,
	}, []byte("payload"))
	require.NoError(t, err)
	enc, err := registry.NewRawGenesisWithCode(code).Encode()
	require.NoError(t, err)
	return enc
}

func TestWorkerSealsSubmittedTransactions(t *testing.T) {
	w, chain, _ := newTestWorker(t, 5)

	call := &ledger.Call{
		Kind:   ledger.CallTransfer,
		Nonce:  0,
		From:   common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		To:     common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Amount: uint256.NewInt(10),
	}
	tx, err := call.Transaction()
	require.NoError(t, err)
	w.SubmitTransaction(tx)
	require.Equal(t, 1, w.PendingCount())

	built, err := w.CommitBlock(&core.InherentData{Timestamp: 100})
	require.NoError(t, err)
	require.Equal(t, 0, w.PendingCount())
	require.Equal(t, 2, built.Block.Extrinsics().Len())
	require.Equal(t, uint64(1), chain.CurrentHeader().Number)
}

func TestWorkerAppliesDueUpgradesIntoDigest(t *testing.T) {
	w, chain, reg := newTestWorker(t, 2)

	id, err := reg.Register(registry.RootOrigin(), "evm", types.RuntimeKindEVM, registryGenesis(t, 1), 0)
	require.NoError(t, err)
	activation, err := reg.ScheduleUpgrade(registry.RootOrigin(), id, registryGenesis(t, 2), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(3), activation)

	for n := uint64(1); n <= activation; n++ {
		built, err := w.CommitBlock(&core.InherentData{Timestamp: 100 + n})
		require.NoError(t, err)

		digest := built.Block.Header().Digest
		if n == activation {
			require.Len(t, digest, 1)
			got, ok := digest[0].RuntimeUpgrade()
			require.True(t, ok)
			require.Equal(t, id, got)
		} else {
			require.Empty(t, digest)
		}
	}

	require.Equal(t, activation, chain.CurrentHeader().Number)
	object, err := reg.Runtime(id)
	require.NoError(t, err)
	require.Equal(t, uint32(2), object.Version.SpecVersion)
	require.Equal(t, uint32(1), object.UpgradeCount)
}
