package types

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/stretchr/testify/require"
)

func makeTxs(n int) Transactions {
	txs := make(Transactions, n)
	for i := range txs {
		txs[i] = NewTransaction([]byte(fmt.Sprintf("extrinsic-%d", i)))
	}
	return txs
}

// referenceRoot computes the extrinsics commitment with a regular trie,
// which accepts keys in any order.
func referenceRoot(txs Transactions) common.Hash {
	tr := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	for i, tx := range txs {
		key, _ := rlp.EncodeToBytes(uint64(i))
		tr.MustUpdate(key, tx.Payload())
	}
	return tr.Hash()
}

func TestDeriveShaMatchesReferenceTrie(t *testing.T) {
	for _, n := range []int{1, 2, 16, 127, 128, 129, 200} {
		txs := makeTxs(n)
		require.Equal(t, referenceRoot(txs), DeriveSha(txs), "n=%d", n)
	}
}

func TestDeriveShaEmpty(t *testing.T) {
	empty := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil)).Hash()
	require.Equal(t, empty, DeriveSha(nil))
	require.Equal(t, empty, DeriveSha(Transactions{}))
}

func TestDeriveShaOrderSensitive(t *testing.T) {
	txs := makeTxs(3)
	swapped := Transactions{txs[1], txs[0], txs[2]}
	require.NotEqual(t, DeriveSha(txs), DeriveSha(swapped))
}

func TestDeriveShaDeterministic(t *testing.T) {
	txs := makeTxs(10)
	require.Equal(t, DeriveSha(txs), DeriveSha(makeTxs(10)))
}
