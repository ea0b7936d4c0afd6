package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

func TestHeaderHashCoversDigest(t *testing.T) {
	parent := common.HexToHash("0x01")
	plain := NewHeader(5, parent, nil)
	withDigest := NewHeader(5, parent, Digest{NewRuntimeUpgradeDigest(7)})
	require.NotEqual(t, plain.Hash(), withDigest.Hash())
}

func TestHeaderCopyIsDeep(t *testing.T) {
	h := NewHeader(1, common.HexToHash("0x01"), Digest{NewRuntimeUpgradeDigest(3)})
	cpy := h.Copy()
	cpy.Digest[0].Data[0] = 0xff
	cpy.Number = 9

	require.Equal(t, uint64(1), h.Number)
	id, ok := h.Digest[0].RuntimeUpgrade()
	require.True(t, ok)
	require.Equal(t, RuntimeID(3), id)
}

func TestDigestItemRuntimeUpgrade(t *testing.T) {
	item := NewRuntimeUpgradeDigest(42)
	id, ok := item.RuntimeUpgrade()
	require.True(t, ok)
	require.Equal(t, RuntimeID(42), id)

	_, ok = DigestItem{Kind: 0x7f, Data: item.Data}.RuntimeUpgrade()
	require.False(t, ok)
	_, ok = DigestItem{Kind: DigestRuntimeUpgrade, Data: []byte{1}}.RuntimeUpgrade()
	require.False(t, ok)
}

func TestBlockEncodingRoundtrip(t *testing.T) {
	header := NewHeader(3, common.HexToHash("0xbeef"), Digest{NewRuntimeUpgradeDigest(1)})
	header.StateRoot = common.HexToHash("0x02")
	header.ExtrinsicsRoot = DeriveSha(makeTxs(2))
	block := NewBlock(header, makeTxs(2))

	enc, err := rlp.EncodeToBytes(block)
	require.NoError(t, err)

	var decoded Block
	require.NoError(t, rlp.DecodeBytes(enc, &decoded))
	require.Equal(t, block.Hash(), decoded.Hash())
	require.Equal(t, 2, decoded.Extrinsics().Len())
	require.Equal(t, block.Extrinsics()[1].Hash(), decoded.Extrinsics()[1].Hash())
}
