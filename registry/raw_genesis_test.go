package registry

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRawGenesisEncodingRoundtrip(t *testing.T) {
	genesis := NewRawGenesisWithCode([]byte("code"))
	genesis.Set([]byte("k1"), []byte("v1"))
	genesis.SetDomainID(3)

	enc, err := genesis.Encode()
	require.NoError(t, err)
	decoded, err := DecodeRawGenesis(enc)
	require.NoError(t, err)
	require.Equal(t, genesis, decoded)
}

func TestRawGenesisDecodeError(t *testing.T) {
	_, err := DecodeRawGenesis([]byte{0xde, 0xad})
	require.True(t, errors.Is(err, ErrGenesisDecode))
}

func TestRawGenesisEntriesSorted(t *testing.T) {
	genesis := &RawGenesis{Version: 1}
	genesis.Set([]byte("zz"), []byte{1})
	genesis.Set([]byte("aa"), []byte{2})
	genesis.Set([]byte("mm"), []byte{3})

	require.Equal(t, []byte("aa"), genesis.Top[0].Key)
	require.Equal(t, []byte("mm"), genesis.Top[1].Key)
	require.Equal(t, []byte("zz"), genesis.Top[2].Key)

	// Overwriting keeps one entry per key.
	genesis.Set([]byte("mm"), []byte{9})
	require.Len(t, genesis.Top, 3)
	require.Equal(t, []byte{9}, genesis.Get([]byte("mm")))
}

func TestRawGenesisCode(t *testing.T) {
	genesis := &RawGenesis{Version: 1}
	_, err := genesis.Code()
	require.True(t, errors.Is(err, ErrCodeNotFound))

	genesis.Set([]byte(":code"), []byte("wasm"))
	code, err := genesis.Code()
	require.NoError(t, err)
	require.Equal(t, []byte("wasm"), code)
}

func TestRawGenesisCopyIsDeep(t *testing.T) {
	genesis := NewRawGenesisWithCode([]byte("code"))
	cpy := genesis.Copy()
	cpy.Set([]byte(":code"), []byte("other"))
	cpy.SetEVMChainID(5)

	code, err := genesis.Code()
	require.NoError(t, err)
	require.Equal(t, []byte("code"), code)
	require.Nil(t, genesis.Get([]byte(":evm_chain_id")))
}
