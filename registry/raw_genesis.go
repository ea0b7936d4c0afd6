package registry

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Well-known raw genesis storage keys.
var (
	codeKey       = []byte(":code")
	domainIDKey   = []byte(":domain_id")
	evmChainIDKey = []byte(":evm_chain_id")
)

// StorageEntry is one key/value pair of a raw genesis top-level storage map.
type StorageEntry struct {
	Key   []byte
	Value []byte
}

// RawGenesis is the genesis storage a domain instance boots from. Entries
// are kept sorted by key so encoding is canonical.
type RawGenesis struct {
	Version uint32
	Top     []StorageEntry
}

// DecodeRawGenesis parses an encoded raw genesis blob.
func DecodeRawGenesis(data []byte) (*RawGenesis, error) {
	var genesis RawGenesis
	if err := rlp.DecodeBytes(data, &genesis); err != nil {
		return nil, errors.Wrap(ErrGenesisDecode, err.Error())
	}
	return &genesis, nil
}

// Encode returns the canonical encoding of the raw genesis.
func (g *RawGenesis) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(g)
}

// Get returns the value stored under key, or nil.
func (g *RawGenesis) Get(key []byte) []byte {
	for _, entry := range g.Top {
		if bytes.Equal(entry.Key, key) {
			return entry.Value
		}
	}
	return nil
}

// Set stores value under key, replacing any existing entry and keeping the
// entries sorted.
func (g *RawGenesis) Set(key, value []byte) {
	for i, entry := range g.Top {
		if bytes.Equal(entry.Key, key) {
			g.Top[i].Value = append([]byte(nil), value...)
			return
		}
	}
	g.Top = append(g.Top, StorageEntry{
		Key:   append([]byte(nil), key...),
		Value: append([]byte(nil), value...),
	})
	sort.Slice(g.Top, func(i, j int) bool {
		return bytes.Compare(g.Top[i].Key, g.Top[j].Key) < 0
	})
}

// Code returns the runtime code entry, or ErrCodeNotFound.
func (g *RawGenesis) Code() ([]byte, error) {
	code := g.Get(codeKey)
	if code == nil {
		return nil, ErrCodeNotFound
	}
	return code, nil
}

// SetDomainID records the domain instance ID in the genesis storage.
func (g *RawGenesis) SetDomainID(id uint32) {
	enc := make([]byte, 4)
	enc[0] = byte(id >> 24)
	enc[1] = byte(id >> 16)
	enc[2] = byte(id >> 8)
	enc[3] = byte(id)
	g.Set(domainIDKey, enc)
}

// SetEVMChainID records the EVM chain ID in the genesis storage.
func (g *RawGenesis) SetEVMChainID(chainID uint64) {
	enc := make([]byte, 8)
	for i := 0; i < 8; i++ {
		enc[i] = byte(chainID >> (56 - 8*i))
	}
	g.Set(evmChainIDKey, enc)
}

// Copy deep-copies the raw genesis.
func (g *RawGenesis) Copy() *RawGenesis {
	cpy := &RawGenesis{Version: g.Version, Top: make([]StorageEntry, len(g.Top))}
	for i, entry := range g.Top {
		cpy.Top[i] = StorageEntry{
			Key:   append([]byte(nil), entry.Key...),
			Value: append([]byte(nil), entry.Value...),
		}
	}
	return cpy
}

// NewRawGenesisWithCode builds a raw genesis holding only the given runtime
// code.
func NewRawGenesisWithCode(code []byte) *RawGenesis {
	genesis := &RawGenesis{Version: 1}
	genesis.Set(codeKey, code)
	return genesis
}
