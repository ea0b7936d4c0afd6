package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Header is a block header. StateRoot and ExtrinsicsRoot start as zero
// hashes on a freshly constructed header and are filled in by the runtime
// when the block is finalized.
type Header struct {
	ParentHash     common.Hash
	Number         uint64
	StateRoot      common.Hash
	ExtrinsicsRoot common.Hash
	Digest         Digest
}

// NewHeader constructs a header for the block following parentHash at the
// given number, with placeholder roots.
func NewHeader(number uint64, parentHash common.Hash, digest Digest) *Header {
	return &Header{
		ParentHash: parentHash,
		Number:     number,
		Digest:     digest.Copy(),
	}
}

// Hash returns the keccak256 hash of the RLP-encoded header.
func (h *Header) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Size returns the length of the header's RLP encoding.
func (h *Header) Size() int {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		return 0
	}
	return len(enc)
}

// Copy returns a deep copy of the header.
func (h *Header) Copy() *Header {
	cpy := *h
	cpy.Digest = h.Digest.Copy()
	return &cpy
}
