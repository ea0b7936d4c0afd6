package types

import (
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Block is a finalized header together with the extrinsics that were
// actually applied, in application order.
type Block struct {
	header     *Header
	extrinsics Transactions
}

// NewBlock assembles a block from a finalized header and its extrinsics.
// The header is deep-copied; the extrinsic list is referenced as-is.
func NewBlock(header *Header, extrinsics Transactions) *Block {
	return &Block{header: header.Copy(), extrinsics: extrinsics}
}

// Header returns a copy of the block header.
func (b *Block) Header() *Header { return b.header.Copy() }

// Extrinsics returns the block's extrinsic list.
func (b *Block) Extrinsics() Transactions { return b.extrinsics }

// Hash returns the block hash, which is the header hash.
func (b *Block) Hash() common.Hash { return b.header.Hash() }

// Number returns the block height.
func (b *Block) Number() uint64 { return b.header.Number }

type extBlock struct {
	Header     *Header
	Extrinsics Transactions
}

// EncodeRLP encodes the block as [header, extrinsics].
func (b *Block) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &extBlock{Header: b.header, Extrinsics: b.extrinsics})
}

// DecodeRLP decodes a block encoded by EncodeRLP.
func (b *Block) DecodeRLP(s *rlp.Stream) error {
	var dec extBlock
	if err := s.Decode(&dec); err != nil {
		return err
	}
	b.header, b.extrinsics = dec.Header, dec.Extrinsics
	return nil
}
