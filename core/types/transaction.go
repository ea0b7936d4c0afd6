package types

import (
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
)

// Transaction is an opaque extrinsic: a self-contained encoding understood
// by the runtime that executes it. The builder never interprets the payload,
// it only sequences, hashes and sizes it.
type Transaction struct {
	payload []byte
}

// NewTransaction wraps the given payload bytes. The payload is copied.
func NewTransaction(payload []byte) *Transaction {
	return &Transaction{payload: append([]byte(nil), payload...)}
}

// Payload returns the raw extrinsic encoding.
func (tx *Transaction) Payload() []byte { return tx.payload }

// Hash returns the keccak256 hash of the payload.
func (tx *Transaction) Hash() common.Hash {
	return crypto.Keccak256Hash(tx.payload)
}

// EncodeRLP encodes the transaction as a plain byte string.
func (tx *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, tx.payload)
}

// DecodeRLP decodes a transaction from a plain byte string.
func (tx *Transaction) DecodeRLP(s *rlp.Stream) error {
	payload, err := s.Bytes()
	if err != nil {
		return err
	}
	tx.payload = payload
	return nil
}

// Transactions is an ordered extrinsic list. Order is consensus-critical:
// it defines the block's extrinsics root.
type Transactions []*Transaction

// Len returns the number of transactions in the list.
func (txs Transactions) Len() int { return len(txs) }

// EncodedSize returns the length of the RLP encoding of the whole list.
func (txs Transactions) EncodedSize() int {
	enc, err := rlp.EncodeToBytes(txs)
	if err != nil {
		return 0
	}
	return len(enc)
}

// DeriveSha computes the deterministic ordered commitment of the extrinsic
// list: a trie keyed by the RLP encoding of each index, valued by the raw
// extrinsic payload. It depends only on content and order, never on
// execution outcome.
func DeriveSha(txs Transactions) common.Hash {
	hasher := trie.NewStackTrie(nil)
	var indexBuf []byte

	update := func(i int) {
		indexBuf = rlp.AppendUint64(indexBuf[:0], uint64(i))
		if err := hasher.Update(indexBuf, txs[i].payload); err != nil {
			panic(err)
		}
	}

	// StackTrie requires keys in ascending order, and the RLP encoding of
	// an index does not sort like the index itself: single-byte encodings
	// (1..0x7f) precede the multi-byte encoding of 0.
	for i := 1; i < len(txs) && i <= 0x7f; i++ {
		update(i)
	}
	if len(txs) > 0 {
		update(0)
	}
	for i := 0x80; i < len(txs); i++ {
		update(i)
	}
	return hasher.Hash()
}
