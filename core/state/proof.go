package state

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
)

// ProofRecorder accumulates the set of state keys touched by execution.
// Combined with the parent state trie it yields the minimal node set a
// third party needs to re-verify the touched reads against the pre-block
// state root.
type ProofRecorder struct {
	keys map[string]struct{}
}

// NewProofRecorder returns an empty recorder.
func NewProofRecorder() *ProofRecorder {
	return &ProofRecorder{keys: make(map[string]struct{})}
}

func (r *ProofRecorder) record(key []byte) {
	r.keys[string(key)] = struct{}{}
}

// Keys returns the recorded keys in ascending order.
func (r *ProofRecorder) Keys() [][]byte {
	sorted := make([]string, 0, len(r.keys))
	for k := range r.keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	keys := make([][]byte, len(sorted))
	for i, k := range sorted {
		keys[i] = []byte(k)
	}
	return keys
}

// StorageProof is the set of parent-state trie nodes covering every key
// touched during execution. Nodes are listed in ascending hash order so the
// encoding is reproducible.
type StorageProof struct {
	Nodes [][]byte
}

// EncodedSize returns an estimate of the proof's serialized size.
func (p *StorageProof) EncodedSize() int {
	size := 0
	for _, n := range p.Nodes {
		size += len(n)
	}
	return size
}

// nodeSet rebuilds the hash-keyed node database the trie proof routines
// consume.
func (p *StorageProof) nodeSet() *memorydb.Database {
	db := memorydb.New()
	for _, n := range p.Nodes {
		if err := db.Put(crypto.Keccak256(n), n); err != nil {
			panic(err)
		}
	}
	return db
}

// VerifyStorageProof checks key against root using only the proof nodes and
// returns the proven value (nil for a proven absence).
func VerifyStorageProof(root common.Hash, key []byte, proof *StorageProof) ([]byte, error) {
	return trie.VerifyProof(root, key, proof.nodeSet())
}

// Proof materializes the storage proof for every recorded key against the
// parent state this view was opened at. It fails if no recorder is attached.
func (s *StateDB) Proof() (*StorageProof, error) {
	if s.recorder == nil {
		return nil, errors.New("proof recording is not enabled")
	}
	tr := newFlatTrie(s.base)
	proofDB := memorydb.New()
	for _, key := range s.recorder.Keys() {
		if err := tr.Prove(key, proofDB); err != nil {
			return nil, errors.Wrapf(err, "prove key %x", key)
		}
	}

	it := proofDB.NewIterator(nil, nil)
	defer it.Release()
	var nodes [][]byte
	for it.Next() {
		nodes = append(nodes, append([]byte(nil), it.Value()...))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return &StorageProof{Nodes: nodes}, nil
}

// EstimatedProofSize returns the current encoded size of the proof under
// recording, and zero when recording is disabled.
func (s *StateDB) EstimatedProofSize() int {
	if s.recorder == nil {
		return 0
	}
	proof, err := s.Proof()
	if err != nil {
		return 0
	}
	return proof.EncodedSize()
}
