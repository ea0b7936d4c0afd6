package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/require"
)

// committedState commits the given entries and reopens a view at the
// resulting root.
func committedState(t *testing.T, entries map[string][]byte) (*Database, *StateDB) {
	db := NewDatabase(memorydb.New())
	s, err := db.StateAt(EmptyRoot)
	require.NoError(t, err)
	for k, v := range entries {
		s.Set([]byte(k), v)
	}
	delta := s.Delta()
	require.NoError(t, db.Commit(EmptyRoot, delta))
	reopened, err := db.StateAt(delta.Root)
	require.NoError(t, err)
	return db, reopened
}

func TestProofRequiresRecorder(t *testing.T) {
	_, s := committedState(t, map[string][]byte{"a": {1}})
	_, err := s.Proof()
	require.Error(t, err)
}

func TestProofCoversReadsWritesAndAbsence(t *testing.T) {
	_, s := committedState(t, map[string][]byte{
		"alpha": []byte("one"),
		"beta":  []byte("two"),
		"gamma": []byte("three"),
	})
	root := s.ParentRoot()
	s.SetRecorder(NewProofRecorder())

	require.Equal(t, []byte("one"), s.Get([]byte("alpha")))
	s.Set([]byte("beta"), []byte("changed"))
	require.False(t, s.Has([]byte("missing")))

	proof, err := s.Proof()
	require.NoError(t, err)
	require.NotEmpty(t, proof.Nodes)
	require.Greater(t, proof.EncodedSize(), 0)

	// The proof verifies against the pre-block root, not the post-state.
	value, err := VerifyStorageProof(root, []byte("alpha"), proof)
	require.NoError(t, err)
	require.Equal(t, []byte("one"), value)

	// Written keys prove their parent-state value.
	value, err = VerifyStorageProof(root, []byte("beta"), proof)
	require.NoError(t, err)
	require.Equal(t, []byte("two"), value)

	// Touched absent keys yield an absence proof.
	value, err = VerifyStorageProof(root, []byte("missing"), proof)
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestEstimatedProofSize(t *testing.T) {
	_, s := committedState(t, map[string][]byte{"a": {1}, "b": {2}})
	require.Zero(t, s.EstimatedProofSize())

	s.SetRecorder(NewProofRecorder())
	s.Get([]byte("a"))
	require.Greater(t, s.EstimatedProofSize(), 0)
}

func TestRecorderKeysSortedUnique(t *testing.T) {
	r := NewProofRecorder()
	r.record([]byte("b"))
	r.record([]byte("a"))
	r.record([]byte("b"))
	keys := r.Keys()
	require.Equal(t, [][]byte{[]byte("a"), []byte("b")}, keys)
}
