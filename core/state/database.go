// Package state implements the keyed-state view block execution runs
// against: a flat key/value database snapshotted per state root, a mutable
// StateDB overlay with journal-based nested transaction scopes, and Merkle
// proofs over the parent state for recorded accesses.
package state

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/pkg/errors"
)

// EmptyRoot is the state root of an empty state trie.
var EmptyRoot = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// ErrUnknownState is returned when a state root has no committed snapshot.
var ErrUnknownState = errors.New("unknown state root")

var (
	statePrefix     = []byte("dst:") // dst:<root><key> -> value
	stateMarkerPref = []byte("dsr:") // dsr:<root> -> 0x01, marks a committed root
)

// KeyValue is one state entry. A nil Value inside a Delta marks a deletion.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Delta is the net state change produced by executing a block: the
// post-state root plus the key-sorted set of written and deleted entries
// relative to the parent state.
type Delta struct {
	Root    common.Hash
	Entries []KeyValue
}

// Database stores committed flat-state snapshots keyed by state root in an
// injected key-value store. It is the backend block construction opens
// point-in-time views against.
type Database struct {
	kv ethdb.KeyValueStore
}

// NewDatabase wraps the given key-value store.
func NewDatabase(kv ethdb.KeyValueStore) *Database {
	return &Database{kv: kv}
}

// StateAt opens a mutable view of the state committed under root. The empty
// root is always resolvable and yields an empty state.
func (db *Database) StateAt(root common.Hash) (*StateDB, error) {
	flat := make(map[string][]byte)
	if root != EmptyRoot {
		ok, err := db.kv.Has(markerKey(root))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(ErrUnknownState, "%x", root)
		}
		prefix := snapshotPrefix(root)
		it := db.kv.NewIterator(prefix, nil)
		for it.Next() {
			key := append([]byte(nil), it.Key()[len(prefix):]...)
			flat[string(key)] = append([]byte(nil), it.Value()...)
		}
		err = it.Error()
		it.Release()
		if err != nil {
			return nil, err
		}
	}
	return newStateDB(root, flat), nil
}

// Commit applies a delta on top of the parent snapshot and persists the
// result under the delta's root. The recomputed root must match the one
// carried by the delta.
func (db *Database) Commit(parent common.Hash, delta *Delta) error {
	s, err := db.StateAt(parent)
	if err != nil {
		return err
	}
	flat := s.base
	for _, kv := range delta.Entries {
		if kv.Value == nil {
			delete(flat, string(kv.Key))
		} else {
			flat[string(kv.Key)] = kv.Value
		}
	}
	if root := flatRoot(flat); root != delta.Root {
		return errors.Errorf("state delta root mismatch: have %x, computed %x", delta.Root, root)
	}

	batch := db.kv.NewBatch()
	prefix := snapshotPrefix(delta.Root)
	for key, value := range flat {
		full := make([]byte, 0, len(prefix)+len(key))
		full = append(append(full, prefix...), key...)
		if err := batch.Put(full, value); err != nil {
			return err
		}
	}
	if err := batch.Put(markerKey(delta.Root), []byte{0x01}); err != nil {
		return err
	}
	return batch.Write()
}

func snapshotPrefix(root common.Hash) []byte {
	return append(append([]byte(nil), statePrefix...), root.Bytes()...)
}

func markerKey(root common.Hash) []byte {
	return append(append([]byte(nil), stateMarkerPref...), root.Bytes()...)
}

// sortedKeys returns the keys of a flat map in ascending byte order.
func sortedKeys(flat map[string][]byte) []string {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// newFlatTrie builds an ephemeral in-memory trie over the flat state. The
// trie is used for root computation and proof generation only; its nodes
// are never persisted.
func newFlatTrie(flat map[string][]byte) *trie.Trie {
	tr := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	for _, k := range sortedKeys(flat) {
		tr.MustUpdate([]byte(k), flat[k])
	}
	return tr
}

func flatRoot(flat map[string][]byte) common.Hash {
	if len(flat) == 0 {
		return EmptyRoot
	}
	return newFlatTrie(flat).Hash()
}

func cloneValue(v []byte) []byte {
	if v == nil {
		return nil
	}
	return append([]byte(nil), v...)
}

func equalValue(a, b []byte) bool {
	return bytes.Equal(a, b)
}
