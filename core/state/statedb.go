package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// revision identifies a point in the journal that a nested transaction
// scope can be rolled back to.
type revision struct {
	id           int
	journalIndex int
}

// journalEntry remembers the previous overlay value of a key so a write can
// be undone.
type journalEntry struct {
	key        string
	prevValue  []byte
	prevExists bool
}

// StateDB is a mutable view of the keyed state at a parent root. All writes
// go to an overlay on top of the immutable parent snapshot; nested
// transaction scopes are expressed as journal snapshots that can be
// reverted without touching previously committed writes.
//
// StateDB is not safe for concurrent use: block execution is strictly
// sequential and the view is exclusively owned by one execution context.
type StateDB struct {
	parentRoot common.Hash
	base       map[string][]byte
	// overlay holds dirty values; a nil value is a deletion tombstone.
	overlay map[string][]byte

	journal        []journalEntry
	validRevisions []revision
	nextRevisionID int

	recorder *ProofRecorder
}

func newStateDB(parentRoot common.Hash, base map[string][]byte) *StateDB {
	return &StateDB{
		parentRoot: parentRoot,
		base:       base,
		overlay:    make(map[string][]byte),
	}
}

// ParentRoot returns the root of the parent state this view was opened at.
func (s *StateDB) ParentRoot() common.Hash { return s.parentRoot }

// SetRecorder attaches a proof recorder. To produce a complete proof it
// must be attached before any execution happens against this view.
func (s *StateDB) SetRecorder(r *ProofRecorder) { s.recorder = r }

// Recording reports whether a proof recorder is attached.
func (s *StateDB) Recording() bool { return s.recorder != nil }

// Get returns the current value of key, or nil if absent.
func (s *StateDB) Get(key []byte) []byte {
	s.touch(key)
	if v, ok := s.overlay[string(key)]; ok {
		return cloneValue(v)
	}
	return cloneValue(s.base[string(key)])
}

// Has reports whether key currently has a value.
func (s *StateDB) Has(key []byte) bool {
	s.touch(key)
	if v, ok := s.overlay[string(key)]; ok {
		return v != nil
	}
	_, ok := s.base[string(key)]
	return ok
}

// Set writes value under key.
func (s *StateDB) Set(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	s.touch(key)
	s.journalWrite(string(key))
	s.overlay[string(key)] = cloneValue(value)
}

// Delete removes key from the state.
func (s *StateDB) Delete(key []byte) {
	s.touch(key)
	s.journalWrite(string(key))
	s.overlay[string(key)] = nil
}

func (s *StateDB) journalWrite(key string) {
	prev, exists := s.overlay[key]
	s.journal = append(s.journal, journalEntry{
		key:        key,
		prevValue:  cloneValue(prev),
		prevExists: exists,
	})
}

func (s *StateDB) touch(key []byte) {
	if s.recorder != nil {
		s.recorder.record(key)
	}
}

// Snapshot opens a nested transaction scope and returns its identifier.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionID
	s.nextRevisionID++
	s.validRevisions = append(s.validRevisions, revision{id: id, journalIndex: len(s.journal)})
	return id
}

// RevertToSnapshot rolls every write made since the given snapshot back and
// invalidates it together with any snapshot taken after it.
func (s *StateDB) RevertToSnapshot(id int) {
	idx := -1
	for i, rev := range s.validRevisions {
		if rev.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Errorf("revision id %v cannot be reverted", id))
	}
	target := s.validRevisions[idx].journalIndex

	for i := len(s.journal) - 1; i >= target; i-- {
		entry := s.journal[i]
		if entry.prevExists {
			s.overlay[entry.key] = entry.prevValue
		} else {
			delete(s.overlay, entry.key)
		}
	}
	s.journal = s.journal[:target]
	s.validRevisions = s.validRevisions[:idx]
}

// Root computes the state root of the current view.
func (s *StateDB) Root() common.Hash {
	return flatRoot(s.merged())
}

// Delta extracts the net change against the parent state, key-sorted, with
// the post-state root. Keys written and deleted within the same view cancel
// out and do not appear.
func (s *StateDB) Delta() *Delta {
	entries := make([]KeyValue, 0, len(s.overlay))
	for _, k := range sortedKeys(s.overlay) {
		v := s.overlay[k]
		bv, inBase := s.base[k]
		switch {
		case v == nil:
			if inBase {
				entries = append(entries, KeyValue{Key: []byte(k)})
			}
		case !inBase || !equalValue(bv, v):
			entries = append(entries, KeyValue{Key: []byte(k), Value: cloneValue(v)})
		}
	}
	return &Delta{Root: s.Root(), Entries: entries}
}

func (s *StateDB) merged() map[string][]byte {
	flat := make(map[string][]byte, len(s.base)+len(s.overlay))
	for k, v := range s.base {
		flat[k] = v
	}
	for k, v := range s.overlay {
		if v == nil {
			delete(flat, k)
		} else {
			flat[k] = v
		}
	}
	return flat
}
