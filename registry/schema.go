package registry

import (
	"encoding/binary"

	"github.com/driftchain/driftchain/core/types"
)

// Database key layout. Runtime objects are keyed by ID; scheduled upgrades
// are keyed by activation height then ID, so a prefix iteration over one
// height yields upgrades in runtime ID order.
var (
	runtimeObjectPrefix   = []byte("drr:")
	scheduledUpgradePrefix = []byte("dru:")
	nextRuntimeIDKey      = []byte("drn")

	runtimeCallsKey  = []byte("drc:runtime-calls")
	nonRootCallsKey  = []byte("drc:non-root-calls")
	transferCallsKey = []byte("drc:transfers")
	confirmDepthKey  = []byte("drc:confirmation-depth")
)

func runtimeObjectKey(id types.RuntimeID) []byte {
	key := append(append([]byte(nil), runtimeObjectPrefix...), 0, 0, 0, 0)
	binary.BigEndian.PutUint32(key[len(key)-4:], uint32(id))
	return key
}

func scheduledUpgradeKey(height uint64, id types.RuntimeID) []byte {
	key := append(append([]byte(nil), scheduledUpgradePrefix...), make([]byte, 12)...)
	binary.BigEndian.PutUint64(key[len(key)-12:], height)
	binary.BigEndian.PutUint32(key[len(key)-4:], uint32(id))
	return key
}

func scheduledUpgradeHeightPrefix(height uint64) []byte {
	key := append(append([]byte(nil), scheduledUpgradePrefix...), make([]byte, 8)...)
	binary.BigEndian.PutUint64(key[len(key)-8:], height)
	return key
}

// parseScheduledUpgradeKey recovers (height, id) from a scheduled upgrade
// key. The bool is false for keys of unexpected shape.
func parseScheduledUpgradeKey(key []byte) (uint64, types.RuntimeID, bool) {
	if len(key) != len(scheduledUpgradePrefix)+12 {
		return 0, 0, false
	}
	rest := key[len(scheduledUpgradePrefix):]
	height := binary.BigEndian.Uint64(rest[:8])
	id := types.RuntimeID(binary.BigEndian.Uint32(rest[8:]))
	return height, id, true
}
