package registry

import "github.com/driftchain/driftchain/core/types"

// RuntimeUpgradedEvent is published when a scheduled upgrade activates.
type RuntimeUpgradedEvent struct {
	RuntimeID   types.RuntimeID
	Height      uint64
	SpecVersion uint32
}
