package registry

import (
	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/common"
)

// RuntimeObject is the registered state of one domain runtime.
type RuntimeObject struct {
	Name         string
	Kind         types.RuntimeKind
	UpgradeCount uint32
	CodeHash     common.Hash
	RawGenesis   *RawGenesis
	Version      types.VersionInfo
	CreatedAt    uint64
	UpdatedAt    uint64
}

// Copy deep-copies the runtime object.
func (o *RuntimeObject) Copy() *RuntimeObject {
	cpy := *o
	cpy.RawGenesis = o.RawGenesis.Copy()
	cpy.Version = o.Version.Copy()
	return &cpy
}

// ScheduledUpgrade is a pending runtime upgrade awaiting its activation
// height.
type ScheduledUpgrade struct {
	RawGenesis *RawGenesis
	Version    types.VersionInfo
	CodeHash   common.Hash
}

// Copy deep-copies the scheduled upgrade.
func (u *ScheduledUpgrade) Copy() *ScheduledUpgrade {
	return &ScheduledUpgrade{
		RawGenesis: u.RawGenesis.Copy(),
		Version:    u.Version.Copy(),
		CodeHash:   u.CodeHash,
	}
}

// DomainRuntimeInfo carries the per-domain parameters injected into a
// complete raw genesis.
type DomainRuntimeInfo struct {
	Kind       types.RuntimeKind
	EVMChainID uint64
}

// CompleteRawGenesis returns the runtime's raw genesis specialized for one
// domain instance. The stored genesis is never mutated; each call starts
// from a fresh copy.
func (o *RuntimeObject) CompleteRawGenesis(domainID types.DomainID, info DomainRuntimeInfo) *RawGenesis {
	genesis := o.RawGenesis.Copy()
	genesis.SetDomainID(uint32(domainID))
	if info.Kind == types.RuntimeKindEVM {
		genesis.SetEVMChainID(info.EVMChainID)
	}
	return genesis
}
