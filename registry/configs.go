package registry

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/pkg/errors"
)

// Configs holds the runtime-management feature toggles. They are persisted
// alongside the registry data so a restart keeps the operator's settings.
type Configs struct {
	db ethdb.KeyValueStore
}

// NewConfigs returns a config view over the given store.
func NewConfigs(db ethdb.KeyValueStore) *Configs {
	return &Configs{db: db}
}

// GenesisConfig seeds the toggles at chain creation.
type GenesisConfig struct {
	EnableRuntimeCalls     bool
	EnableNonRootCalls     bool
	EnableBalanceTransfers bool
	ConfirmationDepth      uint64
}

// ApplyGenesis writes the genesis toggle values. A zero confirmation depth
// is rejected; depth zero would confirm blocks before they exist.
func (c *Configs) ApplyGenesis(cfg GenesisConfig) error {
	if cfg.ConfirmationDepth == 0 {
		return errors.New("confirmation depth must not be zero")
	}
	if err := c.writeBool(runtimeCallsKey, cfg.EnableRuntimeCalls); err != nil {
		return err
	}
	if err := c.writeBool(nonRootCallsKey, cfg.EnableNonRootCalls); err != nil {
		return err
	}
	if err := c.writeBool(transferCallsKey, cfg.EnableBalanceTransfers); err != nil {
		return err
	}
	depth := make([]byte, 8)
	binary.BigEndian.PutUint64(depth, cfg.ConfirmationDepth)
	return c.db.Put(confirmDepthKey, depth)
}

// RuntimeCallsEnabled reports whether runtime management calls are allowed.
func (c *Configs) RuntimeCallsEnabled() bool { return c.readBool(runtimeCallsKey) }

// NonRootCallsEnabled reports whether signed origins may issue calls.
func (c *Configs) NonRootCallsEnabled() bool { return c.readBool(nonRootCallsKey) }

// BalanceTransfersEnabled reports whether user transfers are allowed.
func (c *Configs) BalanceTransfersEnabled() bool { return c.readBool(transferCallsKey) }

// ConfirmationDepth returns the configured confirmation depth, zero when
// unset.
func (c *Configs) ConfirmationDepth() uint64 {
	enc, err := c.db.Get(confirmDepthKey)
	if err != nil || len(enc) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(enc)
}

// SetRuntimeCallsEnabled flips the runtime-calls toggle. Root only.
func (c *Configs) SetRuntimeCallsEnabled(origin Origin, enabled bool) error {
	if !origin.IsRoot() {
		return ErrBadOrigin
	}
	return c.writeBool(runtimeCallsKey, enabled)
}

// SetNonRootCallsEnabled flips the non-root-calls toggle. Root only.
func (c *Configs) SetNonRootCallsEnabled(origin Origin, enabled bool) error {
	if !origin.IsRoot() {
		return ErrBadOrigin
	}
	return c.writeBool(nonRootCallsKey, enabled)
}

// SetBalanceTransfersEnabled flips the transfer toggle. Root only.
func (c *Configs) SetBalanceTransfersEnabled(origin Origin, enabled bool) error {
	if !origin.IsRoot() {
		return ErrBadOrigin
	}
	return c.writeBool(transferCallsKey, enabled)
}

func (c *Configs) readBool(key []byte) bool {
	enc, err := c.db.Get(key)
	return err == nil && len(enc) == 1 && enc[0] == 0x01
}

func (c *Configs) writeBool(key []byte, v bool) error {
	enc := []byte{0x00}
	if v {
		enc[0] = 0x01
	}
	return c.db.Put(key, enc)
}
