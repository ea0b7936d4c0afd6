// Package registry manages domain runtime code objects: registration,
// delayed validated upgrades, and activation at the scheduled height.
package registry

import (
	"encoding/binary"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Origin identifies the authority behind a registry call.
type Origin struct {
	root   bool
	signer common.Address
}

// RootOrigin is the privileged governance origin.
func RootOrigin() Origin { return Origin{root: true} }

// SignedOrigin is an ordinary account origin.
func SignedOrigin(signer common.Address) Origin { return Origin{signer: signer} }

// IsRoot reports whether the origin is the governance origin.
func (o Origin) IsRoot() bool { return o.root }

// Signer returns the signing account of a non-root origin.
func (o Origin) Signer() common.Address { return o.signer }

// Registry stores runtime objects and their pending upgrades.
type Registry struct {
	mu sync.RWMutex

	db     ethdb.KeyValueStore
	oracle VersionOracle
	cfg    *Configs

	// upgradeDelay is the number of blocks between scheduling an upgrade
	// and its activation.
	upgradeDelay uint64

	// pendingHeights mirrors the set of heights with scheduled upgrades,
	// so the per-block check stays off the database in the common case.
	pendingHeights mapset.Set[uint64]

	upgradeFeed event.Feed
	scope       event.SubscriptionScope
}

// NewRegistry opens a registry over the given store. Scheduled upgrades
// already in the store are picked up again.
func NewRegistry(db ethdb.KeyValueStore, oracle VersionOracle, upgradeDelay uint64) (*Registry, error) {
	r := &Registry{
		db:             db,
		oracle:         oracle,
		cfg:            NewConfigs(db),
		upgradeDelay:   upgradeDelay,
		pendingHeights: mapset.NewSet[uint64](),
	}
	it := db.NewIterator(scheduledUpgradePrefix, nil)
	defer it.Release()
	for it.Next() {
		height, _, ok := parseScheduledUpgradeKey(it.Key())
		if !ok {
			return nil, errors.Errorf("malformed scheduled upgrade key %x", it.Key())
		}
		r.pendingHeights.Add(height)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return r, nil
}

// Configs returns the registry's feature toggles.
func (r *Registry) Configs() *Configs { return r.cfg }

// UpgradeDelay returns the scheduling delay in blocks.
func (r *Registry) UpgradeDelay() uint64 { return r.upgradeDelay }

// versionError folds oracle failures under the extraction sentinel without
// wrapping it twice.
func versionError(err error) error {
	if errors.Is(err, ErrVersionExtraction) {
		return err
	}
	return errors.Wrap(ErrVersionExtraction, err.Error())
}

func (r *Registry) checkOrigin(origin Origin) error {
	if !r.cfg.RuntimeCallsEnabled() {
		return ErrRuntimeCallsDisabled
	}
	if origin.IsRoot() {
		return nil
	}
	if !r.cfg.NonRootCallsEnabled() {
		return ErrBadOrigin
	}
	return nil
}

// Register validates and stores a new runtime object, returning its
// allocated ID.
func (r *Registry) Register(origin Origin, name string, kind types.RuntimeKind,
	rawGenesisEnc []byte, at uint64) (types.RuntimeID, error) {

	if err := r.checkOrigin(origin); err != nil {
		return 0, err
	}

	genesis, err := DecodeRawGenesis(rawGenesisEnc)
	if err != nil {
		return 0, err
	}
	code, err := genesis.Code()
	if err != nil {
		return 0, err
	}
	version, err := r.oracle.ExtractVersion(code)
	if err != nil {
		return 0, versionError(err)
	}
	hash := crypto.Keccak256Hash(code)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(name, kind, genesis, version, hash, at)
}

// RegisterAtGenesis stores a runtime object during chain setup, skipping
// origin checks and version extraction.
func (r *Registry) RegisterAtGenesis(name string, kind types.RuntimeKind,
	genesis *RawGenesis, version types.VersionInfo) (types.RuntimeID, error) {

	code, err := genesis.Code()
	if err != nil {
		return 0, err
	}
	hash := crypto.Keccak256Hash(code)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(name, kind, genesis, version, hash, 0)
}

func (r *Registry) register(name string, kind types.RuntimeKind, genesis *RawGenesis,
	version types.VersionInfo, hash common.Hash, at uint64) (types.RuntimeID, error) {

	id, err := r.allocateID()
	if err != nil {
		return 0, err
	}
	object := &RuntimeObject{
		Name:       name,
		Kind:       kind,
		CodeHash:   hash,
		RawGenesis: genesis.Copy(),
		Version:    version.Copy(),
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if err := r.writeObject(id, object); err != nil {
		return 0, err
	}
	log.Info("Registered domain runtime", "id", id, "name", name, "kind", kind,
		"specVersion", version.SpecVersion, "codeHash", hash)
	return id, nil
}

// allocateID hands out the next runtime ID. Allocation fails closed when
// the 32-bit space is exhausted.
func (r *Registry) allocateID() (types.RuntimeID, error) {
	var next uint64
	if enc, err := r.db.Get(nextRuntimeIDKey); err == nil && len(enc) == 8 {
		next = binary.BigEndian.Uint64(enc)
	}
	if next > uint64(types.MaxRuntimeID) {
		return 0, ErrIDSpaceExhausted
	}
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, next+1)
	if err := r.db.Put(nextRuntimeIDKey, enc); err != nil {
		return 0, err
	}
	return types.RuntimeID(next), nil
}

// ScheduleUpgrade validates the new code against the registered runtime
// and stores the upgrade for activation after the configured delay. It
// returns the activation height.
func (r *Registry) ScheduleUpgrade(origin Origin, id types.RuntimeID,
	rawGenesisEnc []byte, at uint64) (uint64, error) {

	if err := r.checkOrigin(origin); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	object, err := r.readObject(id)
	if err != nil {
		return 0, err
	}

	genesis, err := DecodeRawGenesis(rawGenesisEnc)
	if err != nil {
		return 0, err
	}
	code, err := genesis.Code()
	if err != nil {
		return 0, err
	}
	version, err := r.oracle.ExtractVersion(code)
	if err != nil {
		return 0, versionError(err)
	}
	if version.SpecName != object.Version.SpecName {
		return 0, errors.Wrapf(ErrIncompatibleSpecName, "have %q, want %q",
			version.SpecName, object.Version.SpecName)
	}
	if version.SpecVersion <= object.Version.SpecVersion {
		return 0, errors.Wrapf(ErrSpecVersionMustIncrease, "have %d, current %d",
			version.SpecVersion, object.Version.SpecVersion)
	}

	activation := at + r.upgradeDelay
	if activation < at {
		return 0, ErrActivationOverflow
	}
	if ok, _ := r.db.Has(scheduledUpgradeKey(activation, id)); ok {
		return 0, errors.Wrapf(ErrUpgradeAlreadyScheduled, "runtime %d at height %d", id, activation)
	}

	upgrade := &ScheduledUpgrade{
		RawGenesis: genesis,
		Version:    version,
		CodeHash:   crypto.Keccak256Hash(code),
	}
	enc, err := rlp.EncodeToBytes(upgrade)
	if err != nil {
		return 0, err
	}
	if err := r.db.Put(scheduledUpgradeKey(activation, id), enc); err != nil {
		return 0, err
	}
	r.pendingHeights.Add(activation)

	log.Info("Scheduled runtime upgrade", "id", id, "activation", activation,
		"specVersion", version.SpecVersion, "codeHash", upgrade.CodeHash)
	return activation, nil
}

// ApplyDueUpgrades activates every upgrade scheduled for the given height,
// in runtime ID order. For each activated upgrade a digest item is appended
// and an event published. A scheduled upgrade whose runtime object is
// missing indicates store corruption and halts with an error.
func (r *Registry) ApplyDueUpgrades(at uint64, digest *types.Digest) error {
	if !r.pendingHeights.Contains(at) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := scheduledUpgradeHeightPrefix(at)
	it := r.db.NewIterator(prefix, nil)
	defer it.Release()

	type due struct {
		id      types.RuntimeID
		key     []byte
		upgrade *ScheduledUpgrade
	}
	var dueList []due
	for it.Next() {
		_, id, ok := parseScheduledUpgradeKey(it.Key())
		if !ok {
			return errors.Errorf("malformed scheduled upgrade key %x", it.Key())
		}
		var upgrade ScheduledUpgrade
		if err := rlp.DecodeBytes(it.Value(), &upgrade); err != nil {
			return errors.Wrapf(err, "decode scheduled upgrade for runtime %d", id)
		}
		dueList = append(dueList, due{
			id:      id,
			key:     append([]byte(nil), it.Key()...),
			upgrade: &upgrade,
		})
	}
	if err := it.Error(); err != nil {
		return err
	}

	for _, d := range dueList {
		object, err := r.readObject(d.id)
		if err != nil {
			return errors.Wrapf(err, "upgrade scheduled for unknown runtime %d", d.id)
		}
		object.RawGenesis = d.upgrade.RawGenesis
		object.Version = d.upgrade.Version
		object.CodeHash = d.upgrade.CodeHash
		object.UpgradeCount++
		object.UpdatedAt = at
		if err := r.writeObject(d.id, object); err != nil {
			return err
		}
		if err := r.db.Delete(d.key); err != nil {
			return err
		}
		*digest = append(*digest, types.NewRuntimeUpgradeDigest(d.id))
		r.upgradeFeed.Send(RuntimeUpgradedEvent{
			RuntimeID:   d.id,
			Height:      at,
			SpecVersion: object.Version.SpecVersion,
		})
		log.Info("Activated runtime upgrade", "id", d.id, "height", at,
			"specVersion", object.Version.SpecVersion, "upgrades", object.UpgradeCount)
	}

	r.pendingHeights.Remove(at)
	return nil
}

// Runtime returns a copy of the runtime object with the given ID.
func (r *Registry) Runtime(id types.RuntimeID) (*RuntimeObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readObject(id)
}

// NextRuntimeID returns the ID the next registration will receive.
func (r *Registry) NextRuntimeID() types.RuntimeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if enc, err := r.db.Get(nextRuntimeIDKey); err == nil && len(enc) == 8 {
		return types.RuntimeID(binary.BigEndian.Uint64(enc))
	}
	return 0
}

// ScheduledUpgradeAt returns the upgrade pending for (height, id), or nil.
func (r *Registry) ScheduledUpgradeAt(height uint64, id types.RuntimeID) (*ScheduledUpgrade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	enc, err := r.db.Get(scheduledUpgradeKey(height, id))
	if err != nil || enc == nil {
		return nil, nil
	}
	var upgrade ScheduledUpgrade
	if err := rlp.DecodeBytes(enc, &upgrade); err != nil {
		return nil, err
	}
	return &upgrade, nil
}

// HasPendingUpgrades reports whether any upgrade is scheduled at the height.
func (r *Registry) HasPendingUpgrades(height uint64) bool {
	return r.pendingHeights.Contains(height)
}

// SubscribeRuntimeUpgrades registers a channel for activation events.
func (r *Registry) SubscribeRuntimeUpgrades(ch chan<- RuntimeUpgradedEvent) event.Subscription {
	return r.scope.Track(r.upgradeFeed.Subscribe(ch))
}

// Stop unsubscribes all event listeners.
func (r *Registry) Stop() {
	r.scope.Close()
}

func (r *Registry) readObject(id types.RuntimeID) (*RuntimeObject, error) {
	enc, err := r.db.Get(runtimeObjectKey(id))
	if err != nil || enc == nil {
		return nil, errors.Wrapf(ErrRuntimeNotFound, "id %d", id)
	}
	var object RuntimeObject
	if err := rlp.DecodeBytes(enc, &object); err != nil {
		return nil, errors.Wrapf(err, "decode runtime object %d", id)
	}
	return &object, nil
}

func (r *Registry) writeObject(id types.RuntimeID, object *RuntimeObject) error {
	enc, err := rlp.EncodeToBytes(object)
	if err != nil {
		return err
	}
	return r.db.Put(runtimeObjectKey(id), enc)
}
