// Package ledger implements a minimal deterministic execution runtime:
// balances and nonces keyed by address, a timestamp inherent, and the
// block-staging bookkeeping the block builder relies on. It is the in-repo
// reference runtime used to exercise block construction.
package ledger

import (
	"fmt"

	"github.com/driftchain/driftchain/core"
	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Runtime is the ledger execution environment. It is stateless; all data
// lives in the state view passed to each call.
type Runtime struct {
	version types.VersionInfo
}

// NewRuntime returns a ledger runtime advertising the given version.
func NewRuntime(version types.VersionInfo) *Runtime {
	return &Runtime{version: version}
}

// DefaultVersion is the version metadata of the built-in ledger runtime.
func DefaultVersion() types.VersionInfo {
	return types.VersionInfo{
		SpecName:           "ledger",
		ImplName:           "driftchain-ledger",
		SpecVersion:        1,
		ImplVersion:        1,
		TransactionVersion: 1,
	}
}

// Version implements core.Runtime.
func (r *Runtime) Version() types.VersionInfo { return r.version.Copy() }

// InitializeBlock stages the header under a system key so FinalizeBlock
// can complete it later.
func (r *Runtime) InitializeBlock(s *state.StateDB, header *types.Header) error {
	enc, err := rlp.EncodeToBytes(header)
	if err != nil {
		return errors.Wrap(err, "encode pending header")
	}
	s.Set(pendingHeaderKey, enc)
	return nil
}

// InherentExtrinsics synthesizes the timestamp inherent.
func (r *Runtime) InherentExtrinsics(s *state.StateDB, data core.InherentData) (types.Transactions, error) {
	call := &Call{Kind: CallSetTimestamp, Stamp: data.Timestamp}
	tx, err := call.Transaction()
	if err != nil {
		return nil, err
	}
	return types.Transactions{tx}, nil
}

// ApplyExtrinsic executes one ledger call. Validity failures are reported
// as core.InvalidTransactionError so the builder drops the extrinsic and
// continues.
func (r *Runtime) ApplyExtrinsic(s *state.StateDB, tx *types.Transaction) error {
	call, err := decodeCall(tx.Payload())
	if err != nil {
		return &core.InvalidTransactionError{Reason: "undecodable payload"}
	}

	switch call.Kind {
	case CallSetTimestamp:
		enc, err := rlp.EncodeToBytes(call.Stamp)
		if err != nil {
			return err
		}
		s.Set(timestampKey, enc)

	case CallMint:
		balance := readBalance(s, call.To)
		balance.Add(balance, call.Amount)
		writeBalance(s, call.To, balance)

	case CallTransfer:
		if !transfersEnabled(s) {
			return &core.InvalidTransactionError{Reason: "balance transfers are disabled"}
		}
		nonce := readNonce(s, call.From)
		if call.Nonce != nonce {
			return &core.InvalidTransactionError{
				Reason: fmt.Sprintf("bad nonce: have %d, want %d", call.Nonce, nonce),
			}
		}
		balance := readBalance(s, call.From)
		if balance.Lt(call.Amount) {
			return &core.InvalidTransactionError{Reason: "insufficient balance"}
		}
		balance.Sub(balance, call.Amount)
		writeBalance(s, call.From, balance)

		to := readBalance(s, call.To)
		to.Add(to, call.Amount)
		writeBalance(s, call.To, to)
		writeNonce(s, call.From, nonce+1)

	default:
		return &core.InvalidTransactionError{Reason: fmt.Sprintf("unknown call kind %d", call.Kind)}
	}

	return noteExtrinsic(s, tx)
}

// FinalizeBlock completes the staged header: it derives the extrinsics
// root from the extrinsics recorded during application, computes the state
// root and clears the staging keys.
func (r *Runtime) FinalizeBlock(s *state.StateDB) (*types.Header, error) {
	enc := s.Get(pendingHeaderKey)
	if enc == nil {
		return nil, errors.New("finalize without initialized block")
	}
	var header types.Header
	if err := rlp.DecodeBytes(enc, &header); err != nil {
		return nil, errors.Wrap(err, "decode pending header")
	}

	count := readExtrinsicCount(s)
	applied := make(types.Transactions, 0, count)
	for i := uint32(0); i < count; i++ {
		key := extrinsicKey(i)
		applied = append(applied, types.NewTransaction(s.Get(key)))
		s.Delete(key)
	}
	s.Delete(extrinsicCountKey)
	s.Delete(pendingHeaderKey)

	header.ExtrinsicsRoot = types.DeriveSha(applied)
	header.StateRoot = s.Root()
	return &header, nil
}

// noteExtrinsic records the applied extrinsic in the block staging area.
// It runs inside the extrinsic's own scope, so a rollback un-records it.
func noteExtrinsic(s *state.StateDB, tx *types.Transaction) error {
	count := readExtrinsicCount(s)
	s.Set(extrinsicKey(count), tx.Payload())
	enc, err := rlp.EncodeToBytes(count + 1)
	if err != nil {
		return err
	}
	s.Set(extrinsicCountKey, enc)
	return nil
}

func readExtrinsicCount(s *state.StateDB) uint32 {
	enc := s.Get(extrinsicCountKey)
	if enc == nil {
		return 0
	}
	var count uint32
	if err := rlp.DecodeBytes(enc, &count); err != nil {
		return 0
	}
	return count
}

func readBalance(s *state.StateDB, addr common.Address) *uint256.Int {
	return new(uint256.Int).SetBytes(s.Get(BalanceKey(addr)))
}

func writeBalance(s *state.StateDB, addr common.Address, balance *uint256.Int) {
	if balance.IsZero() {
		s.Delete(BalanceKey(addr))
		return
	}
	s.Set(BalanceKey(addr), balance.Bytes())
}

func readNonce(s *state.StateDB, addr common.Address) uint64 {
	enc := s.Get(NonceKey(addr))
	if enc == nil {
		return 0
	}
	var nonce uint64
	if err := rlp.DecodeBytes(enc, &nonce); err != nil {
		return 0
	}
	return nonce
}

func writeNonce(s *state.StateDB, addr common.Address, nonce uint64) {
	enc, err := rlp.EncodeToBytes(nonce)
	if err != nil {
		panic(err)
	}
	s.Set(NonceKey(addr), enc)
}

func transfersEnabled(s *state.StateDB) bool {
	enc := s.Get(TransfersEnabledKey())
	return len(enc) == 1 && enc[0] == 0x01
}

// GenesisState builds the initial ledger state entries for the given
// balances and transfer toggle, suitable for core.Genesis.
func GenesisState(alloc map[common.Address]*uint256.Int, enableTransfers bool) []state.KeyValue {
	entries := make([]state.KeyValue, 0, len(alloc)+1)
	for addr, balance := range alloc {
		if balance == nil || balance.IsZero() {
			continue
		}
		entries = append(entries, state.KeyValue{Key: BalanceKey(addr), Value: balance.Bytes()})
	}
	toggle := []byte{0x00}
	if enableTransfers {
		toggle = []byte{0x01}
	}
	entries = append(entries, state.KeyValue{Key: TransfersEnabledKey(), Value: toggle})
	return entries
}
