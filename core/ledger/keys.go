package ledger

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// State key layout. Account data lives under "led:" prefixes; block staging
// data the runtime clears again at finalization lives under ":" system keys.
var (
	balancePrefix = []byte("led:b:")
	noncePrefix   = []byte("led:n:")
	timestampKey  = []byte("led:timestamp")

	// transfersEnabledKey gates user balance transfers. Written at genesis.
	transfersEnabledKey = []byte("led:cfg:transfers")

	pendingHeaderKey  = []byte(":pending-header")
	extrinsicCountKey = []byte(":extrinsic-count")
	extrinsicPrefix   = []byte(":extrinsic:")
)

// BalanceKey returns the state key holding addr's balance.
func BalanceKey(addr common.Address) []byte {
	return append(append([]byte(nil), balancePrefix...), addr.Bytes()...)
}

// NonceKey returns the state key holding addr's transaction nonce.
func NonceKey(addr common.Address) []byte {
	return append(append([]byte(nil), noncePrefix...), addr.Bytes()...)
}

// TransfersEnabledKey returns the state key of the transfer toggle.
func TransfersEnabledKey() []byte {
	return append([]byte(nil), transfersEnabledKey...)
}

// TimestampKey returns the state key holding the current block timestamp.
func TimestampKey() []byte {
	return append([]byte(nil), timestampKey...)
}

func extrinsicKey(index uint32) []byte {
	key := append(append([]byte(nil), extrinsicPrefix...), 0, 0, 0, 0)
	binary.BigEndian.PutUint32(key[len(key)-4:], index)
	return key
}
