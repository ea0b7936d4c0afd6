package ledger

import (
	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// CallKind selects the operation a ledger extrinsic performs.
type CallKind uint8

const (
	// CallTransfer moves Amount from From to To, consuming From's nonce.
	CallTransfer CallKind = iota
	// CallMint credits Amount to To. Dev-chain convenience.
	CallMint
	// CallSetTimestamp records the block timestamp. Synthesized as an
	// inherent, never submitted by users.
	CallSetTimestamp
)

// Call is the decoded form of a ledger extrinsic.
type Call struct {
	Kind   CallKind
	Nonce  uint64
	From   common.Address
	To     common.Address
	Amount *uint256.Int
	Stamp  uint64
}

// Transaction encodes the call as an opaque extrinsic.
func (c *Call) Transaction() (*types.Transaction, error) {
	if c.Amount == nil {
		c.Amount = new(uint256.Int)
	}
	payload, err := rlp.EncodeToBytes(c)
	if err != nil {
		return nil, err
	}
	return types.NewTransaction(payload), nil
}

func decodeCall(payload []byte) (*Call, error) {
	var call Call
	if err := rlp.DecodeBytes(payload, &call); err != nil {
		return nil, err
	}
	return &call, nil
}
