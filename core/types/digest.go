package types

import "encoding/binary"

// Digest item kinds. The payload encoding is kind-specific.
const (
	// DigestRuntimeUpgrade signals that the runtime identified by the
	// big-endian uint32 payload was upgraded in this block. It is the
	// light-client visible notification of an activation.
	DigestRuntimeUpgrade uint8 = 0x01
)

// DigestItem is one typed entry of a block header digest.
type DigestItem struct {
	Kind uint8
	Data []byte
}

// Digest is the ordered list of digest items carried by a header.
type Digest []DigestItem

// NewRuntimeUpgradeDigest builds the digest item deposited when a scheduled
// runtime upgrade activates.
func NewRuntimeUpgradeDigest(id RuntimeID) DigestItem {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, uint32(id))
	return DigestItem{Kind: DigestRuntimeUpgrade, Data: data}
}

// RuntimeUpgrade interprets the item as a runtime-upgrade notification.
// The second return is false if the item is of a different kind or malformed.
func (d DigestItem) RuntimeUpgrade() (RuntimeID, bool) {
	if d.Kind != DigestRuntimeUpgrade || len(d.Data) != 4 {
		return 0, false
	}
	return RuntimeID(binary.BigEndian.Uint32(d.Data)), true
}

// Copy returns a deep copy of the digest.
func (d Digest) Copy() Digest {
	if d == nil {
		return nil
	}
	cpy := make(Digest, len(d))
	for i, item := range d {
		cpy[i] = DigestItem{Kind: item.Kind, Data: append([]byte(nil), item.Data...)}
	}
	return cpy
}
