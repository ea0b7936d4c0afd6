package types

// APIItem is one entry of the supported-API set a runtime advertises:
// an 8-byte API identifier plus the implemented version.
type APIItem struct {
	ID      [8]byte
	Version uint32
}

// VersionInfo is the version metadata a domain runtime declares for its
// executable code. SpecVersion is the consensus-critical field: it must
// strictly increase across upgrades of the same runtime.
type VersionInfo struct {
	SpecName              string
	ImplName              string
	AuthoringVersion      uint32
	SpecVersion           uint32
	ImplVersion           uint32
	TransactionVersion    uint32
	StateVersion          uint32
	ExtrinsicStateVersion uint32
	Apis                  []APIItem
}

// Copy returns a deep copy of the version info.
func (v VersionInfo) Copy() VersionInfo {
	cpy := v
	if v.Apis != nil {
		cpy.Apis = make([]APIItem, len(v.Apis))
		copy(cpy.Apis, v.Apis)
	}
	return cpy
}
