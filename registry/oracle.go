package registry

import (
	"bytes"

	"github.com/driftchain/driftchain/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// VersionOracle extracts version metadata from a runtime code blob.
type VersionOracle interface {
	ExtractVersion(code []byte) (types.VersionInfo, error)
}

// versionMagic prefixes code blobs that embed their version metadata.
var versionMagic = []byte("drv1")

// EmbeddedVersionOracle reads versions embedded in the code blob itself:
// a magic tag, the encoded version, then the executable payload.
type EmbeddedVersionOracle struct{}

// ExtractVersion implements VersionOracle.
func (EmbeddedVersionOracle) ExtractVersion(code []byte) (types.VersionInfo, error) {
	if !bytes.HasPrefix(code, versionMagic) {
		return types.VersionInfo{}, errors.Wrap(ErrVersionExtraction, "missing version magic")
	}
	stream := rlp.NewStream(bytes.NewReader(code[len(versionMagic):]), 0)
	var version types.VersionInfo
	if err := stream.Decode(&version); err != nil {
		return types.VersionInfo{}, errors.Wrap(ErrVersionExtraction, err.Error())
	}
	return version, nil
}

// EncodeRuntimeCode builds a code blob carrying the given version, suitable
// for EmbeddedVersionOracle.
func EncodeRuntimeCode(version types.VersionInfo, payload []byte) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(&version)
	if err != nil {
		return nil, err
	}
	code := append(append([]byte(nil), versionMagic...), enc...)
	return append(code, payload...), nil
}

// CachedOracle memoizes version extraction by code hash. Extraction runs
// once per distinct blob; repeat lookups are served from the cache.
type CachedOracle struct {
	inner VersionOracle
	cache *lru.Cache
}

// NewCachedOracle wraps inner with an LRU cache of the given size.
func NewCachedOracle(inner VersionOracle, size int) (*CachedOracle, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedOracle{inner: inner, cache: cache}, nil
}

// ExtractVersion implements VersionOracle.
func (o *CachedOracle) ExtractVersion(code []byte) (types.VersionInfo, error) {
	hash := crypto.Keccak256Hash(code)
	if cached, ok := o.cache.Get(hash); ok {
		return cached.(types.VersionInfo).Copy(), nil
	}
	version, err := o.inner.ExtractVersion(code)
	if err != nil {
		return types.VersionInfo{}, err
	}
	o.cache.Add(hash, version.Copy())
	return version, nil
}
