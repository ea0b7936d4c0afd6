package types

import "fmt"

// RuntimeID identifies a registered domain runtime. IDs are allocated
// monotonically by the runtime registry and are never reused.
type RuntimeID uint32

// MaxRuntimeID is the last allocatable runtime id. Allocation fails closed
// once the counter reaches it.
const MaxRuntimeID = RuntimeID(^uint32(0))

// DomainID identifies a domain instance. Several domain instances may share
// one registered runtime.
type DomainID uint32

// RuntimeKind tags the execution environment a registered runtime targets.
type RuntimeKind uint8

const (
	// RuntimeKindEVM marks an EVM-flavoured domain runtime.
	RuntimeKindEVM RuntimeKind = iota
)

func (k RuntimeKind) String() string {
	switch k {
	case RuntimeKindEVM:
		return "evm"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}
