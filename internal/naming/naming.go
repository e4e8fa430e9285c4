// Package naming defines the registrar's view of its external collaborators:
// the hierarchical naming registry, the resolver service, and the legacy
// custody ("deed") registry. The registrar holds no state of theirs; it only
// reads and writes through these interfaces.
package naming

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the external naming registry keyed by node identifier.
type Registry interface {
	// OwnerOf returns the controlling address for node, or the zero address
	// when the node has never been claimed.
	OwnerOf(ctx context.Context, node common.Hash) (common.Address, error)

	// SetOwner reassigns control of an existing node.
	SetOwner(ctx context.Context, node common.Hash, owner common.Address) error

	// SetSubnodeOwner claims or reassigns the child of parent identified by
	// labelHash and returns the child node.
	SetSubnodeOwner(ctx context.Context, parent, labelHash common.Hash, owner common.Address) (common.Hash, error)

	// SetResolver points node at a resolver address.
	SetResolver(ctx context.Context, node common.Hash, resolver common.Address) error
}

// Resolver reaches the resolver service deployed at a given address.
type Resolver interface {
	// SetAddr binds the address record for node on the resolver at resolver.
	SetAddr(ctx context.Context, resolver common.Address, node common.Hash, addr common.Address) error
}

// Deed is a custody record from the legacy registry. Holder is the address
// currently holding the custody token; PreviousHolder is the address it was
// taken over from.
type Deed struct {
	Holder         common.Address
	PreviousHolder common.Address
}

// DeedRegistry is the legacy custody/auction registry.
type DeedRegistry interface {
	// Entries returns the custody record for a top-level label hash. A zero
	// Deed means no custody token exists for the label.
	Entries(ctx context.Context, labelHash common.Hash) (Deed, error)

	// Transfer hands the custody token for labelHash to newHolder.
	Transfer(ctx context.Context, labelHash common.Hash, newHolder common.Address) error

	// RootNode returns the node the legacy registry allocates under.
	RootNode(ctx context.Context) (common.Hash, error)
}
