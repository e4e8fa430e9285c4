package store

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"namegate/internal/registrar"
)

// Stores are interface-driven so the service stays testable and persistence
// can move between in-memory and postgres without rewiring business code.

// DomainStore keys sale listings by top-level label hash.
type DomainStore interface {
	// Get returns the listing slot for label, or sentinel.ErrNotFound when the
	// label has never been configured.
	Get(ctx context.Context, label common.Hash) (registrar.Domain, error)
	Put(ctx context.Context, label common.Hash, domain registrar.Domain) error
}

// CustodyStore keys deed custody entries by top-level label hash.
type CustodyStore interface {
	// Get returns the custody entry for label, or sentinel.ErrNotFound when no
	// entry has been written (callers fall back to the deed's previous holder).
	Get(ctx context.Context, label common.Hash) (registrar.CustodyEntry, error)
	Put(ctx context.Context, label common.Hash, entry registrar.CustodyEntry) error
}
