package naming

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"namegate/pkg/ens"
)

type nodeRecord struct {
	owner    common.Address
	resolver common.Address
}

// MemoryRegistry is an in-process naming registry for dev wiring and tests.
type MemoryRegistry struct {
	mu    sync.RWMutex
	nodes map[common.Hash]nodeRecord
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{nodes: make(map[common.Hash]nodeRecord)}
}

func (r *MemoryRegistry) OwnerOf(_ context.Context, node common.Hash) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodes[node].owner, nil
}

func (r *MemoryRegistry) SetOwner(_ context.Context, node common.Hash, owner common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.nodes[node]
	rec.owner = owner
	r.nodes[node] = rec
	return nil
}

func (r *MemoryRegistry) SetSubnodeOwner(_ context.Context, parent, labelHash common.Hash, owner common.Address) (common.Hash, error) {
	child := ens.SubnodeHash(parent, labelHash)
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.nodes[child]
	rec.owner = owner
	r.nodes[child] = rec
	return child, nil
}

func (r *MemoryRegistry) SetResolver(_ context.Context, node common.Hash, resolver common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.nodes[node]
	rec.resolver = resolver
	r.nodes[node] = rec
	return nil
}

// ResolverOf is a test accessor; the registrar core never reads resolvers back.
func (r *MemoryRegistry) ResolverOf(node common.Hash) common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodes[node].resolver
}

// MemoryResolver records address bindings per resolver address.
type MemoryResolver struct {
	mu      sync.RWMutex
	records map[common.Address]map[common.Hash]common.Address
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{records: make(map[common.Address]map[common.Hash]common.Address)}
}

func (r *MemoryResolver) SetAddr(_ context.Context, resolver common.Address, node common.Hash, addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := r.records[resolver]
	if recs == nil {
		recs = make(map[common.Hash]common.Address)
		r.records[resolver] = recs
	}
	recs[node] = addr
	return nil
}

// Addr is a test accessor.
func (r *MemoryResolver) Addr(resolver common.Address, node common.Hash) common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[resolver][node]
}

// MemoryDeedRegistry is an in-process legacy custody registry.
type MemoryDeedRegistry struct {
	mu    sync.RWMutex
	root  common.Hash
	deeds map[common.Hash]Deed
}

func NewMemoryDeedRegistry(root common.Hash) *MemoryDeedRegistry {
	return &MemoryDeedRegistry{root: root, deeds: make(map[common.Hash]Deed)}
}

func (d *MemoryDeedRegistry) Entries(_ context.Context, labelHash common.Hash) (Deed, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.deeds[labelHash], nil
}

func (d *MemoryDeedRegistry) Transfer(_ context.Context, labelHash common.Hash, newHolder common.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	deed := d.deeds[labelHash]
	deed.PreviousHolder = deed.Holder
	deed.Holder = newHolder
	d.deeds[labelHash] = deed
	return nil
}

func (d *MemoryDeedRegistry) RootNode(_ context.Context) (common.Hash, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root, nil
}

// Seed installs a custody record directly, bypassing transfer bookkeeping.
func (d *MemoryDeedRegistry) Seed(labelHash common.Hash, deed Deed) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deeds[labelHash] = deed
}
