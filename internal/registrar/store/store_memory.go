package store

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"namegate/internal/registrar"
	"namegate/pkg/platform/sentinel"
)

// InMemoryDomainStore keeps listings in a mutex-guarded map.
type InMemoryDomainStore struct {
	mu      sync.RWMutex
	domains map[common.Hash]registrar.Domain
}

func NewInMemoryDomainStore() *InMemoryDomainStore {
	return &InMemoryDomainStore{domains: make(map[common.Hash]registrar.Domain)}
}

func (s *InMemoryDomainStore) Get(_ context.Context, label common.Hash) (registrar.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[label]
	if !ok {
		return registrar.Domain{}, sentinel.ErrNotFound
	}
	return copyDomain(d), nil
}

func (s *InMemoryDomainStore) Put(_ context.Context, label common.Hash, domain registrar.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains[label] = copyDomain(domain)
	return nil
}

// copyDomain isolates callers from the stored big.Int.
func copyDomain(d registrar.Domain) registrar.Domain {
	if d.Price != nil {
		d.Price = new(big.Int).Set(d.Price)
	}
	return d
}

// InMemoryCustodyStore keeps custody entries in a mutex-guarded map.
type InMemoryCustodyStore struct {
	mu      sync.RWMutex
	entries map[common.Hash]registrar.CustodyEntry
}

func NewInMemoryCustodyStore() *InMemoryCustodyStore {
	return &InMemoryCustodyStore{entries: make(map[common.Hash]registrar.CustodyEntry)}
}

func (s *InMemoryCustodyStore) Get(_ context.Context, label common.Hash) (registrar.CustodyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[label]
	if !ok {
		return registrar.CustodyEntry{}, sentinel.ErrNotFound
	}
	return e, nil
}

func (s *InMemoryCustodyStore) Put(_ context.Context, label common.Hash, entry registrar.CustodyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[label] = entry
	return nil
}
