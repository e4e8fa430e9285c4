package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"namegate/pkg/platform/sentinel"
)

// MemoryLedger is an in-process ledger for dev wiring and tests.
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[common.Address]*big.Int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[common.Address]*big.Int)}
}

func (l *MemoryLedger) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("transfer amount must be non-negative")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	have := l.balances[from]
	if have == nil || have.Cmp(amount) < 0 {
		return fmt.Errorf("transfer %s from %s: %w", amount, from.Hex(), sentinel.ErrInsufficientFunds)
	}
	l.balances[from] = new(big.Int).Sub(have, amount)
	if l.balances[to] == nil {
		l.balances[to] = new(big.Int)
	}
	l.balances[to] = new(big.Int).Add(l.balances[to], amount)
	return nil
}

func (l *MemoryLedger) Balance(_ context.Context, addr common.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b := l.balances[addr]; b != nil {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// Mint credits an address out of thin air. Dev and test seeding only.
func (l *MemoryLedger) Mint(addr common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[addr] == nil {
		l.balances[addr] = new(big.Int)
	}
	l.balances[addr] = new(big.Int).Add(l.balances[addr], amount)
}
