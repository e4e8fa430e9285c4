package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namegate/pkg/platform/sentinel"
)

var (
	payer = common.HexToAddress("0x0000000000000000000000000000000000000001")
	payee = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(payer, big.NewInt(100))

	require.NoError(t, l.Transfer(ctx, payer, payee, big.NewInt(40)))

	from, _ := l.Balance(ctx, payer)
	to, _ := l.Balance(ctx, payee)
	assert.Equal(t, int64(60), from.Int64())
	assert.Equal(t, int64(40), to.Int64())
}

func TestTransferInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(payer, big.NewInt(10))

	err := l.Transfer(ctx, payer, payee, big.NewInt(11))
	require.ErrorIs(t, err, sentinel.ErrInsufficientFunds)

	// Nothing moved.
	from, _ := l.Balance(ctx, payer)
	to, _ := l.Balance(ctx, payee)
	assert.Equal(t, int64(10), from.Int64())
	assert.Equal(t, int64(0), to.Int64())
}

func TestTransferEdges(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	assert.NoError(t, l.Transfer(ctx, payer, payee, big.NewInt(0)), "zero amount is a no-op")
	assert.NoError(t, l.Transfer(ctx, payer, payer, big.NewInt(5)), "self transfer is a no-op")
	assert.Error(t, l.Transfer(ctx, payer, payee, big.NewInt(-1)), "negative amount")
	assert.Error(t, l.Transfer(ctx, payer, payee, nil), "nil amount")
}

func TestBalanceIsolation(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(payer, big.NewInt(5))

	b, err := l.Balance(ctx, payer)
	require.NoError(t, err)
	b.SetInt64(999)

	again, err := l.Balance(ctx, payer)
	require.NoError(t, err)
	assert.Equal(t, int64(5), again.Int64())
}
