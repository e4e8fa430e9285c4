// Package ledger moves native-currency value between addresses. It stands in
// for the host ledger the registrar settles on: every public registrar call
// attaches its payment here, and the registration engine splits proceeds
// through it.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger transfers native-currency minor units between addresses. Transfers
// are all-or-nothing; a failed transfer moves nothing.
type Ledger interface {
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
}
