// Package registrar holds the domain model for the delegated namespace
// registrar: sale listings for top-level labels and custody entries for
// legacy deed-held labels.
package registrar

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"namegate/pkg/ens"
)

// PPMDenominator is the fee rate base: referral fees are expressed in parts
// per million of the sale price.
const PPMDenominator = 1_000_000

// Domain is a sale listing for a top-level label. The record is keyed by the
// label hash; Name keeps the preimage so listings can be displayed and so the
// listed/unlisted distinction stays checkable (see Listed).
type Domain struct {
	Name           string
	Owner          common.Address
	Price          *big.Int // native-currency minor units
	ReferralFeePPM uint32
}

// Listed reports whether the record is an active listing for label. Unlisting
// clears Name, which breaks the hash equality without erasing the slot.
func (d Domain) Listed(label common.Hash) bool {
	return d.Name != "" && ens.LabelHash(d.Name) == label
}

// ReferralFee returns floor(price * feePPM / 1e6).
func ReferralFee(price *big.Int, feePPM uint32) *big.Int {
	if price == nil || price.Sign() == 0 || feePPM == 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(price, big.NewInt(int64(feePPM)))
	return fee.Div(fee, big.NewInt(PPMDenominator))
}

// CustodyEntry tracks the registrar-side state of a legacy deed-held label.
// Override, when set, supersedes the deed's previous holder as the ultimate
// owner. Surrendered is terminal: once the label's custody has been reclaimed
// or its external ownership assigned away, every further deed operation on it
// is refused.
type CustodyEntry struct {
	Override    common.Address
	Surrendered bool
}

// QueryResult is the read-only reconciliation of external registry state with
// the internal listing state. A zero-value result means "unavailable".
type QueryResult struct {
	Name           string
	Price          *big.Int
	Rent           *big.Int
	ReferralFeePPM uint32
}
