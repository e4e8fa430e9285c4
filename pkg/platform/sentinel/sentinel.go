package sentinel

import "errors"

// Sentinel errors for registrar facts. Stores, adapters, and the ledger return
// these (optionally wrapped) so services and transports can translate them
// uniformly with errors.Is.
//
// These represent factual states about names, custody, and funds, not input
// validation failures:
// - ErrNotAuthorized: caller is not the recognized controller/ultimate owner
// - ErrNameTaken: target child name already has an external owner
// - ErrNotListed: label is not currently listed for sale
// - ErrUnderpaid: attached payment below the listed price
// - ErrSelfOverride: custody override would point at the registrar itself
// - ErrStillDelegated: custody reclaim attempted while still actively delegated
// - ErrSurrendered: label custody has been surrendered; deed operations are closed
// - ErrInsufficientFunds: ledger balance cannot cover the requested transfer
// - ErrUnsupported: operation is a deliberate stub (rent)
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrNameTaken         = errors.New("name already taken")
	ErrNotListed         = errors.New("not listed")
	ErrUnderpaid         = errors.New("insufficient payment")
	ErrSelfOverride      = errors.New("override targets registrar")
	ErrStillDelegated    = errors.New("still delegated")
	ErrSurrendered       = errors.New("custody surrendered")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnsupported       = errors.New("unsupported")
)
