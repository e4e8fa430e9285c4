package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"namegate/internal/events"
	"namegate/internal/registrar"
	"namegate/internal/registrar/store/recent"
	"namegate/pkg/ens"
	"namegate/pkg/platform/sentinel"
)

// saga collects compensations for applied effects. The host here cannot make
// the ledger and the external registry commit together, so any failure after
// the first applied effect unwinds everything in reverse order.
type saga struct {
	undos []func(context.Context) error
}

func (sg *saga) push(undo func(context.Context) error) {
	sg.undos = append(sg.undos, undo)
}

func (sg *saga) unwind(ctx context.Context, s *Service) {
	for i := len(sg.undos) - 1; i >= 0; i-- {
		if err := sg.undos[i](ctx); err != nil {
			// Nothing more can be done in-process; surface for operators.
			s.logger.ErrorContext(ctx, "saga compensation failed", "step", i, "error", err)
		}
	}
}

// Register sells a subdomain under a listed top-level label.
//
// The caller attaches payment; anything above the listed price is returned at
// once, the referral fee (when one applies) goes to the referrer, and the
// remainder goes to the listing owner. The child node is then provisioned in
// four steps: claimed under the registrar, pointed at the resolver, bound to
// the new owner's address record, and finally handed to the new owner. The
// registrar keeps control until the last step so a prematurely owned node can
// never reject the resolver or address configuration.
//
// owner defaults to caller when zero. A zero referrer, or a referrer equal to
// the listing owner, earns no fee.
func (s *Service) Register(ctx context.Context, caller common.Address, label common.Hash, subdomain string, owner, referrer, resolver common.Address, payment *big.Int) error {
	ctx, span := s.tracer.Start(ctx, "registrar.Register")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveRegisterLatency(time.Since(start)) }()

	if owner == (common.Address{}) {
		owner = caller
	}
	if payment == nil {
		payment = new(big.Int)
	}
	subLabel := ens.LabelHash(subdomain)
	node := ens.SubnodeHash(s.rootNode, label)
	child := ens.SubnodeHash(node, subLabel)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Preconditions, in order. The availability check doubles as the sole
	// admission-control gate against double registration, so it must sit
	// inside the same critical section as provisioning.
	childOwner, err := s.registry.OwnerOf(ctx, child)
	if err != nil {
		s.metrics.IncRegistration("error")
		return fmt.Errorf("owner of %s: %w", child.Hex(), err)
	}
	if childOwner != (common.Address{}) {
		s.metrics.IncRegistration("taken")
		return fmt.Errorf("subdomain %q: %w", subdomain, sentinel.ErrNameTaken)
	}

	d, err := s.domains.Get(ctx, label)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.IncRegistration("error")
		return err
	}
	if !d.Listed(label) {
		s.metrics.IncRegistration("not_listed")
		return fmt.Errorf("label %s: %w", label.Hex(), sentinel.ErrNotListed)
	}

	price := d.Price
	if price == nil {
		price = new(big.Int)
	}
	if payment.Cmp(price) < 0 {
		s.metrics.IncRegistration("underpaid")
		return fmt.Errorf("attached %s below price %s: %w", payment, price, sentinel.ErrUnderpaid)
	}

	if err := s.settleAndProvision(ctx, caller, d, price, payment, referrer, node, subLabel, child, owner, resolver); err != nil {
		s.metrics.IncRegistration("error")
		return err
	}

	s.metrics.IncRegistration("ok")
	s.emit(ctx, events.Event{
		Type:      events.TypeSubdomainRegistered,
		Label:     label,
		Name:      d.Name,
		Subdomain: subdomain,
		Owner:     owner,
		Referrer:  referrer,
		Price:     price,
	})
	if err := s.recent.Push(ctx, recent.Entry{
		Label:        label,
		Name:         d.Name,
		Subdomain:    subdomain,
		Owner:        owner,
		Price:        price,
		RegisteredAt: time.Now(),
	}); err != nil {
		s.logger.WarnContext(ctx, "recent feed push failed", "error", err)
	}
	s.logger.InfoContext(ctx, "subdomain registered",
		"label", label.Hex(), "subdomain", subdomain,
		"owner", owner.Hex(), "price", price.String())
	return nil
}

// settleAndProvision moves value and drives the external registry as one
// compensated unit. Payment moves first so broken external state never leaves
// value stranded mid-provisioning without a refund path.
func (s *Service) settleAndProvision(ctx context.Context, caller common.Address, d registrar.Domain, price, payment *big.Int, referrer common.Address, node, subLabel, child common.Hash, owner, resolver common.Address) (err error) {
	var sg saga
	defer func() {
		if err != nil {
			sg.unwind(ctx, s)
		}
	}()

	// Escrow the attachment. Failure here means the caller never attached the
	// funds; nothing has moved.
	if err = s.ledger.Transfer(ctx, caller, s.registrarAddr, payment); err != nil {
		return fmt.Errorf("attach payment: %w", err)
	}
	sg.push(func(ctx context.Context) error {
		return s.ledger.Transfer(ctx, s.registrarAddr, caller, payment)
	})

	// Overpayment goes straight back.
	if excess := new(big.Int).Sub(payment, price); excess.Sign() > 0 {
		if err = s.ledger.Transfer(ctx, s.registrarAddr, caller, excess); err != nil {
			return fmt.Errorf("refund excess: %w", err)
		}
		sg.push(func(ctx context.Context) error {
			return s.ledger.Transfer(ctx, caller, s.registrarAddr, excess)
		})
	}

	// Referral fee, guarded against self-referral and zero-value transfers.
	fee := new(big.Int)
	if referrer != (common.Address{}) && referrer != d.Owner {
		fee = registrar.ReferralFee(price, d.ReferralFeePPM)
	}
	if fee.Sign() > 0 {
		feeAmount := fee
		if err = s.ledger.Transfer(ctx, s.registrarAddr, referrer, feeAmount); err != nil {
			return fmt.Errorf("pay referrer: %w", err)
		}
		sg.push(func(ctx context.Context) error {
			return s.ledger.Transfer(ctx, referrer, s.registrarAddr, feeAmount)
		})
	}

	// Remainder to the listing owner; a zero remainder is skipped.
	if remainder := new(big.Int).Sub(price, fee); remainder.Sign() > 0 {
		domainOwner := d.Owner
		if err = s.ledger.Transfer(ctx, s.registrarAddr, domainOwner, remainder); err != nil {
			return fmt.Errorf("pay owner: %w", err)
		}
		sg.push(func(ctx context.Context) error {
			return s.ledger.Transfer(ctx, domainOwner, s.registrarAddr, remainder)
		})
	}

	// Provisioning. Claim under the registrar first and hand over last.
	claimed, err := s.registry.SetSubnodeOwner(ctx, node, subLabel, s.registrarAddr)
	if err != nil {
		return fmt.Errorf("claim child node: %w", err)
	}
	if claimed != child {
		err = fmt.Errorf("registry returned child %s, computed %s", claimed.Hex(), child.Hex())
		return err
	}
	sg.push(func(ctx context.Context) error {
		return s.registry.SetOwner(ctx, child, common.Address{})
	})

	if err = s.registry.SetResolver(ctx, child, resolver); err != nil {
		return fmt.Errorf("set child resolver: %w", err)
	}
	sg.push(func(ctx context.Context) error {
		return s.registry.SetResolver(ctx, child, common.Address{})
	})

	if err = s.resolver.SetAddr(ctx, resolver, child, owner); err != nil {
		return fmt.Errorf("bind address record: %w", err)
	}
	sg.push(func(ctx context.Context) error {
		return s.resolver.SetAddr(ctx, resolver, child, common.Address{})
	})

	if err = s.registry.SetOwner(ctx, child, owner); err != nil {
		return fmt.Errorf("hand over child node: %w", err)
	}

	if fee.Sign() > 0 {
		s.metrics.AddDisbursed("referrer", fee)
	}
	if remainder := new(big.Int).Sub(price, fee); remainder.Sign() > 0 {
		s.metrics.AddDisbursed("owner", remainder)
	}
	return nil
}
