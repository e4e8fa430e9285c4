package service

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"namegate/internal/events"
	"namegate/pkg/ens"
	"namegate/pkg/platform/sentinel"
)

func (s *ServiceSuite) childNode(label common.Hash, subdomain string) common.Hash {
	node := ens.SubnodeHash(s.rootNode, label)
	return ens.SubnodeHash(node, ens.LabelHash(subdomain))
}

func (s *ServiceSuite) TestRegisterEndToEnd() {
	// List "example" at price 10 with a 10% referral fee, then register
	// "alice" as carol with referrer R and exact payment.
	label := s.listDomain("example", aliceAddr, 10, 100_000)
	s.ledger.Mint(carolAddr, big.NewInt(10))

	err := s.svc.Register(s.ctx, carolAddr, label, "alice", common.Address{}, referrerAddr, resolverAddr, big.NewInt(10))
	s.Require().NoError(err)

	s.Run("proceeds split exactly", func() {
		s.Equal(int64(1), s.balance(referrerAddr).Int64())
		s.Equal(int64(9), s.balance(aliceAddr).Int64())
		s.Equal(int64(0), s.balance(carolAddr).Int64())
		s.Equal(int64(0), s.balance(registrarAddr).Int64())
	})

	s.Run("child provisioned for the caller", func() {
		child := s.childNode(label, "alice")
		owner, err := s.registry.OwnerOf(s.ctx, child)
		s.Require().NoError(err)
		s.Equal(carolAddr, owner)
		s.Equal(resolverAddr, s.registry.ResolverOf(child))
		s.Equal(carolAddr, s.resolver.Addr(resolverAddr, child))
	})

	s.Run("completion event carries the sale", func() {
		evs := s.publisher.Events()
		last := evs[len(evs)-1]
		s.Equal(events.TypeSubdomainRegistered, last.Type)
		s.Equal(label, last.Label)
		s.Equal("alice", last.Subdomain)
		s.Equal(carolAddr, last.Owner)
		s.Equal(referrerAddr, last.Referrer)
		s.Equal(big.NewInt(10), last.Price)
	})

	s.Run("registered child is reported unavailable", func() {
		res, err := s.svc.Query(s.ctx, label, "alice")
		s.Require().NoError(err)
		s.Empty(res.Name)
	})
}

func (s *ServiceSuite) TestRegisterDesignatedOwner() {
	label := s.listDomain("example", aliceAddr, 10, 0)
	s.ledger.Mint(carolAddr, big.NewInt(10))

	err := s.svc.Register(s.ctx, carolAddr, label, "gift", bobAddr, common.Address{}, resolverAddr, big.NewInt(10))
	s.Require().NoError(err)

	child := s.childNode(label, "gift")
	owner, err := s.registry.OwnerOf(s.ctx, child)
	s.Require().NoError(err)
	s.Equal(bobAddr, owner)
	s.Equal(bobAddr, s.resolver.Addr(resolverAddr, child))
}

func (s *ServiceSuite) TestRegisterPaymentEdges() {
	s.Run("underpayment aborts with nothing moved", func() {
		label := s.listDomain("example", aliceAddr, 10, 0)
		s.ledger.Mint(carolAddr, big.NewInt(9))

		err := s.svc.Register(s.ctx, carolAddr, label, "cheap", common.Address{}, common.Address{}, resolverAddr, big.NewInt(9))
		s.Require().ErrorIs(err, sentinel.ErrUnderpaid)
		s.Equal(int64(9), s.balance(carolAddr).Int64())

		owner, err := s.registry.OwnerOf(s.ctx, s.childNode(label, "cheap"))
		s.Require().NoError(err)
		s.Equal(common.Address{}, owner)
	})

	s.Run("overpayment refunds the difference exactly", func() {
		label := s.listDomain("premium", aliceAddr, 10, 0)
		s.ledger.Mint(bobAddr, big.NewInt(17))

		err := s.svc.Register(s.ctx, bobAddr, label, "extra", common.Address{}, common.Address{}, resolverAddr, big.NewInt(17))
		s.Require().NoError(err)
		s.Equal(int64(7), s.balance(bobAddr).Int64())
		s.Equal(int64(0), s.balance(registrarAddr).Int64())
	})

	s.Run("declared payment exceeding funds aborts cleanly", func() {
		label := s.listDomain("broke", aliceAddr, 10, 0)
		s.ledger.Mint(carolAddr, big.NewInt(3))

		err := s.svc.Register(s.ctx, carolAddr, label, "sub", common.Address{}, common.Address{}, resolverAddr, big.NewInt(10))
		s.Require().ErrorIs(err, sentinel.ErrInsufficientFunds)
		s.Equal(int64(3), s.balance(carolAddr).Int64())
	})

	s.Run("free listing moves no value", func() {
		label := s.listDomain("free", aliceAddr, 0, 100_000)

		err := s.svc.Register(s.ctx, carolAddr, label, "zero", common.Address{}, referrerAddr, resolverAddr, big.NewInt(0))
		s.Require().NoError(err)
		s.Equal(int64(0), s.balance(referrerAddr).Int64())

		owner, err := s.registry.OwnerOf(s.ctx, s.childNode(label, "zero"))
		s.Require().NoError(err)
		s.Equal(carolAddr, owner)
	})
}

func (s *ServiceSuite) TestRegisterReferralGuards() {
	s.Run("fee split is floor of price times rate", func() {
		// 333333 ppm of 10 floors to 3.
		label := s.listDomain("example", aliceAddr, 10, 333_333)
		s.ledger.Mint(carolAddr, big.NewInt(10))

		err := s.svc.Register(s.ctx, carolAddr, label, "sub", common.Address{}, referrerAddr, resolverAddr, big.NewInt(10))
		s.Require().NoError(err)
		s.Equal(int64(3), s.balance(referrerAddr).Int64())
		s.Equal(int64(7), s.balance(aliceAddr).Int64())
	})

	s.Run("self-referral earns nothing", func() {
		label := s.listDomain("selfref", aliceAddr, 10, 100_000)
		s.ledger.Mint(carolAddr, big.NewInt(10))

		err := s.svc.Register(s.ctx, carolAddr, label, "sub", common.Address{}, aliceAddr, resolverAddr, big.NewInt(10))
		s.Require().NoError(err)
		s.Equal(int64(10), s.balance(aliceAddr).Int64())
	})

	s.Run("zero fee rate pays the owner in full", func() {
		label := s.listDomain("nofee", aliceAddr, 10, 0)
		s.ledger.Mint(carolAddr, big.NewInt(10))

		err := s.svc.Register(s.ctx, carolAddr, label, "sub", common.Address{}, referrerAddr, resolverAddr, big.NewInt(10))
		s.Require().NoError(err)
		s.Equal(int64(0), s.balance(referrerAddr).Int64())
		s.Equal(int64(10), s.balance(aliceAddr).Int64())
	})

	s.Run("hundred percent fee leaves owner a no-op transfer", func() {
		label := s.listDomain("allfee", aliceAddr, 10, 1_000_000)
		s.ledger.Mint(carolAddr, big.NewInt(10))

		err := s.svc.Register(s.ctx, carolAddr, label, "sub", common.Address{}, referrerAddr, resolverAddr, big.NewInt(10))
		s.Require().NoError(err)
		s.Equal(int64(10), s.balance(referrerAddr).Int64())
		s.Equal(int64(0), s.balance(aliceAddr).Int64())
	})
}

func (s *ServiceSuite) TestRegisterTwiceConflicts() {
	label := s.listDomain("example", aliceAddr, 10, 100_000)
	s.ledger.Mint(carolAddr, big.NewInt(10))
	s.ledger.Mint(bobAddr, big.NewInt(10))

	err := s.svc.Register(s.ctx, carolAddr, label, "alice", common.Address{}, referrerAddr, resolverAddr, big.NewInt(10))
	s.Require().NoError(err)

	err = s.svc.Register(s.ctx, bobAddr, label, "alice", common.Address{}, common.Address{}, resolverAddr, big.NewInt(10))
	s.Require().ErrorIs(err, sentinel.ErrNameTaken)

	// Loser keeps funds; winner's provisioning is untouched.
	s.Equal(int64(10), s.balance(bobAddr).Int64())
	child := s.childNode(label, "alice")
	owner, err := s.registry.OwnerOf(s.ctx, child)
	s.Require().NoError(err)
	s.Equal(carolAddr, owner)
	s.Equal(resolverAddr, s.registry.ResolverOf(child))
	s.Equal(carolAddr, s.resolver.Addr(resolverAddr, child))
}

// failingResolver rejects address bindings, forcing the saga to unwind after
// payment and partial provisioning.
type failingResolver struct{}

func (failingResolver) SetAddr(context.Context, common.Address, common.Hash, common.Address) error {
	return errors.New("resolver unreachable")
}

func (s *ServiceSuite) TestRegisterUnwindsOnProvisioningFailure() {
	label := s.listDomain("example", aliceAddr, 10, 100_000)
	s.ledger.Mint(carolAddr, big.NewInt(17))
	s.svc.resolver = failingResolver{}

	err := s.svc.Register(s.ctx, carolAddr, label, "alice", common.Address{}, referrerAddr, resolverAddr, big.NewInt(17))
	s.Require().Error(err)

	// Every effect is compensated: balances restored, node unowned,
	// resolver cleared.
	s.Equal(int64(17), s.balance(carolAddr).Int64())
	s.Equal(int64(0), s.balance(aliceAddr).Int64())
	s.Equal(int64(0), s.balance(referrerAddr).Int64())
	s.Equal(int64(0), s.balance(registrarAddr).Int64())

	child := s.childNode(label, "alice")
	owner, err := s.registry.OwnerOf(s.ctx, child)
	s.Require().NoError(err)
	s.Equal(common.Address{}, owner)
	s.Equal(common.Address{}, s.registry.ResolverOf(child))

	// The name remains available once the resolver recovers.
	s.svc.resolver = s.resolver
	err = s.svc.Register(s.ctx, carolAddr, label, "alice", common.Address{}, common.Address{}, resolverAddr, big.NewInt(10))
	s.Require().NoError(err)
}
