package service

import (
	"github.com/ethereum/go-ethereum/common"

	"namegate/internal/naming"
	"namegate/pkg/ens"
	"namegate/pkg/platform/sentinel"
)

// seedDeed places a legacy custody token for name in the registrar's hands,
// previously held by prev, and marks the root as still run by the legacy
// registrar.
func (s *ServiceSuite) seedDeed(name string, prev common.Address) common.Hash {
	label := ens.LabelHash(name)
	s.deeds.Seed(label, naming.Deed{Holder: registrarAddr, PreviousHolder: prev})
	s.Require().NoError(s.registry.SetOwner(s.ctx, s.rootNode, legacyAddr))
	return label
}

// installSuccessor replaces the legacy registrar as root controller.
func (s *ServiceSuite) installSuccessor() {
	s.Require().NoError(s.registry.SetOwner(s.ctx, s.rootNode, registrarAddr))
}

func (s *ServiceSuite) TestUltimateOwner() {
	s.Run("falls back to previous holder", func() {
		label := s.seedDeed("vintage", aliceAddr)
		owner, err := s.svc.UltimateOwner(s.ctx, label)
		s.Require().NoError(err)
		s.Equal(aliceAddr, owner)
	})

	s.Run("override is authoritative once set", func() {
		label := s.seedDeed("vintage", aliceAddr)
		s.Require().NoError(s.svc.SetCustodyOverride(s.ctx, aliceAddr, label, bobAddr))

		owner, err := s.svc.UltimateOwner(s.ctx, label)
		s.Require().NoError(err)
		s.Equal(bobAddr, owner)
	})

	s.Run("none when registrar does not hold custody", func() {
		label := ens.LabelHash("strange")
		s.deeds.Seed(label, naming.Deed{Holder: carolAddr, PreviousHolder: aliceAddr})

		owner, err := s.svc.UltimateOwner(s.ctx, label)
		s.Require().NoError(err)
		s.Equal(common.Address{}, owner)
	})
}

func (s *ServiceSuite) TestSetCustodyOverride() {
	label := s.seedDeed("vintage", aliceAddr)

	s.Run("only ultimate owner may override", func() {
		err := s.svc.SetCustodyOverride(s.ctx, bobAddr, label, bobAddr)
		s.Require().ErrorIs(err, sentinel.ErrNotAuthorized)
	})

	s.Run("registrar address is forbidden", func() {
		err := s.svc.SetCustodyOverride(s.ctx, aliceAddr, label, registrarAddr)
		s.Require().ErrorIs(err, sentinel.ErrSelfOverride)
	})

	s.Run("current ultimate owner can re-override any number of times", func() {
		s.Require().NoError(s.svc.SetCustodyOverride(s.ctx, aliceAddr, label, bobAddr))
		// Alice is no longer the authority.
		err := s.svc.SetCustodyOverride(s.ctx, aliceAddr, label, carolAddr)
		s.Require().ErrorIs(err, sentinel.ErrNotAuthorized)
		// Bob is.
		s.Require().NoError(s.svc.SetCustodyOverride(s.ctx, bobAddr, label, carolAddr))

		owner, err := s.svc.UltimateOwner(s.ctx, label)
		s.Require().NoError(err)
		s.Equal(carolAddr, owner)
	})
}

func (s *ServiceSuite) TestReclaimCustody() {
	s.Run("refused while still delegated to the legacy registrar", func() {
		label := s.seedDeed("vintage", aliceAddr)
		err := s.svc.ReclaimCustody(s.ctx, aliceAddr, label)
		s.Require().ErrorIs(err, sentinel.ErrStillDelegated)
	})

	s.Run("succeeds once a successor controls the root", func() {
		label := s.seedDeed("vintage", aliceAddr)
		s.installSuccessor()

		s.Require().NoError(s.svc.ReclaimCustody(s.ctx, aliceAddr, label))

		deed, err := s.deeds.Entries(s.ctx, label)
		s.Require().NoError(err)
		s.Equal(aliceAddr, deed.Holder)
	})

	s.Run("surrender is terminal", func() {
		label := s.seedDeed("vintage", aliceAddr)
		s.installSuccessor()
		s.Require().NoError(s.svc.ReclaimCustody(s.ctx, aliceAddr, label))

		// Hand the token back to the registrar; the label stays closed.
		s.deeds.Seed(label, naming.Deed{Holder: registrarAddr, PreviousHolder: aliceAddr})
		s.Require().ErrorIs(s.svc.ReclaimCustody(s.ctx, aliceAddr, label), sentinel.ErrSurrendered)
		s.Require().ErrorIs(s.svc.SetCustodyOverride(s.ctx, aliceAddr, label, bobAddr), sentinel.ErrSurrendered)
		s.Require().ErrorIs(s.svc.AssignExternalOwnership(s.ctx, aliceAddr, label, bobAddr), sentinel.ErrSurrendered)
	})
}

func (s *ServiceSuite) TestAssignExternalOwnership() {
	s.Run("writes external ownership and surrenders the label", func() {
		label := s.seedDeed("vintage", aliceAddr)

		s.Require().NoError(s.svc.AssignExternalOwnership(s.ctx, aliceAddr, label, bobAddr))

		node := ens.SubnodeHash(s.rootNode, label)
		owner, err := s.registry.OwnerOf(s.ctx, node)
		s.Require().NoError(err)
		s.Equal(bobAddr, owner)

		err = s.svc.AssignExternalOwnership(s.ctx, aliceAddr, label, carolAddr)
		s.Require().ErrorIs(err, sentinel.ErrSurrendered)
	})

	s.Run("only ultimate owner may assign", func() {
		label := s.seedDeed("other", aliceAddr)
		err := s.svc.AssignExternalOwnership(s.ctx, bobAddr, label, bobAddr)
		s.Require().ErrorIs(err, sentinel.ErrNotAuthorized)
	})
}
