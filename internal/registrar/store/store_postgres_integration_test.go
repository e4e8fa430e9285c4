//go:build integration

package store_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"namegate/internal/registrar"
	"namegate/internal/registrar/store"
	"namegate/pkg/ens"
	"namegate/pkg/platform/sentinel"
	"namegate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	domains  *store.PostgresStore
	custody  *store.PostgresCustodyStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.domains = store.NewPostgresStore(s.postgres.DB)
	s.custody = store.NewPostgresCustodyStore(s.postgres.DB)
	s.Require().NoError(s.domains.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "domains", "custody_entries")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestDomainRoundTrip() {
	ctx := context.Background()
	label := ens.LabelHash("example")

	_, err := s.domains.Get(ctx, label)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	d := registrar.Domain{
		Name:           "example",
		Owner:          common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Price:          big.NewInt(42),
		ReferralFeePPM: 100_000,
	}
	s.Require().NoError(s.domains.Put(ctx, label, d))

	got, err := s.domains.Get(ctx, label)
	s.Require().NoError(err)
	s.Equal(d, got)
}

func (s *PostgresStoreSuite) TestDomainUpsert() {
	ctx := context.Background()
	label := ens.LabelHash("example")

	s.Require().NoError(s.domains.Put(ctx, label, registrar.Domain{Name: "example", Price: big.NewInt(1)}))
	s.Require().NoError(s.domains.Put(ctx, label, registrar.Domain{Name: "", Price: new(big.Int)}))

	got, err := s.domains.Get(ctx, label)
	s.Require().NoError(err)
	s.Empty(got.Name)
	s.False(got.Listed(label))
}

func (s *PostgresStoreSuite) TestHugePriceSurvives() {
	ctx := context.Background()
	label := ens.LabelHash("whale")

	// Larger than uint64: full minor-unit range must round trip.
	price, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	s.Require().True(ok)
	s.Require().NoError(s.domains.Put(ctx, label, registrar.Domain{Name: "whale", Price: price}))

	got, err := s.domains.Get(ctx, label)
	s.Require().NoError(err)
	s.Equal(price, got.Price)
}

func (s *PostgresStoreSuite) TestCustodyRoundTrip() {
	ctx := context.Background()
	label := ens.LabelHash("vintage")

	_, err := s.custody.Get(ctx, label)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	entry := registrar.CustodyEntry{
		Override: common.HexToAddress("0x0000000000000000000000000000000000000002"),
	}
	s.Require().NoError(s.custody.Put(ctx, label, entry))

	got, err := s.custody.Get(ctx, label)
	s.Require().NoError(err)
	s.Equal(entry, got)

	entry.Surrendered = true
	s.Require().NoError(s.custody.Put(ctx, label, entry))
	got, err = s.custody.Get(ctx, label)
	s.Require().NoError(err)
	s.True(got.Surrendered)
}
