// Package service implements the registrar state machine: sale listings for
// top-level labels, the paid subdomain registration protocol, and the legacy
// deed custody paths.
//
// Every mutating entry point runs under one mutex, mirroring the strictly
// serialized execution model of the host ledger: a call's checks and effects
// never interleave with another call's. Failures abort the whole call; the
// registration engine unwinds any partially applied effects before returning.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"namegate/internal/events"
	"namegate/internal/ledger"
	"namegate/internal/naming"
	"namegate/internal/registrar"
	"namegate/internal/registrar/metrics"
	"namegate/internal/registrar/store"
	"namegate/internal/registrar/store/recent"
	"namegate/pkg/ens"
	"namegate/pkg/platform/sentinel"
)

// NeverDue is the sentinel returned by RentDue: rent is not a mechanism this
// registrar implements.
var NeverDue = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Config wires the service's collaborators and identity.
type Config struct {
	// RegistrarAddr is this registrar's own address on the ledger and in the
	// external registry. External registry entries owned by this address mark
	// internal state as authoritative.
	RegistrarAddr common.Address

	// LegacyRegistrarAddr is the legacy auction registrar this one succeeds.
	// Deed custody may not be reclaimed while it still controls the root.
	LegacyRegistrarAddr common.Address

	// RootNode is the top-level node the registrar allocates under.
	RootNode common.Hash

	Registry naming.Registry
	Resolver naming.Resolver
	Deeds    naming.DeedRegistry
	Ledger   ledger.Ledger

	Domains store.DomainStore
	Custody store.CustodyStore

	Publisher events.Publisher // optional
	Metrics   *metrics.Metrics // optional
	Recent    *recent.Feed     // optional
	Logger    *slog.Logger     // optional
}

// Service is the registrar. Zero-value is not usable; construct with New.
type Service struct {
	mu sync.Mutex

	registrarAddr common.Address
	legacyAddr    common.Address
	rootNode      common.Hash

	registry naming.Registry
	resolver naming.Resolver
	deeds    naming.DeedRegistry
	ledger   ledger.Ledger

	domains store.DomainStore
	custody store.CustodyStore

	publisher events.Publisher
	metrics   *metrics.Metrics
	recent    *recent.Feed
	logger    *slog.Logger
	tracer    trace.Tracer
}

func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registrarAddr: cfg.RegistrarAddr,
		legacyAddr:    cfg.LegacyRegistrarAddr,
		rootNode:      cfg.RootNode,
		registry:      cfg.Registry,
		resolver:      cfg.Resolver,
		deeds:         cfg.Deeds,
		ledger:        cfg.Ledger,
		domains:       cfg.Domains,
		custody:       cfg.Custody,
		publisher:     cfg.Publisher,
		metrics:       cfg.Metrics,
		recent:        cfg.Recent,
		logger:        logger,
		tracer:        otel.Tracer("namegate/registrar"),
	}
}

// Controller returns the recognized controller for a top-level label: the
// external registry's owner for the label's node, except that when the
// registrar itself holds the node, the internal listing's owner is the
// authority.
func (s *Service) Controller(ctx context.Context, label common.Hash) (common.Address, error) {
	node := ens.SubnodeHash(s.rootNode, label)
	ext, err := s.registry.OwnerOf(ctx, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("owner of %s: %w", node.Hex(), err)
	}
	if ext != s.registrarAddr {
		return ext, nil
	}
	d, err := s.domains.Get(ctx, label)
	if errors.Is(err, sentinel.ErrNotFound) {
		return common.Address{}, nil
	}
	if err != nil {
		return common.Address{}, err
	}
	return d.Owner, nil
}

// requireController gates a mutating call on label.
func (s *Service) requireController(ctx context.Context, caller common.Address, label common.Hash) error {
	ctrl, err := s.Controller(ctx, label)
	if err != nil {
		return err
	}
	if ctrl == (common.Address{}) || ctrl != caller {
		return fmt.Errorf("label %s: caller %s: %w", label.Hex(), caller.Hex(), sentinel.ErrNotAuthorized)
	}
	return nil
}

// ConfigureDomain lists name for sale, or updates an existing listing. Price
// and fee rate are always reset to the supplied values; the owner follows the
// caller. Repeating an identical call is a no-op in effect.
func (s *Service) ConfigureDomain(ctx context.Context, caller common.Address, name string, price *big.Int, referralFeePPM uint32) error {
	if referralFeePPM > registrar.PPMDenominator {
		return fmt.Errorf("referral fee %d exceeds %d ppm", referralFeePPM, registrar.PPMDenominator)
	}
	if price == nil {
		price = new(big.Int)
	}
	label := ens.LabelHash(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireController(ctx, caller, label); err != nil {
		return err
	}
	d, err := s.domains.Get(ctx, label)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	d.Name = name
	d.Owner = caller
	d.Price = new(big.Int).Set(price)
	d.ReferralFeePPM = referralFeePPM
	if err := s.domains.Put(ctx, label, d); err != nil {
		return fmt.Errorf("save listing: %w", err)
	}

	s.metrics.IncConfigured()
	s.emit(ctx, events.Event{
		Type:  events.TypeDomainConfigured,
		Label: label,
		Name:  name,
		Owner: caller,
		Price: price,
	})
	s.logger.InfoContext(ctx, "domain configured",
		"label", label.Hex(), "name", name, "price", price.String(), "fee_ppm", referralFeePPM)
	return nil
}

// UnlistDomain removes the sale listing without touching external ownership.
// The slot survives with the reconciled controller as owner so later
// authorization checks keep resolving.
func (s *Service) UnlistDomain(ctx context.Context, caller common.Address, name string) error {
	label := ens.LabelHash(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireController(ctx, caller, label); err != nil {
		return err
	}
	d := registrar.Domain{
		Owner: caller,
		Price: new(big.Int),
	}
	if err := s.domains.Put(ctx, label, d); err != nil {
		return fmt.Errorf("clear listing: %w", err)
	}

	s.metrics.IncUnlisted()
	s.emit(ctx, events.Event{
		Type:  events.TypeDomainUnlisted,
		Label: label,
		Name:  name,
		Owner: caller,
	})
	s.logger.InfoContext(ctx, "domain unlisted", "label", label.Hex(), "name", name)
	return nil
}

// Transfer reassigns the internal listing owner. External registry ownership
// is untouched.
func (s *Service) Transfer(ctx context.Context, caller common.Address, name string, newOwner common.Address) error {
	label := ens.LabelHash(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireController(ctx, caller, label); err != nil {
		return err
	}
	d, err := s.domains.Get(ctx, label)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	d.Owner = newOwner
	if d.Price == nil {
		d.Price = new(big.Int)
	}
	if err := s.domains.Put(ctx, label, d); err != nil {
		return fmt.Errorf("save transfer: %w", err)
	}

	s.emit(ctx, events.Event{
		Type:  events.TypeDomainTransferred,
		Label: label,
		Name:  d.Name,
		Owner: newOwner,
	})
	return nil
}

// SetResolver points the name's node at a resolver in the external registry.
func (s *Service) SetResolver(ctx context.Context, caller common.Address, name string, resolver common.Address) error {
	label := ens.LabelHash(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireController(ctx, caller, label); err != nil {
		return err
	}
	node := ens.SubnodeHash(s.rootNode, label)
	if err := s.registry.SetResolver(ctx, node, resolver); err != nil {
		return fmt.Errorf("set resolver: %w", err)
	}
	return nil
}

// Query reconciles external and internal state for an unclaimed child name.
// External state wins: any externally owned child is reported unavailable
// regardless of the internal listing.
func (s *Service) Query(ctx context.Context, label common.Hash, subdomain string) (registrar.QueryResult, error) {
	node := ens.SubnodeHash(s.rootNode, label)
	child := ens.SubnodeHash(node, ens.LabelHash(subdomain))

	owner, err := s.registry.OwnerOf(ctx, child)
	if err != nil {
		return registrar.QueryResult{}, fmt.Errorf("owner of %s: %w", child.Hex(), err)
	}
	if owner != (common.Address{}) {
		return registrar.QueryResult{Price: new(big.Int), Rent: new(big.Int)}, nil
	}

	d, err := s.domains.Get(ctx, label)
	if errors.Is(err, sentinel.ErrNotFound) {
		return registrar.QueryResult{Price: new(big.Int), Rent: new(big.Int)}, nil
	}
	if err != nil {
		return registrar.QueryResult{}, err
	}
	price := new(big.Int)
	if d.Price != nil {
		price.Set(d.Price)
	}
	return registrar.QueryResult{
		Name:           d.Name,
		Price:          price,
		Rent:           new(big.Int),
		ReferralFeePPM: d.ReferralFeePPM,
	}, nil
}

// RentDue is a deliberate stub: names sold here never owe rent.
func (s *Service) RentDue(ctx context.Context, label common.Hash, subdomain string) (time.Time, error) {
	return NeverDue, nil
}

// PayRent is a deliberate stub and always fails.
func (s *Service) PayRent(ctx context.Context, caller common.Address, label common.Hash, subdomain string, payment *big.Int) error {
	return fmt.Errorf("rent: %w", sentinel.ErrUnsupported)
}

// SupportsInterface answers the standard capability probe.
func (s *Service) SupportsInterface(id ens.InterfaceID) bool {
	return id == ens.InterfaceMetaID || id == ens.RegistrarInterfaceID
}

// emit publishes fail-open: a sink outage never rolls back committed state.
func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "type", event.Type, "error", err)
	}
}
