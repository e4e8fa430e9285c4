package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"namegate/internal/events"
	"namegate/internal/registrar"
	"namegate/pkg/platform/sentinel"
)

// Legacy deed custody. Labels whose custody token the legacy registry shows as
// held by this registrar are controlled by an "ultimate owner": the custody
// override when one has been written, else the token's previous holder. The
// reclaim and assignment paths are one-shot: both leave the label in the
// terminal Surrendered state, after which every deed operation on it refuses.

// UltimateOwner resolves the authority for a deed-held label. The zero address
// means the registrar does not custody this label.
func (s *Service) UltimateOwner(ctx context.Context, label common.Hash) (common.Address, error) {
	deed, err := s.deeds.Entries(ctx, label)
	if err != nil {
		return common.Address{}, fmt.Errorf("deed entries for %s: %w", label.Hex(), err)
	}
	if deed.Holder != s.registrarAddr {
		return common.Address{}, nil
	}
	entry, err := s.custodyEntry(ctx, label)
	if err != nil {
		return common.Address{}, err
	}
	if entry.Override != (common.Address{}) {
		return entry.Override, nil
	}
	return deed.PreviousHolder, nil
}

// SetCustodyOverride rewrites the ultimate owner for a deed-held label. The
// registrar's own address is forbidden: it would make the label's true owner
// unreachable.
func (s *Service) SetCustodyOverride(ctx context.Context, caller common.Address, label common.Hash, newOwner common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.requireUltimateOwner(ctx, caller, label)
	if err != nil {
		return err
	}
	if newOwner == s.registrarAddr {
		return fmt.Errorf("label %s: %w", label.Hex(), sentinel.ErrSelfOverride)
	}
	entry.Override = newOwner
	if err := s.custody.Put(ctx, label, entry); err != nil {
		return fmt.Errorf("save custody override: %w", err)
	}

	s.emit(ctx, events.Event{
		Type:  events.TypeCustodyOverridden,
		Label: label,
		Owner: newOwner,
	})
	s.logger.InfoContext(ctx, "custody override set", "label", label.Hex(), "owner", newOwner.Hex())
	return nil
}

// ReclaimCustody hands the custody token back to the ultimate owner. Refused
// while the legacy registrar still controls the root: custody in active
// delegation is not reclaimable. Terminal for the label.
func (s *Service) ReclaimCustody(ctx context.Context, caller common.Address, label common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.requireUltimateOwner(ctx, caller, label)
	if err != nil {
		return err
	}
	root, err := s.deeds.RootNode(ctx)
	if err != nil {
		return fmt.Errorf("legacy root node: %w", err)
	}
	rootOwner, err := s.registry.OwnerOf(ctx, root)
	if err != nil {
		return fmt.Errorf("owner of root %s: %w", root.Hex(), err)
	}
	if rootOwner == s.legacyAddr {
		return fmt.Errorf("label %s: %w", label.Hex(), sentinel.ErrStillDelegated)
	}
	if err := s.deeds.Transfer(ctx, label, caller); err != nil {
		return fmt.Errorf("transfer custody token: %w", err)
	}
	entry.Surrendered = true
	if err := s.custody.Put(ctx, label, entry); err != nil {
		return fmt.Errorf("mark surrendered: %w", err)
	}

	s.emit(ctx, events.Event{
		Type:  events.TypeCustodyReclaimed,
		Label: label,
		Owner: caller,
	})
	s.logger.InfoContext(ctx, "custody reclaimed", "label", label.Hex(), "owner", caller.Hex())
	return nil
}

// AssignExternalOwnership writes external registry ownership for the label's
// node directly. Terminal for the label: this is the deliberate one-shot
// escape hatch out of registrar custody.
func (s *Service) AssignExternalOwnership(ctx context.Context, caller common.Address, label common.Hash, newOwner common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.requireUltimateOwner(ctx, caller, label)
	if err != nil {
		return err
	}
	root, err := s.deeds.RootNode(ctx)
	if err != nil {
		return fmt.Errorf("legacy root node: %w", err)
	}
	if _, err := s.registry.SetSubnodeOwner(ctx, root, label, newOwner); err != nil {
		return fmt.Errorf("assign external ownership: %w", err)
	}
	entry.Surrendered = true
	if err := s.custody.Put(ctx, label, entry); err != nil {
		return fmt.Errorf("mark surrendered: %w", err)
	}

	s.emit(ctx, events.Event{
		Type:  events.TypeOwnershipAssigned,
		Label: label,
		Owner: newOwner,
	})
	s.logger.InfoContext(ctx, "external ownership assigned", "label", label.Hex(), "owner", newOwner.Hex())
	return nil
}

// requireUltimateOwner gates a deed operation: the label must not be
// surrendered and the caller must be its current ultimate owner.
func (s *Service) requireUltimateOwner(ctx context.Context, caller common.Address, label common.Hash) (registrar.CustodyEntry, error) {
	entry, err := s.custodyEntry(ctx, label)
	if err != nil {
		return registrar.CustodyEntry{}, err
	}
	if entry.Surrendered {
		return registrar.CustodyEntry{}, fmt.Errorf("label %s: %w", label.Hex(), sentinel.ErrSurrendered)
	}
	owner, err := s.UltimateOwner(ctx, label)
	if err != nil {
		return registrar.CustodyEntry{}, err
	}
	if owner == (common.Address{}) || owner != caller {
		return registrar.CustodyEntry{}, fmt.Errorf("label %s: caller %s: %w", label.Hex(), caller.Hex(), sentinel.ErrNotAuthorized)
	}
	return entry, nil
}

func (s *Service) custodyEntry(ctx context.Context, label common.Hash) (registrar.CustodyEntry, error) {
	entry, err := s.custody.Get(ctx, label)
	if errors.Is(err, sentinel.ErrNotFound) {
		return registrar.CustodyEntry{}, nil
	}
	if err != nil {
		return registrar.CustodyEntry{}, err
	}
	return entry, nil
}
