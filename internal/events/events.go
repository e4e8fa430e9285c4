// Package events carries the registrar's event stream. Events are emitted
// after a call commits; publishing is fail-open so a sink outage never rolls
// back registrar state.
package events

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type Type string

const (
	TypeDomainConfigured    Type = "domain_configured"
	TypeDomainUnlisted      Type = "domain_unlisted"
	TypeDomainTransferred   Type = "domain_transferred"
	TypeSubdomainRegistered Type = "subdomain_registered"
	TypeCustodyOverridden   Type = "custody_overridden"
	TypeCustodyReclaimed    Type = "custody_reclaimed"
	TypeOwnershipAssigned   Type = "ownership_assigned"
)

// Event is emitted from registrar logic. Keep it transport-agnostic so sinks
// can fan out.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      Type           `json:"type"`
	Label     common.Hash    `json:"label"`
	Name      string         `json:"name,omitempty"`
	Subdomain string         `json:"subdomain,omitempty"`
	Owner     common.Address `json:"owner,omitempty"`
	Referrer  common.Address `json:"referrer,omitempty"`
	Price     *big.Int       `json:"price,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Publisher delivers registrar events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Fill stamps identity and time onto an event before publishing.
func Fill(event Event) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}
