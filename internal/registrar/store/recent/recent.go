// Package recent keeps a bounded, non-authoritative feed of completed
// registrations in redis for off-chain introspection. The feed is optional:
// a nil *Feed disables it without branching at call sites.
package recent

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

const defaultKey = "namegate:registrations:recent"

// Entry is one completed registration.
type Entry struct {
	Label        common.Hash    `json:"label"`
	Name         string         `json:"name"`
	Subdomain    string         `json:"subdomain"`
	Owner        common.Address `json:"owner"`
	Price        *big.Int       `json:"price"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// Feed is a redis-backed LPUSH/LTRIM ring of recent entries.
type Feed struct {
	client *redis.Client
	key    string
	max    int64
}

func New(client *redis.Client, max int64) *Feed {
	if max <= 0 {
		max = 100
	}
	return &Feed{client: client, key: defaultKey, max: max}
}

// Push prepends an entry and trims the feed to its bound.
func (f *Feed) Push(ctx context.Context, entry Entry) error {
	if f == nil || f.client == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal feed entry: %w", err)
	}
	pipe := f.client.Pipeline()
	pipe.LPush(ctx, f.key, payload)
	pipe.LTrim(ctx, f.key, 0, f.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push feed entry: %w", err)
	}
	return nil
}

// List returns up to n most recent entries, newest first.
func (f *Feed) List(ctx context.Context, n int64) ([]Entry, error) {
	if f == nil || f.client == nil {
		return nil, nil
	}
	if n <= 0 || n > f.max {
		n = f.max
	}
	raw, err := f.client.LRange(ctx, f.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode feed entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
