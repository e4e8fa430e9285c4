package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"

	"namegate/internal/registrar"
	"namegate/pkg/platform/sentinel"
)

// PostgresStore persists listings and custody entries. Both maps are
// single-row upserts keyed by label hash; prices are NUMERIC(78,0) so the full
// minor-unit range survives round trips.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the registrar tables when they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS domains (
			label            BYTEA PRIMARY KEY,
			name             TEXT NOT NULL,
			owner            BYTEA NOT NULL,
			price            NUMERIC(78,0) NOT NULL,
			referral_fee_ppm BIGINT NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS custody_entries (
			label       BYTEA PRIMARY KEY,
			override    BYTEA NOT NULL,
			surrendered BOOLEAN NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure registrar schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, label common.Hash) (registrar.Domain, error) {
	const query = `
		SELECT name, owner, price::text, referral_fee_ppm
		FROM domains WHERE label = $1`
	var (
		d        registrar.Domain
		owner    []byte
		priceStr string
		feePPM   int64
	)
	err := s.db.QueryRowContext(ctx, query, label.Bytes()).Scan(&d.Name, &owner, &priceStr, &feePPM)
	if errors.Is(err, sql.ErrNoRows) {
		return registrar.Domain{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registrar.Domain{}, fmt.Errorf("select domain: %w", err)
	}
	d.Owner = common.BytesToAddress(owner)
	price, ok := new(big.Int).SetString(priceStr, 10)
	if !ok {
		return registrar.Domain{}, fmt.Errorf("malformed price %q for label %s", priceStr, label.Hex())
	}
	d.Price = price
	d.ReferralFeePPM = uint32(feePPM)
	return d, nil
}

func (s *PostgresStore) Put(ctx context.Context, label common.Hash, domain registrar.Domain) error {
	const query = `
		INSERT INTO domains (label, name, owner, price, referral_fee_ppm, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		ON CONFLICT (label) DO UPDATE SET
			name = EXCLUDED.name,
			owner = EXCLUDED.owner,
			price = EXCLUDED.price,
			referral_fee_ppm = EXCLUDED.referral_fee_ppm,
			updated_at = EXCLUDED.updated_at`
	price := domain.Price
	if price == nil {
		price = new(big.Int)
	}
	_, err := s.db.ExecContext(ctx, query,
		label.Bytes(), domain.Name, domain.Owner.Bytes(),
		price.String(), int64(domain.ReferralFeePPM), time.Now())
	if err != nil {
		return fmt.Errorf("upsert domain: %w", err)
	}
	return nil
}

// PostgresCustodyStore shares the connection with PostgresStore; split out so
// each store satisfies exactly one interface.
type PostgresCustodyStore struct {
	db *sql.DB
}

func NewPostgresCustodyStore(db *sql.DB) *PostgresCustodyStore {
	return &PostgresCustodyStore{db: db}
}

func (s *PostgresCustodyStore) Get(ctx context.Context, label common.Hash) (registrar.CustodyEntry, error) {
	const query = `SELECT override, surrendered FROM custody_entries WHERE label = $1`
	var (
		e        registrar.CustodyEntry
		override []byte
	)
	err := s.db.QueryRowContext(ctx, query, label.Bytes()).Scan(&override, &e.Surrendered)
	if errors.Is(err, sql.ErrNoRows) {
		return registrar.CustodyEntry{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registrar.CustodyEntry{}, fmt.Errorf("select custody entry: %w", err)
	}
	e.Override = common.BytesToAddress(override)
	return e, nil
}

func (s *PostgresCustodyStore) Put(ctx context.Context, label common.Hash, entry registrar.CustodyEntry) error {
	const query = `
		INSERT INTO custody_entries (label, override, surrendered, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (label) DO UPDATE SET
			override = EXCLUDED.override,
			surrendered = EXCLUDED.surrendered,
			updated_at = EXCLUDED.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		label.Bytes(), entry.Override.Bytes(), entry.Surrendered, time.Now())
	if err != nil {
		return fmt.Errorf("upsert custody entry: %w", err)
	}
	return nil
}
