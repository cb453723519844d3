// Package persist gives a host process somewhere durable to keep a chain's
// budget balance and receipt-chain tip between process restarts. The kernel
// itself is pure and holds nothing — persistence is strictly a host
// concern, per spec §9's "global default verifier and bridge singletons"
// caution against smuggling mutable state into the kernel. Adapted from the
// teacher's pkg/budget Storage/PostgresStorage/MemoryStorage split: same
// upsert-by-key shape, generalized from per-tenant daily/monthly cents
// counters to per-chain Q budget balances and chain tips.
package persist

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"

	"github.com/mindburn-labs/gtk-core/pkg/hashing"
)

// ChainRecord is the durable state a host must recover to resume governing
// a chain: its current budget balance (a raw Q numerator), its diagnostic
// total_consumed counter, its chain tip, and the id of the last accepted
// receipt (the chain-link field every subsequent receipt must match).
type ChainRecord struct {
	ChainID         string
	BudgetRaw       int64
	TotalConsumed   int64
	ChainTip        hashing.Digest
	LastReceiptID   string
	ParamsVersion   string
}

// Store is the persistence contract pkg/budget.Manager and pkg/step callers
// use to recover a chain's state across restarts.
type Store interface {
	Get(ctx context.Context, chainID string) (*ChainRecord, error)
	Put(ctx context.Context, rec *ChainRecord) error
}

// MemoryStore is an in-process Store, for tests and single-node hosts that
// accept losing state on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*ChainRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*ChainRecord)}
}

func (s *MemoryStore) Get(_ context.Context, chainID string) (*ChainRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[chainID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) Put(_ context.Context, rec *ChainRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ChainID] = &cp
	return nil
}

// PostgresStore implements Store against a `chain_budgets` table, upserting
// on chain_id the way the teacher's PostgresStorage upserts on tenant_id.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open *sql.DB. The caller owns the connection's
// lifecycle (and its DSN/credentials); this package never dials itself.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, chainID string) (*ChainRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT chain_id, budget_raw, total_consumed, chain_tip, last_receipt_id, params_version
		 FROM chain_budgets WHERE chain_id = $1`, chainID)

	var rec ChainRecord
	var tipHex string
	err := row.Scan(&rec.ChainID, &rec.BudgetRaw, &rec.TotalConsumed, &tipHex, &rec.LastReceiptID, &rec.ParamsVersion)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persist: get chain %q: %w", chainID, err)
	}
	rec.ChainTip, err = hashing.DigestFromHex(tipHex)
	if err != nil {
		return nil, fmt.Errorf("persist: chain %q has a malformed stored tip: %w", chainID, err)
	}
	return &rec, nil
}

func (s *PostgresStore) Put(ctx context.Context, rec *ChainRecord) error {
	query := `
		INSERT INTO chain_budgets (chain_id, budget_raw, total_consumed, chain_tip, last_receipt_id, params_version)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chain_id) DO UPDATE SET
			budget_raw = EXCLUDED.budget_raw,
			total_consumed = EXCLUDED.total_consumed,
			chain_tip = EXCLUDED.chain_tip,
			last_receipt_id = EXCLUDED.last_receipt_id,
			params_version = EXCLUDED.params_version
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ChainID, rec.BudgetRaw, rec.TotalConsumed, rec.ChainTip.Hex(), rec.LastReceiptID, rec.ParamsVersion)
	if err != nil {
		return fmt.Errorf("persist: put chain %q: %w", rec.ChainID, err)
	}
	return nil
}
