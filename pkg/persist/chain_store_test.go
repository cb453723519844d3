package persist

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/mindburn-labs/gtk-core/pkg/hashing"
)

func TestPostgresStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()

	tip := hashing.H("gtk:chain:v1", []byte("tip")).Hex()
	rows := sqlmock.NewRows([]string{"chain_id", "budget_raw", "total_consumed", "chain_tip", "last_receipt_id", "params_version"}).
		AddRow("chain-1", int64(5000), int64(1000), tip, "abcd1234", "paramsver1")

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT chain_id, budget_raw, total_consumed, chain_tip, last_receipt_id, params_version
		 FROM chain_budgets WHERE chain_id = $1`)).
		WithArgs("chain-1").
		WillReturnRows(rows)

	rec, err := store.Get(ctx, "chain-1")
	assert.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, "chain-1", rec.ChainID)
	assert.Equal(t, int64(5000), rec.BudgetRaw)
	assert.Equal(t, tip, rec.ChainTip.Hex())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT chain_id, budget_raw, total_consumed, chain_tip, last_receipt_id, params_version
		 FROM chain_budgets WHERE chain_id = $1`)).
		WithArgs("missing-chain").
		WillReturnRows(sqlmock.NewRows([]string{"chain_id", "budget_raw", "total_consumed", "chain_tip", "last_receipt_id", "params_version"}))

	rec, err := store.Get(ctx, "missing-chain")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPostgresStorePutUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	ctx := context.Background()

	rec := &ChainRecord{
		ChainID:       "chain-1",
		BudgetRaw:     4000,
		TotalConsumed: 1000,
		ChainTip:      hashing.Zero(),
		LastReceiptID: "deadbeef",
		ParamsVersion: "paramsver1",
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chain_budgets")).
		WithArgs(rec.ChainID, rec.BudgetRaw, rec.TotalConsumed, rec.ChainTip.Hex(), rec.LastReceiptID, rec.ParamsVersion).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, store.Put(ctx, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.Get(ctx, "chain-1")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	want := &ChainRecord{ChainID: "chain-1", BudgetRaw: 100, ChainTip: hashing.Zero()}
	assert.NoError(t, s.Put(ctx, want))

	got, err := s.Get(ctx, "chain-1")
	assert.NoError(t, err)
	assert.Equal(t, want.BudgetRaw, got.BudgetRaw)
}

func TestMemoryStoreGetReturnsACopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	assert.NoError(t, s.Put(ctx, &ChainRecord{ChainID: "chain-1", BudgetRaw: 100}))

	got, err := s.Get(ctx, "chain-1")
	assert.NoError(t, err)
	got.BudgetRaw = 999

	got2, err := s.Get(ctx, "chain-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(100), got2.BudgetRaw, "mutating a returned record must not affect the stored copy")
}
