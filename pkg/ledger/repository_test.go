//go:build integration

package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/boardledger/boardledger/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, *pgxpool.Pool) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(ctx))
	})
	return ctx, NewRepository(db), db
}

func tx(id string, txType TransactionType, amount int64, date time.Time) Transaction {
	return Transaction{
		Id: id, BoardId: "b1", Title: id, Amount: decimal.NewFromInt(amount), Type: txType,
		Date: date, CreatedBy: "owner", CreatedAt: time.Now().UTC(),
	}
}

func TestRepositoryImpl_SumByType(t *testing.T) {
	// given
	ctx, repo, _ := setupTestRepository(t)
	march := Month{2025, time.March}
	for _, tr := range []Transaction{
		tx("salary", Income, 1000, march.Start()),
		tx("rent", Expense, 400, march.End()),
		tx("coffee", Expense, 100, march.Start().AddDate(0, 0, 9)),
		tx("april", Expense, 999, march.Next().Start()),
	} {
		_, err := repo.Create(ctx, tr)
		require.NoError(t, err)
	}

	// when
	totals, err := repo.SumByType(ctx, "b1", march.Start(), march.End())

	// then
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(totals.Income), totals.Income.String())
	assert.True(t, decimal.NewFromInt(500).Equal(totals.Expenses), totals.Expenses.String())
}

func TestRepositoryImpl_SumByType_EmptyMonth(t *testing.T) {
	ctx, repo, _ := setupTestRepository(t)

	totals, err := repo.SumByType(ctx, "b1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.True(t, totals.Net().IsZero())
}

func TestRepositoryImpl_LinkedHelpers(t *testing.T) {
	ctx, repo, db := setupTestRepository(t)
	linked := tx("paid", Expense, 50, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	linked.LinkedBillId = "bill-1"
	require.NoError(t, InsertTransaction(ctx, db, linked))
	_, err := repo.Create(ctx, tx("manual", Expense, 20, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	all, err := SelectAllLinked(ctx, db, "b1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "bill-1", all[0].LinkedBillId)

	manual, err := repo.Get(ctx, "b1", "manual")
	require.NoError(t, err)
	assert.False(t, manual.IsLinked())

	deleted, err := DeleteTransactions(ctx, db, "b1", "paid", "manual")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = repo.Get(ctx, "b1", "paid")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestRepositoryImpl_UpdateKeepsLink(t *testing.T) {
	ctx, repo, db := setupTestRepository(t)
	linked := tx("paid", Expense, 50, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	linked.LinkedBillId = "bill-1"
	require.NoError(t, InsertTransaction(ctx, db, linked))

	linked.Title = "Electricity"
	linked.LinkedBillId = ""
	ok, err := repo.Update(ctx, linked)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.Get(ctx, "b1", "paid")
	require.NoError(t, err)
	assert.Equal(t, "Electricity", stored.Title)
	assert.Equal(t, "bill-1", stored.LinkedBillId)
}
