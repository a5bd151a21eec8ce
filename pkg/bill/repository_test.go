//go:build integration

package bill

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/boardledger/boardledger/internal/config"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/test_utils"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/boardledger/boardledger/pkg/ledger"
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

func setupTestRepository(t *testing.T) (context.Context, Repository) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(ctx))
	})
	return ctx, NewRepository(db)
}

func TestRepositoryImpl_BillRoundTrip(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	b := unpaidBill("bill-1")
	b.IsSharedCopy = true
	b.OriginalBoardId = "b0"
	b.OriginalBillId = "bill-0"
	b.SharedByUserId = "owner"

	_, err := repo.CreateBill(ctx, b)
	require.NoError(t, err)

	stored, err := repo.GetBill(ctx, "b1", "bill-1")
	require.NoError(t, err)
	assert.Equal(t, "Electricity", stored.Title)
	assert.True(t, b.Amount.Equal(stored.Amount))
	assert.Equal(t, b.DueDate, stored.DueDate.UTC())
	assert.Equal(t, "b0", stored.OriginalBoardId)
	assert.Empty(t, stored.PaidByUserId)

	_, err = repo.GetBill(ctx, "b2", "bill-1")
	assert.ErrorIs(t, err, ErrBillNotFound)
}

func TestRepositoryImpl_SetPayment(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	_, err := repo.CreateBill(ctx, unpaidBill("bill-1"))
	require.NoError(t, err)

	ok, err := repo.SetPayment(ctx, "b1", "bill-1", true, "editor", "Eddie Editor")
	require.NoError(t, err)
	assert.True(t, ok)
	stored, _ := repo.GetBill(ctx, "b1", "bill-1")
	assert.True(t, stored.Paid)
	assert.Equal(t, "Eddie Editor", stored.PaidByDisplayName)

	ok, err = repo.SetPayment(ctx, "b1", "bill-1", false, "", "")
	require.NoError(t, err)
	assert.True(t, ok)
	stored, _ = repo.GetBill(ctx, "b1", "bill-1")
	assert.False(t, stored.Paid)
	assert.Empty(t, stored.PaidByUserId)

	ok, err = repo.SetPayment(ctx, "b1", "missing", true, "editor", "Eddie Editor")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryImpl_WithTransactionRollsBack(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	_, err := repo.CreateBill(ctx, unpaidBill("bill-1"))
	require.NoError(t, err)
	boom := errors.New("boom")

	err = repo.WithTransaction(ctx, func(txRepo Repository) error {
		if _, err := txRepo.GetBillForUpdate(ctx, "b1", "bill-1"); err != nil {
			return err
		}
		if _, err := txRepo.SetPayment(ctx, "b1", "bill-1", true, "owner", "Olivia Owner"); err != nil {
			return err
		}
		if err := txRepo.CreateTransaction(ctx, linkedTx("tx-1", "bill-1", time.Now().UTC())); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	stored, _ := repo.GetBill(ctx, "b1", "bill-1")
	assert.False(t, stored.Paid)
	linked, err := repo.LinkedTransactions(ctx, "b1", "bill-1")
	require.NoError(t, err)
	assert.Empty(t, linked)
}

func TestRepositoryImpl_LinkedTransactions(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.CreateTransaction(ctx, linkedTx("newer", "bill-1", now)))
	require.NoError(t, repo.CreateTransaction(ctx, linkedTx("older", "bill-1", now.Add(-time.Hour))))
	require.NoError(t, repo.CreateTransaction(ctx, linkedTx("other", "bill-2", now)))
	require.NoError(t, repo.CreateTransaction(ctx, ledger.Transaction{
		Id: "manual", BoardId: "b1", Title: "Coffee", Amount: decimal.NewFromInt(4), Date: now, Type: ledger.Expense, CreatedAt: now,
	}))

	linked, err := repo.LinkedTransactions(ctx, "b1", "bill-1")
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, "older", linked[0].Id)
	assert.Equal(t, "newer", linked[1].Id)

	all, err := repo.AllLinkedTransactions(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	deleted, err := repo.DeleteTransactions(ctx, "b1", "older", "newer", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestRepositoryImpl_ListBills(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	late := unpaidBill("late")
	late.DueDate = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, b := range []Bill{late, unpaidBill("early"), paidBill("paid")} {
		_, err := repo.CreateBill(ctx, b)
		require.NoError(t, err)
	}

	unpaid, err := repo.ListBills(ctx, "b1", true)
	require.NoError(t, err)
	require.Len(t, unpaid, 2)
	assert.Equal(t, "early", unpaid[0].Id)

	deleted, err := repo.DeleteBill(ctx, "b1", "paid")
	require.NoError(t, err)
	assert.True(t, deleted)
	all, _ := repo.ListBills(ctx, "b1", false)
	assert.Len(t, all, 2)
}

func setupLinkerOnDb(t *testing.T) (context.Context, Repository, *ServiceImpl) {
	ctx, repo := setupTestRepository(t)
	boards := board.NewRepositoryStub()
	boards.Put(board.Board{Id: "b1", Name: "Household", OwnerId: "owner", MemberIds: []string{"owner", "editor"},
		MemberRoles: map[string]board.Role{"editor": board.RoleEditor}})
	linker := NewService(repo, boards, event_bus.NewEventBus(), clock, config.Payments{Currency: "NOK"})
	return ctx, repo, linker
}

func TestServiceImpl_MarkPaidConcurrentlyOnDb(t *testing.T) {
	// given
	ctx, repo, linker := setupLinkerOnDb(t)
	_, err := repo.CreateBill(ctx, unpaidBill("bill-1"))
	require.NoError(t, err)

	// when
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userCtx := ownerCtx
			if i%2 == 1 {
				userCtx = editorCtx
			}
			_, errs[i] = linker.MarkPaid(userCtx, "b1", "bill-1")
		}(i)
	}
	wg.Wait()

	// then
	for _, err := range errs {
		assert.NoError(t, err)
	}
	stored, err := repo.GetBill(ctx, "b1", "bill-1")
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	linked, err := repo.LinkedTransactions(ctx, "b1", "bill-1")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.True(t, stored.Amount.Equal(linked[0].Amount))
	assert.Equal(t, ledger.Expense, linked[0].Type)
}

func TestServiceImpl_TogglePaymentConcurrentlyOnDb(t *testing.T) {
	// given
	ctx, repo, linker := setupLinkerOnDb(t)
	_, err := repo.CreateBill(ctx, unpaidBill("bill-1"))
	require.NoError(t, err)

	// when
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = linker.MarkPaid(ownerCtx, "b1", "bill-1")
			} else {
				_, err = linker.MarkUnpaid(editorCtx, "b1", "bill-1")
			}
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// then
	bills, err := repo.ListBills(ctx, "b1", false)
	require.NoError(t, err)
	linked, err := repo.AllLinkedTransactions(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Empty(t, findViolations("b1", bills, linked))
	if bills[0].Paid {
		assert.Len(t, linked, 1)
	} else {
		assert.Empty(t, linked)
	}
}
