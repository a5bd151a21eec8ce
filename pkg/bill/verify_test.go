package bill

import (
	"context"
	"testing"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindViolations(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	bills := []Bill{unpaidBill("a-clean"), paidBill("b-missing"), unpaidBill("c-stale"), paidBill("d-dup"), paidBill("e-ok")}
	linked := []ledger.Transaction{
		linkedTx("t1", "c-stale", now),
		linkedTx("t2", "d-dup", now),
		linkedTx("t3", "d-dup", now.Add(time.Minute)),
		linkedTx("t4", "e-ok", now),
		linkedTx("t5", "z-gone", now),
	}

	violations := findViolations("b1", bills, linked)

	require.Len(t, violations, 4)
	assert.Equal(t, Violation{BoardId: "b1", BillId: "b-missing", Kind: MissingTransaction, TransactionIds: []string{}}, violations[0])
	assert.Equal(t, Violation{BoardId: "b1", BillId: "c-stale", Kind: StaleTransaction, TransactionIds: []string{"t1"}}, violations[1])
	assert.Equal(t, Violation{BoardId: "b1", BillId: "d-dup", Kind: DuplicateTransactions, TransactionIds: []string{"t2", "t3"}}, violations[2])
	assert.Equal(t, Violation{BoardId: "b1", BillId: "z-gone", Kind: OrphanedTransaction, TransactionIds: []string{"t5"}}, violations[3])
}

func TestFindViolations_ConsistentBoard(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	violations := findViolations("b1", []Bill{unpaidBill("a"), paidBill("b")}, []ledger.Transaction{linkedTx("t1", "b", now)})

	assert.Empty(t, violations)
}

func putBrokenBoard() {
	now := clock.Now()
	repoStub.PutBill(paidBill("missing"))
	repoStub.PutBill(unpaidBill("stale"))
	repoStub.PutBill(paidBill("dup"))
	repoStub.PutTransaction(linkedTx("t-stale", "stale", now))
	repoStub.PutTransaction(linkedTx("t-old", "dup", now.Add(-time.Hour)))
	repoStub.PutTransaction(linkedTx("t-new", "dup", now))
	repoStub.PutTransaction(linkedTx("t-orphan", "gone", now))
}

func TestServiceImpl_Verify(t *testing.T) {
	t.Run("should report without changing anything", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		putBrokenBoard()

		violations, err := service.Verify(viewerCtx, "b1")

		require.NoError(t, err)
		kinds := make([]ViolationKind, 0, len(violations))
		for _, v := range violations {
			kinds = append(kinds, v.Kind)
		}
		assert.Equal(t, []ViolationKind{DuplicateTransactions, OrphanedTransaction, MissingTransaction, StaleTransaction}, kinds)
		assert.Len(t, repoStub.Transactions("b1"), 4)
		assert.Empty(t, events)
	})

	t.Run("should deny strangers", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Verify(strangerCtx, "b1")

		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	})
}

func TestServiceImpl_Heal(t *testing.T) {
	t.Run("should repair every bill and leave orphans", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		putBrokenBoard()

		// when
		repaired, err := service.Heal(editorCtx, "b1")

		// then
		require.NoError(t, err)
		assert.Len(t, repaired, 3)
		assertBillsConsistent(t)

		dup, _ := repoStub.LinkedTransactions(context.Background(), "b1", "dup")
		require.Len(t, dup, 1)
		assert.Equal(t, "t-new", dup[0].Id)

		missing, _ := repoStub.LinkedTransactions(context.Background(), "b1", "missing")
		require.Len(t, missing, 1)
		assert.Equal(t, "owner", missing[0].CreatedBy)
		assert.Equal(t, today, missing[0].Date)

		stale, _ := repoStub.LinkedTransactions(context.Background(), "b1", "stale")
		assert.Empty(t, stale)

		_, err = repoStub.GetTransaction(context.Background(), "b1", "t-orphan")
		assert.NoError(t, err)
	})

	t.Run("should be a no-op on a consistent board", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(paidBill("ok"))
		repoStub.PutTransaction(linkedTx("t1", "ok", clock.Now()))

		repaired, err := service.Heal(ownerCtx, "b1")

		require.NoError(t, err)
		assert.Empty(t, repaired)
		assert.Empty(t, events)
	})

	t.Run("viewer cannot heal", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		putBrokenBoard()

		_, err := service.Heal(viewerCtx, "b1")

		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
		assert.Len(t, repoStub.Transactions("b1"), 4)
	})

	t.Run("should stop at the first failing bill", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		putBrokenBoard()
		repoStub.FailOn("DeleteTransactions", apperr.ErrStoreUnavailable)

		// "dup" is healed first and fails
		repaired, err := service.Heal(ownerCtx, "b1")

		assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
		assert.Empty(t, repaired)
		assert.Len(t, repoStub.Transactions("b1"), 4)
	})
}

// assertBillsConsistent is assertLinkInvariant without the orphans Heal leaves behind.
func assertBillsConsistent(t *testing.T) {
	t.Helper()
	bills, err := repoStub.ListBills(context.Background(), "b1", false)
	require.NoError(t, err)
	for _, b := range bills {
		linked, err := repoStub.LinkedTransactions(context.Background(), "b1", b.Id)
		require.NoError(t, err)
		_, broken := checkBill(b, linked)
		assert.False(t, broken, "bill %s", b.Id)
	}
}
