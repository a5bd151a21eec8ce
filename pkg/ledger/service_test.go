package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/test_utils"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ownerCtx = test_utils.AsUser("owner", "Olivia Owner")
var editorCtx = test_utils.AsUser("editor", "Eddie Editor")
var viewerCtx = test_utils.AsUser("viewer", "Vera Viewer")
var strangerCtx = test_utils.AsUser("stranger", "Sam Stranger")

var repoStub = NewRepositoryStub()
var boardStub = board.NewRepositoryStub()
var clock = &utils.MockClock{FixedNow: time.Date(2025, 3, 14, 21, 30, 0, 0, time.UTC)}

var eventBus *event_bus.EventBus
var service Service
var published []event_bus.TransactionChanged

func setup(t *testing.T) func() {
	eventBus = event_bus.NewEventBus()
	published = nil
	event_bus.SubscribeTyped(eventBus, event_bus.TransactionChangedType, func(e event_bus.EventT[event_bus.TransactionChanged]) error {
		published = append(published, e.Data)
		return nil
	})
	boardStub.Put(board.Board{
		Id:          "b1",
		Name:        "Household",
		OwnerId:     "owner",
		MemberIds:   []string{"owner", "editor", "viewer"},
		MemberRoles: map[string]board.Role{"editor": board.RoleEditor, "viewer": board.RoleViewer},
	})
	service = NewService(repoStub, boardStub, eventBus, clock)
	return func() {
		t.Log("Teardown after test")
		repoStub.Reset()
		boardStub.Reset()
	}
}

func expense(amount string) Transaction {
	return Transaction{Title: "Groceries", Amount: decimal.RequireFromString(amount), Type: Expense, CategoryId: "food"}
}

func TestServiceImpl_AddTransaction(t *testing.T) {
	t.Run("should store transaction dated today by default", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.AddTransaction(editorCtx, "b1", expense("42.50"))

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.Id)
		assert.Equal(t, "b1", created.BoardId)
		assert.Equal(t, "editor", created.CreatedBy)
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), created.Date)
		stored, err := repoStub.Get(context.Background(), "b1", created.Id)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("42.5").Equal(stored.Amount))
		require.Len(t, published, 1)
		assert.Equal(t, created.Id, published[0].TransactionId)
		assert.Equal(t, []time.Time{created.Date}, published[0].Days)
	})

	t.Run("should reject viewer without side effects", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.AddTransaction(viewerCtx, "b1", expense("10"))

		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
		list, _ := repoStub.List(context.Background(), "b1", time.Time{}, clock.Now())
		assert.Empty(t, list)
		assert.Empty(t, published)
	})

	t.Run("should reject non members", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.AddTransaction(strangerCtx, "b1", expense("10"))

		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	})

	t.Run("should validate input", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		invalid := map[string]Transaction{
			"zero amount":     expense("0"),
			"negative amount": expense("-5"),
			"below a cent":    expense("0.001"),
			"half a cent":     expense("10.005"),
			"too large":       expense("1000000000000"),
			"unknown type":    {Title: "x", Amount: decimal.NewFromInt(1), Type: "transfer"},
			"empty title":     {Title: " ", Amount: decimal.NewFromInt(1), Type: Income},
			"bill link":       {Title: "x", Amount: decimal.NewFromInt(1), Type: Expense, LinkedBillId: "bill-1"},
		}
		for name, tx := range invalid {
			_, err := service.AddTransaction(ownerCtx, "b1", tx)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput, name)
		}
		list, _ := repoStub.List(context.Background(), "b1", time.Time{}, clock.Now())
		assert.Empty(t, list)
		assert.Empty(t, published)
	})
}

func TestServiceImpl_UpdateTransaction(t *testing.T) {
	t.Run("should report both days when the date moves", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.Put(Transaction{
			Id: "t1", BoardId: "b1", Title: "Groceries", Amount: decimal.NewFromInt(90), Type: Expense,
			Date: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), CreatedBy: "owner",
		})

		// when
		updated, err := service.UpdateTransaction(editorCtx, "b1", Transaction{
			Id: "t1", Title: "Groceries", Amount: decimal.NewFromInt(95), Type: Expense,
			Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "owner", updated.CreatedBy)
		assert.Equal(t, "95", updated.Amount.String())
		require.Len(t, published, 1)
		assert.Equal(t, []time.Time{
			time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		}, published[0].Days)
	})

	t.Run("should allow title and category edits of a bill payment", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.Put(linkedRent())

		// when
		updated, err := service.UpdateTransaction(editorCtx, "b1", Transaction{Id: "t1", Title: "Rent March", CategoryId: "housing"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "bill-1", updated.LinkedBillId)
		assert.Equal(t, Expense, updated.Type)
		assert.Equal(t, "900", updated.Amount.String())
		assert.Equal(t, "housing", updated.CategoryId)
	})

	t.Run("should keep a bill payment an expense with the bill's amount and date", func(t *testing.T) {
		edits := map[string]Transaction{
			"type":   {Id: "t1", Title: "Rent", Amount: decimal.NewFromInt(900), Type: Income},
			"amount": {Id: "t1", Title: "Rent", Amount: decimal.NewFromInt(950), Type: Expense},
			"date":   {Id: "t1", Title: "Rent", Type: Expense, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		}
		for name, edit := range edits {
			t.Run(name, func(t *testing.T) {
				teardown := setup(t)
				defer teardown()
				repoStub.Put(linkedRent())

				// when
				_, err := service.UpdateTransaction(editorCtx, "b1", edit)

				// then
				assert.ErrorIs(t, err, apperr.ErrInvalidInput)
				stored, _ := repoStub.Get(context.Background(), "b1", "t1")
				assert.Equal(t, Expense, stored.Type)
				totals, err := service.Aggregate(ownerCtx, "b1", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
				require.NoError(t, err)
				assert.True(t, totals.Income.IsZero())
				assert.Equal(t, "900", totals.Expenses.String())
				assert.Empty(t, published)
			})
		}
	})

	t.Run("should refuse to relink", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.Put(Transaction{Id: "t1", BoardId: "b1", Title: "Rent", Amount: decimal.NewFromInt(900), Type: Expense, LinkedBillId: "bill-1"})

		_, err := service.UpdateTransaction(ownerCtx, "b1", Transaction{Id: "t1", Title: "Rent", Amount: decimal.NewFromInt(900), Type: Expense, LinkedBillId: "bill-2"})

		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("should report missing transaction", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.UpdateTransaction(ownerCtx, "b1", expense("1"))

		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestServiceImpl_Aggregate(t *testing.T) {
	t.Run("should count only transactions within inclusive bounds", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		march := Month{2025, time.March}
		repoStub.Put(Transaction{Id: "1", BoardId: "b1", Type: Income, Amount: decimal.NewFromInt(1000), Date: march.Start()})
		repoStub.Put(Transaction{Id: "2", BoardId: "b1", Type: Expense, Amount: decimal.NewFromInt(300), Date: march.End()})
		repoStub.Put(Transaction{Id: "3", BoardId: "b1", Type: Expense, Amount: decimal.NewFromInt(200), Date: march.Next().Start()})
		repoStub.Put(Transaction{Id: "4", BoardId: "other", Type: Income, Amount: decimal.NewFromInt(5), Date: march.Start()})

		// when
		totals, err := service.Aggregate(viewerCtx, "b1", march.Start(), march.End())

		// then
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1000).Equal(totals.Income))
		assert.True(t, decimal.NewFromInt(300).Equal(totals.Expenses))
		assert.True(t, decimal.NewFromInt(700).Equal(totals.Net()))
	})

	t.Run("should reject inverted range", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Aggregate(ownerCtx, "b1", time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("should surface store failures", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.SetError(apperr.ErrStoreUnavailable)

		_, err := service.Aggregate(ownerCtx, "b1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))

		assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	})
}

func TestServiceImpl_ListTransactions(t *testing.T) {
	teardown := setup(t)
	defer teardown()
	march := Month{2025, time.March}
	repoStub.Put(Transaction{Id: "late", BoardId: "b1", Type: Income, Amount: decimal.NewFromInt(1), Date: march.End()})
	repoStub.Put(Transaction{Id: "early", BoardId: "b1", Type: Income, Amount: decimal.NewFromInt(1), Date: march.Start()})
	repoStub.Put(Transaction{Id: "april", BoardId: "b1", Type: Income, Amount: decimal.NewFromInt(1), Date: march.Next().Start()})

	list, err := service.ListTransactions(viewerCtx, "b1", march)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].Id)
	assert.Equal(t, "late", list[1].Id)
}

func linkedRent() Transaction {
	return Transaction{
		Id: "t1", BoardId: "b1", Title: "Rent", Amount: decimal.NewFromInt(900), Type: Expense,
		Date: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), LinkedBillId: "bill-1", CreatedBy: "owner",
	}
}
