package bill

import (
	"context"
	"testing"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultFor(results []ShareResult, boardId string) ShareResult {
	for _, r := range results {
		if r.BoardId == boardId {
			return r
		}
	}
	return ShareResult{}
}

func TestServiceImpl_ShareBill(t *testing.T) {
	t.Run("should copy an unpaid bill with provenance", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(paidBill("bill-1"))

		// when
		results, err := service.ShareBill(editorCtx, "b1", "bill-1", []string{"b2"})

		// then
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)
		copied, err := repoStub.GetBill(context.Background(), "b2", results[0].BillId)
		require.NoError(t, err)
		assert.False(t, copied.Paid)
		assert.Empty(t, copied.PaidByUserId)
		assert.True(t, copied.IsSharedCopy)
		assert.Equal(t, "b1", copied.OriginalBoardId)
		assert.Equal(t, "bill-1", copied.OriginalBillId)
		assert.Equal(t, "editor", copied.SharedByUserId)
		assert.Equal(t, "Electricity", copied.Title)
		assert.Empty(t, repoStub.Transactions("b2"))
		assert.Equal(t, []event_bus.EventType{event_bus.BillChangedType}, events)

		source, _ := repoStub.GetBill(context.Background(), "b1", "bill-1")
		assert.True(t, source.Paid)
	})

	t.Run("one failing target does not affect the others", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))
		repoStub.FailBoard("b3", apperr.ErrStoreUnavailable)

		results, err := service.ShareBill(editorCtx, "b1", "bill-1", []string{"b2", "b3", "b4"})

		require.NoError(t, err)
		require.Len(t, results, 3)
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		assert.Equal(t, 1, failed)
		assert.ErrorIs(t, resultFor(results, "b3").Err, apperr.ErrStoreUnavailable)
		for _, target := range []string{"b2", "b4"} {
			r := resultFor(results, target)
			require.NoError(t, r.Err)
			_, err := repoStub.GetBill(context.Background(), target, r.BillId)
			assert.NoError(t, err)
		}
		bills, _ := repoStub.ListBills(context.Background(), "b3", false)
		assert.Empty(t, bills)
	})

	t.Run("targets without edit rights fail individually", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		results, err := service.ShareBill(editorCtx, "b1", "bill-1", []string{"readonly", "b2", "foreign"})

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.NoError(t, resultFor(results, "b2").Err)
		assert.ErrorIs(t, resultFor(results, "readonly").Err, apperr.ErrPermissionDenied)
		assert.Error(t, resultFor(results, "foreign").Err)
	})

	t.Run("the source board is not a valid target", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		results, err := service.ShareBill(ownerCtx, "b1", "bill-1", []string{"b1", "b3"})

		require.NoError(t, err)
		assert.ErrorIs(t, resultFor(results, "b1").Err, apperr.ErrInvalidInput)
		assert.NoError(t, resultFor(results, "b3").Err)
	})

	t.Run("duplicate targets get one copy", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		results, err := service.ShareBill(ownerCtx, "b1", "bill-1", []string{"b3", " b3 ", ""})

		require.NoError(t, err)
		assert.Len(t, results, 1)
		bills, _ := repoStub.ListBills(context.Background(), "b3", false)
		assert.Len(t, bills, 1)
	})

	t.Run("results follow the requested order", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		// when
		results, err := service.ShareBill(editorCtx, "b1", "bill-1", []string{"b4", "readonly", "b2", "b4", "b3"})

		// then
		require.NoError(t, err)
		boardIds := make([]string, 0, len(results))
		for _, r := range results {
			boardIds = append(boardIds, r.BoardId)
		}
		assert.Equal(t, []string{"b4", "readonly", "b2", "b3"}, boardIds)
	})

	t.Run("viewer cannot share", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		_, err := service.ShareBill(viewerCtx, "b1", "bill-1", []string{"b2"})

		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
		assert.Equal(t, 0, repoStub.Calls("CreateBill"))
	})

	t.Run("should require a target", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		_, err := service.ShareBill(ownerCtx, "b1", "bill-1", nil)

		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("a copy of a copy points at its immediate source", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		first, err := service.ShareBill(editorCtx, "b1", "bill-1", []string{"b2"})
		require.NoError(t, err)
		second, err := service.ShareBill(editorCtx, "b2", first[0].BillId, []string{"b4"})
		require.NoError(t, err)

		copied, err := repoStub.GetBill(context.Background(), "b4", second[0].BillId)
		require.NoError(t, err)
		assert.Equal(t, "b2", copied.OriginalBoardId)
		assert.Equal(t, first[0].BillId, copied.OriginalBillId)
	})
}
