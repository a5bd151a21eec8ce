package bill

import (
	"net/url"
	"testing"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentRequest(t *testing.T) {
	t.Run("should encode the amount in minor units", func(t *testing.T) {
		b := unpaidBill("bill-1")

		req, err := NewPaymentRequest("https://pay.example.com/request?app=1", "NOK", b)

		require.NoError(t, err)
		assert.Equal(t, int64(81240), req.MinorUnits)
		assert.Equal(t, "NOK", req.Currency)
		assert.NotEmpty(t, req.Display)
		parsed, err := url.Parse(req.URL)
		require.NoError(t, err)
		assert.Equal(t, "pay.example.com", parsed.Host)
		assert.Equal(t, "81240", parsed.Query().Get("amount"))
		assert.Equal(t, "NOK", parsed.Query().Get("currency"))
		assert.Equal(t, "Electricity", parsed.Query().Get("message"))
		assert.Equal(t, "1", parsed.Query().Get("app"))
	})

	t.Run("should respect currencies without minor unit", func(t *testing.T) {
		b := unpaidBill("bill-1")
		b.Amount = decimal.RequireFromString("1200.6")

		req, err := NewPaymentRequest("https://pay.example.com/request", "JPY", b)

		require.NoError(t, err)
		assert.Equal(t, int64(1201), req.MinorUnits)
	})

	t.Run("should reject unknown currencies", func(t *testing.T) {
		_, err := NewPaymentRequest("https://pay.example.com/request", "XYZ", unpaidBill("bill-1"))

		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("should reject a scheme that is not a URL", func(t *testing.T) {
		_, err := NewPaymentRequest("not a link", "NOK", unpaidBill("bill-1"))

		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})
}

func TestServiceImpl_PaymentLink(t *testing.T) {
	t.Run("viewer can request a link for an unpaid bill", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		req, err := service.PaymentLink(viewerCtx, "b1", "bill-1")

		require.NoError(t, err)
		assert.Contains(t, req.URL, "https://pay.example.com/request?")
		assert.Empty(t, repoStub.Transactions("b1"))
	})

	t.Run("paid bills have no link", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(paidBill("bill-1"))

		_, err := service.PaymentLink(ownerCtx, "b1", "bill-1")

		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("strangers are denied", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.PutBill(unpaidBill("bill-1"))

		_, err := service.PaymentLink(strangerCtx, "b1", "bill-1")

		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	})
}
