package bill

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/shopspring/decimal"
)

// PaymentRequest is a deep link asking a payment app to pay a bill. Nothing is paid by creating it.
type PaymentRequest struct {
	URL      string
	Display  string
	Currency string
	// MinorUnits is the amount in the currency's smallest unit, e.g. cents.
	MinorUnits int64
}

func (s *ServiceImpl) PaymentLink(ctx context.Context, boardId string, billId string) (PaymentRequest, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return PaymentRequest{}, err
	}
	b, err := s.repo.GetBill(ctx, boardId, billId)
	if err != nil {
		return PaymentRequest{}, err
	}
	if b.Paid {
		return PaymentRequest{}, apperr.InvalidInput("bill %s is already paid", billId)
	}
	return NewPaymentRequest(s.payments.Scheme, s.payments.Currency, b)
}

func NewPaymentRequest(scheme string, currency string, b Bill) (PaymentRequest, error) {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return PaymentRequest{}, apperr.InvalidInput("unknown payment currency %q", currency)
	}
	link, err := url.Parse(scheme)
	if err != nil || link.Scheme == "" {
		return PaymentRequest{}, apperr.InvalidInput("invalid payment link scheme %q", scheme)
	}

	factor := decimal.New(1, int32(cur.Fraction))
	minor := b.Amount.Mul(factor).Round(0).IntPart()
	m := money.New(minor, cur.Code)

	query := link.Query()
	query.Set("amount", strconv.FormatInt(minor, 10))
	query.Set("currency", cur.Code)
	query.Set("message", b.Title)
	link.RawQuery = query.Encode()

	return PaymentRequest{URL: link.String(), Display: m.Display(), Currency: cur.Code, MinorUnits: minor}, nil
}
