package rollover

import (
	"time"

	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/shopspring/decimal"
)

// MonthlySummary is the persisted result of one board month.
type MonthlySummary struct {
	BoardId string
	Month   ledger.Month
	// NetBalanceAtMonthEnd is the month's own income minus expenses. Carried
	// amounts from earlier months are never included.
	NetBalanceAtMonthEnd decimal.Decimal
	LastUpdated          time.Time
}

type Overview struct {
	Month    ledger.Month
	Income   decimal.Decimal
	Expenses decimal.Decimal
	// Rollover is the previous month's stored net, zero when none was stored.
	Rollover decimal.Decimal
	// DisposableIncome is income plus rollover. Display only.
	DisposableIncome decimal.Decimal
	// NetBalance is disposable income minus expenses.
	NetBalance decimal.Decimal
	// ActualNet is income minus expenses, the value persisted for the month.
	ActualNet decimal.Decimal
}

func newOverview(month ledger.Month, totals ledger.Totals, rollover decimal.Decimal) Overview {
	disposable := totals.Income.Add(rollover)
	return Overview{
		Month:            month,
		Income:           totals.Income,
		Expenses:         totals.Expenses,
		Rollover:         rollover,
		DisposableIncome: disposable,
		NetBalance:       disposable.Sub(totals.Expenses),
		ActualNet:        totals.Net(),
	}
}

func key(boardId string, month ledger.Month) string {
	return boardId + "/" + month.String()
}
