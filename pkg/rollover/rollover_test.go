package rollover

import (
	"testing"
	"time"

	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewOverview(t *testing.T) {
	march := ledger.Month{Year: 2025, Month: time.March}
	april := march.Next()

	// first tracked month: nothing to carry
	m := newOverview(march, ledger.Totals{Income: dec("1000"), Expenses: dec("500")}, decimal.Zero)
	assert.True(t, dec("1000").Equal(m.DisposableIncome))
	assert.True(t, dec("500").Equal(m.NetBalance))
	assert.True(t, dec("500").Equal(m.ActualNet))

	// next month carries only March's own net
	a := newOverview(april, ledger.Totals{Income: dec("300"), Expenses: dec("500")}, m.ActualNet)
	assert.True(t, dec("500").Equal(a.Rollover))
	assert.True(t, dec("800").Equal(a.DisposableIncome))
	assert.True(t, dec("300").Equal(a.NetBalance))
	assert.True(t, dec("-200").Equal(a.ActualNet))
}

func TestNewOverview_NegativeRollover(t *testing.T) {
	o := newOverview(ledger.Month{Year: 2025, Month: time.May}, ledger.Totals{Income: dec("100"), Expenses: dec("50")}, dec("-200"))

	assert.True(t, dec("-100").Equal(o.DisposableIncome))
	assert.True(t, dec("-150").Equal(o.NetBalance))
	assert.True(t, dec("50").Equal(o.ActualNet))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "b1/2025-03", key("b1", ledger.Month{Year: 2025, Month: time.March}))
}
