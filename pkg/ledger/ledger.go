package ledger

import (
	"fmt"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

type Transaction struct {
	Id      string
	BoardId string
	Title   string
	// Amount is always positive; Type carries the sign.
	Amount decimal.Decimal
	// Date is a calendar day, stored as midnight UTC.
	Date       time.Time
	CategoryId string
	Type       TransactionType
	// LinkedBillId is set on transactions generated by paying a bill. Empty otherwise.
	LinkedBillId string
	CreatedBy    string
	CreatedAt    time.Time
}

func (t Transaction) IsLinked() bool {
	return t.LinkedBillId != ""
}

// MaxAmount is the largest amount the store holds: twelve whole digits and cents.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// CheckAmount rejects amounts the store cannot hold exactly: zero or negative,
// finer than cents, or above MaxAmount.
func CheckAmount(what string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.InvalidInput("%s must be positive, got %s", what, amount)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return apperr.InvalidInput("%s has more than two decimals, got %s", what, amount)
	}
	if amount.GreaterThan(MaxAmount) {
		return apperr.InvalidInput("%s exceeds %s, got %s", what, MaxAmount, amount)
	}
	return nil
}

type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// Net is income minus expenses.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expenses)
}

// Sum aggregates the transactions dated within [from, to], both days inclusive.
func Sum(transactions []Transaction, from time.Time, to time.Time) Totals {
	totals := Totals{Income: decimal.Zero, Expenses: decimal.Zero}
	for _, t := range transactions {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		switch t.Type {
		case Income:
			totals.Income = totals.Income.Add(t.Amount)
		case Expense:
			totals.Expenses = totals.Expenses.Add(t.Amount)
		}
	}
	return totals
}

// Month is a calendar month, formatted as "YYYY-MM".
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", s, err)
	}
	return MonthOf(t), nil
}

// Start is the first day of the month, midnight UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month, midnight UTC. Use it as an inclusive day bound.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

func (m Month) Previous() Month {
	return MonthOf(m.Start().AddDate(0, -1, 0))
}

func (m Month) Next() Month {
	return MonthOf(m.Start().AddDate(0, 1, 0))
}

func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
