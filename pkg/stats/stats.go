package stats

import (
	"slices"
	"strings"
	"time"

	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Uncategorized labels transactions without a category.
const Uncategorized = "uncategorized"

type CategoryStats struct {
	CategoryId string
	Income     decimal.Decimal
	Expenses   decimal.Decimal
}

func (c CategoryStats) Net() decimal.Decimal {
	return c.Income.Sub(c.Expenses)
}

type DailyStats struct {
	Date       time.Time
	Categories []CategoryStats
	Totals     ledger.Totals
}

type StatsSummary struct {
	BoardId    string
	Month      ledger.Month
	Days       []DailyStats
	Categories []CategoryStats
	Totals     ledger.Totals
}

// Summarize breaks a month of transactions down per day and per category.
// Every day of the month gets an entry, empty days included.
func Summarize(boardId string, month ledger.Month, transactions []ledger.Transaction) StatsSummary {
	byDay := make(map[string][]ledger.Transaction)
	for _, t := range transactions {
		key := t.Date.Format(time.DateOnly)
		byDay[key] = append(byDay[key], t)
	}

	days := make([]DailyStats, 0, 31)
	for day := month.Start(); !day.After(month.End()); day = day.AddDate(0, 0, 1) {
		dayTransactions := byDay[day.Format(time.DateOnly)]
		days = append(days, DailyStats{
			Date:       day,
			Categories: byCategory(dayTransactions),
			Totals:     ledger.Sum(dayTransactions, day, day),
		})
	}

	return StatsSummary{
		BoardId:    boardId,
		Month:      month,
		Days:       days,
		Categories: byCategory(transactions),
		Totals:     ledger.Sum(transactions, month.Start(), month.End()),
	}
}

func byCategory(transactions []ledger.Transaction) []CategoryStats {
	index := make(map[string]int)
	categories := make([]CategoryStats, 0)
	for _, t := range transactions {
		id := categoryOf(t)
		i, ok := index[id]
		if !ok {
			i = len(categories)
			index[id] = i
			categories = append(categories, CategoryStats{CategoryId: id, Income: decimal.Zero, Expenses: decimal.Zero})
		}
		switch t.Type {
		case ledger.Income:
			categories[i].Income = categories[i].Income.Add(t.Amount)
		case ledger.Expense:
			categories[i].Expenses = categories[i].Expenses.Add(t.Amount)
		}
	}
	slices.SortFunc(categories, func(a, b CategoryStats) int {
		return strings.Compare(a.CategoryId, b.CategoryId)
	})
	return categories
}

func categoryOf(t ledger.Transaction) string {
	if t.CategoryId == "" {
		return Uncategorized
	}
	return t.CategoryId
}
