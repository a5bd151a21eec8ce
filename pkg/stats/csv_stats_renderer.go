package stats

import (
	"bytes"
	"encoding/csv"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type StatsRenderer interface {
	RenderStats(stats StatsSummary) (string, error)
}

type CsvStatsRendererImpl struct {
}

func NewCsvStatsRenderer() *CsvStatsRendererImpl {
	return &CsvStatsRendererImpl{}
}

// RenderStats writes one row per day with the net amount of each category, followed by the
// income, expenses and net rows of the whole month.
func (t *CsvStatsRendererImpl) RenderStats(stats StatsSummary) (string, error) {
	categoryIds := make([]string, 0, len(stats.Categories))
	for _, c := range stats.Categories {
		categoryIds = append(categoryIds, c.CategoryId)
	}

	header := make([]string, 0, len(categoryIds)+2)
	header = append(header, "")
	header = append(header, categoryIds...)
	header = append(header, "SUM")

	data := make([][]string, 0, len(stats.Days)+4)
	data = append(data, header)
	for _, day := range stats.Days {
		row := make([]string, 0, len(categoryIds)+2)
		row = append(row, day.Date.Format("02/01/2006"))
		for _, id := range categoryIds {
			row = append(row, amountToString(netOf(day.Categories, id)))
		}
		row = append(row, amountToString(day.Totals.Net()))
		data = append(data, row)
	}

	income := []string{"Income"}
	expenses := []string{"Expenses"}
	net := []string{"Net"}
	for _, c := range stats.Categories {
		income = append(income, amountToString(c.Income))
		expenses = append(expenses, amountToString(c.Expenses))
		net = append(net, amountToString(c.Net()))
	}
	income = append(income, amountToString(stats.Totals.Income))
	expenses = append(expenses, amountToString(stats.Totals.Expenses))
	net = append(net, amountToString(stats.Totals.Net()))
	data = append(data, income, expenses, net)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func netOf(categories []CategoryStats, categoryId string) decimal.Decimal {
	idx, found := slices.BinarySearchFunc(categories, categoryId, func(c CategoryStats, id string) int {
		return strings.Compare(c.CategoryId, id)
	})
	if !found {
		return decimal.Zero
	}
	return categories[idx].Net()
}

func amountToString(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
