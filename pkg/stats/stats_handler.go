package stats

import (
	"net/http"

	"github.com/boardledger/boardledger/internal/rest"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type CategoryStatsDTO struct {
	CategoryId string          `json:"categoryId"`
	Income     decimal.Decimal `json:"income"`
	Expenses   decimal.Decimal `json:"expenses"`
	Net        decimal.Decimal `json:"net"`
}

type DailyStatsDTO struct {
	Date       string             `json:"date"`
	Categories []CategoryStatsDTO `json:"categories"`
	Income     decimal.Decimal    `json:"income"`
	Expenses   decimal.Decimal    `json:"expenses"`
	Net        decimal.Decimal    `json:"net"`
}

type StatsSummaryDTO struct {
	Month      string             `json:"month"`
	Days       []DailyStatsDTO    `json:"days"`
	Categories []CategoryStatsDTO `json:"categories"`
	Income     decimal.Decimal    `json:"income"`
	Expenses   decimal.Decimal    `json:"expenses"`
	Net        decimal.Decimal    `json:"net"`
}

type StatsHandler struct {
	statsService     StatsService
	csvStatsRenderer StatsRenderer
	clock            utils.Clock
}

func NewStatsHandler(statsService StatsService, csvStatsRenderer StatsRenderer, clock utils.Clock) *StatsHandler {
	return &StatsHandler{statsService, csvStatsRenderer, clock}
}

// GetStats godoc
// @Summary Per-day and per-category statistics of a month
// @Description Returns CSV when the request accepts text/csv
// @Tags Stats
// @Produce json,text/csv
// @Param boardId path string true "Board ID"
// @Param month query string false "Month (YYYY-MM), defaults to the current month"
// @Success 200 {object} StatsSummaryDTO
// @Router /api/boards/{boardId}/stats [get]
// @Security XUserId
func (handler *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	month, err := ledger.MonthParam(r, handler.clock)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	stats, err := handler.statsService.GetStats(r.Context(), mux.Vars(r)["boardId"], month)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := handler.csvStatsRenderer.RenderStats(stats)
		if err != nil {
			rest.WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv response: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, convertToJsonResponse(stats))
}

func convertToJsonResponse(stats StatsSummary) StatsSummaryDTO {
	days := make([]DailyStatsDTO, 0, len(stats.Days))
	for _, day := range stats.Days {
		days = append(days, DailyStatsDTO{
			Date:       day.Date.Format("2006-01-02"),
			Categories: categoriesToDTO(day.Categories),
			Income:     day.Totals.Income,
			Expenses:   day.Totals.Expenses,
			Net:        day.Totals.Net(),
		})
	}
	return StatsSummaryDTO{
		Month:      stats.Month.String(),
		Days:       days,
		Categories: categoriesToDTO(stats.Categories),
		Income:     stats.Totals.Income,
		Expenses:   stats.Totals.Expenses,
		Net:        stats.Totals.Net(),
	}
}

func categoriesToDTO(categories []CategoryStats) []CategoryStatsDTO {
	dtos := make([]CategoryStatsDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, CategoryStatsDTO{CategoryId: c.CategoryId, Income: c.Income, Expenses: c.Expenses, Net: c.Net()})
	}
	return dtos
}
