package rollover

import (
	"net/http"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/rest"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type OverviewDTO struct {
	Month            string          `json:"month"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Rollover         decimal.Decimal `json:"rollover"`
	DisposableIncome decimal.Decimal `json:"disposableIncome"`
	NetBalance       decimal.Decimal `json:"netBalance"`
	ActualNet        decimal.Decimal `json:"actualNet"`
}

type SummaryDTO struct {
	Month                string          `json:"month"`
	NetBalanceAtMonthEnd decimal.Decimal `json:"netBalanceAtMonthEnd"`
	LastUpdated          time.Time       `json:"lastUpdated"`
}

type Handler struct {
	service Service
	clock   utils.Clock
}

func NewHandler(service Service, clock utils.Clock) *Handler {
	return &Handler{service: service, clock: clock}
}

// GetOverview godoc
// @Summary Month overview with the rollover from the previous month
// @Tags Rollover
// @Produce json
// @Param boardId path string true "Board ID"
// @Param month query string false "Month (YYYY-MM), defaults to the current month"
// @Success 200 {object} OverviewDTO
// @Router /api/boards/{boardId}/overview [get]
// @Security XUserId
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	month, err := ledger.MonthParam(r, h.clock)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	overview, err := h.service.MonthOverview(r.Context(), mux.Vars(r)["boardId"], month)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, OverviewToDTO(overview))
}

// ListSummaries godoc
// @Summary Stored month-end balances of a board
// @Tags Rollover
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {array} SummaryDTO
// @Router /api/boards/{boardId}/summaries [get]
// @Security XUserId
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListSummaries(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]SummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		dtos = append(dtos, SummaryToDTO(s))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// PersistSummary godoc
// @Summary Store the month-end balance now
// @Tags Rollover
// @Produce json
// @Param boardId path string true "Board ID"
// @Param month path string true "Month (YYYY-MM)"
// @Success 200 {object} SummaryDTO
// @Router /api/boards/{boardId}/summaries/{month} [put]
// @Security XUserId
func (h *Handler) PersistSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	month, err := ledger.ParseMonth(vars["month"])
	if err != nil {
		rest.WriteError(w, apperr.InvalidInput("%v", err))
		return
	}
	summary, err := h.service.PersistNow(r.Context(), vars["boardId"], month)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SummaryToDTO(summary))
}

func OverviewToDTO(o Overview) OverviewDTO {
	return OverviewDTO{
		Month:            o.Month.String(),
		Income:           o.Income,
		Expenses:         o.Expenses,
		Rollover:         o.Rollover,
		DisposableIncome: o.DisposableIncome,
		NetBalance:       o.NetBalance,
		ActualNet:        o.ActualNet,
	}
}

func SummaryToDTO(s MonthlySummary) SummaryDTO {
	return SummaryDTO{Month: s.Month.String(), NetBalanceAtMonthEnd: s.NetBalanceAtMonthEnd, LastUpdated: s.LastUpdated}
}
