package ledger

import (
	"context"
	"net/http"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/rest"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type TransactionDTO struct {
	Id           string          `json:"id"`
	Title        string          `json:"title"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	CategoryId   string          `json:"categoryId"`
	Type         TransactionType `json:"type"`
	LinkedBillId string          `json:"linkedBillId,omitempty"`
	CreatedBy    string          `json:"createdBy,omitempty"`
}

type TotalsDTO struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// TransactionDeleter removes a transaction together with the paid state of its bill.
type TransactionDeleter interface {
	DeleteTransaction(ctx context.Context, boardId string, transactionId string) error
}

type Handler struct {
	service Service
	deleter TransactionDeleter
	clock   utils.Clock
}

func NewHandler(service Service, deleter TransactionDeleter, clock utils.Clock) *Handler {
	return &Handler{service: service, deleter: deleter, clock: clock}
}

// ListTransactions godoc
// @Summary List transactions of a month
// @Tags Ledger
// @Produce json
// @Param boardId path string true "Board ID"
// @Param month query string false "Month in YYYY-MM format, defaults to the current month"
// @Success 200 {array} TransactionDTO
// @Router /api/boards/{boardId}/transactions [get]
// @Security XUserId
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	month, err := MonthParam(r, h.clock)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	transactions, err := h.service.ListTransactions(r.Context(), mux.Vars(r)["boardId"], month)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, TransactionToDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// AddTransaction godoc
// @Summary Register an income or an expense
// @Tags Ledger
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param transaction body TransactionDTO true "Transaction"
// @Success 201 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/boards/{boardId}/transactions [post]
// @Security XUserId
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var dto TransactionDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	t, err := DTOToTransaction(dto)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	created, err := h.service.AddTransaction(r.Context(), mux.Vars(r)["boardId"], t)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, TransactionToDTO(created))
}

// GetTransaction godoc
// @Summary Get a transaction
// @Tags Ledger
// @Produce json
// @Param boardId path string true "Board ID"
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} TransactionDTO
// @Router /api/boards/{boardId}/transactions/{transactionId} [get]
// @Security XUserId
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	t, err := h.service.GetTransaction(r.Context(), vars["boardId"], vars["transactionId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TransactionToDTO(t))
}

// UpdateTransaction godoc
// @Summary Update a transaction
// @Tags Ledger
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param transactionId path string true "Transaction ID"
// @Param transaction body TransactionDTO true "Transaction"
// @Success 200 {object} TransactionDTO
// @Router /api/boards/{boardId}/transactions/{transactionId} [put]
// @Security XUserId
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var dto TransactionDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	t, err := DTOToTransaction(dto)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	t.Id = vars["transactionId"]
	updated, err := h.service.UpdateTransaction(r.Context(), vars["boardId"], t)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TransactionToDTO(updated))
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Description Deleting a transaction generated by a bill payment marks the bill unpaid again.
// @Tags Ledger
// @Param boardId path string true "Board ID"
// @Param transactionId path string true "Transaction ID"
// @Success 204 "No Content"
// @Router /api/boards/{boardId}/transactions/{transactionId} [delete]
// @Security XUserId
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.deleter.DeleteTransaction(r.Context(), vars["boardId"], vars["transactionId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTotals godoc
// @Summary Income and expense totals for a date range
// @Tags Ledger
// @Produce json
// @Param boardId path string true "Board ID"
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day, inclusive (YYYY-MM-DD)"
// @Success 200 {object} TotalsDTO
// @Router /api/boards/{boardId}/totals [get]
// @Security XUserId
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.DateOnly, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, apperr.InvalidInput("invalid 'from' date: %v", err))
		return
	}
	to, err := time.Parse(time.DateOnly, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, apperr.InvalidInput("invalid 'to' date: %v", err))
		return
	}
	log.Debugf("aggregating transactions from %s to %s", from, to)
	totals, err := h.service.Aggregate(r.Context(), mux.Vars(r)["boardId"], from, to)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TotalsDTO{
		From:     from.Format(time.DateOnly),
		To:       to.Format(time.DateOnly),
		Income:   totals.Income,
		Expenses: totals.Expenses,
		Net:      totals.Net(),
	})
}

// MonthParam reads the "month" query parameter, defaulting to the clock's current month.
func MonthParam(r *http.Request, clock utils.Clock) (Month, error) {
	value := r.URL.Query().Get("month")
	if value == "" {
		return MonthOf(clock.Now()), nil
	}
	month, err := ParseMonth(value)
	if err != nil {
		return Month{}, apperr.InvalidInput("%v", err)
	}
	return month, nil
}

func TransactionToDTO(t Transaction) TransactionDTO {
	return TransactionDTO{
		Id:           t.Id,
		Title:        t.Title,
		Amount:       t.Amount,
		Date:         t.Date.Format(time.DateOnly),
		CategoryId:   t.CategoryId,
		Type:         t.Type,
		LinkedBillId: t.LinkedBillId,
		CreatedBy:    t.CreatedBy,
	}
}

func DTOToTransaction(dto TransactionDTO) (Transaction, error) {
	t := Transaction{
		Id:           dto.Id,
		Title:        dto.Title,
		Amount:       dto.Amount,
		CategoryId:   dto.CategoryId,
		Type:         dto.Type,
		LinkedBillId: dto.LinkedBillId,
	}
	if dto.Date != "" {
		date, err := time.Parse(time.DateOnly, dto.Date)
		if err != nil {
			return Transaction{}, apperr.InvalidInput("invalid date %q, expected YYYY-MM-DD", dto.Date)
		}
		t.Date = date
	}
	return t, nil
}
