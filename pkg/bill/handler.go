package bill

import (
	"net/http"
	"strconv"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/rest"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BillDTO struct {
	Id                string          `json:"id"`
	Title             string          `json:"title"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           string          `json:"dueDate"`
	CategoryId        string          `json:"categoryId"`
	Notes             string          `json:"notes"`
	Paid              bool            `json:"paid"`
	PaidByUserId      string          `json:"paidByUserId,omitempty"`
	PaidByDisplayName string          `json:"paidByDisplayName,omitempty"`
	IsSharedCopy      bool            `json:"isSharedCopy"`
	OriginalBoardId   string          `json:"originalBoardId,omitempty"`
	OriginalBillId    string          `json:"originalBillId,omitempty"`
	SharedByUserId    string          `json:"sharedByUserId,omitempty"`
}

type ShareRequest struct {
	TargetBoardIds []string `json:"targetBoardIds"`
}

type ShareResultDTO struct {
	BoardId string `json:"boardId"`
	BillId  string `json:"billId,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

type ShareResponse struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []ShareResultDTO `json:"results"`
}

type PaymentLinkDTO struct {
	URL      string `json:"url"`
	Display  string `json:"display"`
	Currency string `json:"currency"`
}

type ViolationDTO struct {
	BillId         string        `json:"billId"`
	Kind           ViolationKind `json:"kind"`
	TransactionIds []string      `json:"transactionIds,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListBills godoc
// @Summary List bills ordered by due date
// @Tags Bill
// @Produce json
// @Param boardId path string true "Board ID"
// @Param unpaid query bool false "Only unpaid bills"
// @Success 200 {array} BillDTO
// @Router /api/boards/{boardId}/bills [get]
// @Security XUserId
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	unpaidOnly := false
	if value := r.URL.Query().Get("unpaid"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			rest.WriteError(w, apperr.InvalidInput("invalid 'unpaid' parameter %q", value))
			return
		}
		unpaidOnly = parsed
	}
	bills, err := h.service.ListBills(r.Context(), mux.Vars(r)["boardId"], unpaidOnly)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]BillDTO, 0, len(bills))
	for _, b := range bills {
		dtos = append(dtos, BillToDTO(b))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateBill godoc
// @Summary Create an unpaid bill
// @Tags Bill
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param bill body BillDTO true "Bill"
// @Success 201 {object} BillDTO
// @Router /api/boards/{boardId}/bills [post]
// @Security XUserId
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	b, ok := decodeBill(w, r)
	if !ok {
		return
	}
	created, err := h.service.CreateBill(r.Context(), mux.Vars(r)["boardId"], b)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, BillToDTO(created))
}

// GetBill godoc
// @Summary Get a bill
// @Tags Bill
// @Produce json
// @Param boardId path string true "Board ID"
// @Param billId path string true "Bill ID"
// @Success 200 {object} BillDTO
// @Router /api/boards/{boardId}/bills/{billId} [get]
// @Security XUserId
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	b, err := h.service.GetBill(r.Context(), vars["boardId"], vars["billId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BillToDTO(b))
}

// UpdateBill godoc
// @Summary Edit a bill
// @Description The paid state is changed through /paid only.
// @Tags Bill
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param billId path string true "Bill ID"
// @Param bill body BillDTO true "Bill"
// @Success 200 {object} BillDTO
// @Router /api/boards/{boardId}/bills/{billId} [put]
// @Security XUserId
func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	b, ok := decodeBill(w, r)
	if !ok {
		return
	}
	b.Id = vars["billId"]
	updated, err := h.service.UpdateBill(r.Context(), vars["boardId"], b)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BillToDTO(updated))
}

// DeleteBill godoc
// @Summary Delete a bill and its linked transaction
// @Tags Bill
// @Param boardId path string true "Board ID"
// @Param billId path string true "Bill ID"
// @Success 204 "No Content"
// @Router /api/boards/{boardId}/bills/{billId} [delete]
// @Security XUserId
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.service.DeleteBill(r.Context(), vars["boardId"], vars["billId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkPaid godoc
// @Summary Mark a bill paid
// @Description Creates the linked expense dated today. Repeating the call changes nothing.
// @Tags Bill
// @Produce json
// @Param boardId path string true "Board ID"
// @Param billId path string true "Bill ID"
// @Success 200 {object} BillDTO
// @Router /api/boards/{boardId}/bills/{billId}/paid [put]
// @Security XUserId
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	b, err := h.service.MarkPaid(r.Context(), vars["boardId"], vars["billId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BillToDTO(b))
}

// MarkUnpaid godoc
// @Summary Mark a bill unpaid
// @Description Deletes the linked expense. Repeating the call changes nothing.
// @Tags Bill
// @Produce json
// @Param boardId path string true "Board ID"
// @Param billId path string true "Bill ID"
// @Success 200 {object} BillDTO
// @Router /api/boards/{boardId}/bills/{billId}/paid [delete]
// @Security XUserId
func (h *Handler) MarkUnpaid(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	b, err := h.service.MarkUnpaid(r.Context(), vars["boardId"], vars["billId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BillToDTO(b))
}

// ShareBill godoc
// @Summary Copy a bill to other boards
// @Description Every target is written independently; the response lists the outcome per board.
// @Tags Bill
// @Accept json
// @Produce json
// @Param boardId path string true "Source board ID"
// @Param billId path string true "Bill ID"
// @Param share body ShareRequest true "Targets"
// @Success 200 {object} ShareResponse
// @Router /api/boards/{boardId}/bills/{billId}/share [post]
// @Security XUserId
func (h *Handler) ShareBill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req ShareRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}
	results, err := h.service.ShareBill(r.Context(), vars["boardId"], vars["billId"], req.TargetBoardIds)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	response := ShareResponse{Results: make([]ShareResultDTO, 0, len(results))}
	for _, result := range results {
		dto := ShareResultDTO{BoardId: result.BoardId, BillId: result.BillId}
		if result.Err != nil {
			_, dto.Kind = rest.ErrorStatus(result.Err)
			dto.Error = result.Err.Error()
			response.Failed++
		} else {
			response.Succeeded++
		}
		response.Results = append(response.Results, dto)
	}
	rest.WriteJSON(w, http.StatusOK, response)
}

// PaymentLink godoc
// @Summary Payment request deep link for an unpaid bill
// @Tags Bill
// @Produce json
// @Param boardId path string true "Board ID"
// @Param billId path string true "Bill ID"
// @Success 200 {object} PaymentLinkDTO
// @Router /api/boards/{boardId}/bills/{billId}/payment-link [get]
// @Security XUserId
func (h *Handler) PaymentLink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	req, err := h.service.PaymentLink(r.Context(), vars["boardId"], vars["billId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, PaymentLinkDTO{URL: req.URL, Display: req.Display, Currency: req.Currency})
}

// Verify godoc
// @Summary List bills whose paid flag disagrees with their linked transactions
// @Tags Bill
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {array} ViolationDTO
// @Router /api/boards/{boardId}/integrity [get]
// @Security XUserId
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	violations, err := h.service.Verify(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, violationsToDTO(violations))
}

// Heal godoc
// @Summary Repair bills whose paid flag disagrees with their linked transactions
// @Tags Bill
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {array} ViolationDTO
// @Router /api/boards/{boardId}/integrity [post]
// @Security XUserId
func (h *Handler) Heal(w http.ResponseWriter, r *http.Request) {
	repaired, err := h.service.Heal(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debugf("repaired %d bills", len(repaired))
	rest.WriteJSON(w, http.StatusOK, violationsToDTO(repaired))
}

func decodeBill(w http.ResponseWriter, r *http.Request) (Bill, bool) {
	var dto BillDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return Bill{}, false
	}
	b, err := DTOToBill(dto)
	if err != nil {
		rest.WriteError(w, err)
		return Bill{}, false
	}
	return b, true
}

func BillToDTO(b Bill) BillDTO {
	return BillDTO{
		Id:                b.Id,
		Title:             b.Title,
		Amount:            b.Amount,
		DueDate:           b.DueDate.Format(time.DateOnly),
		CategoryId:        b.CategoryId,
		Notes:             b.Notes,
		Paid:              b.Paid,
		PaidByUserId:      b.PaidByUserId,
		PaidByDisplayName: b.PaidByDisplayName,
		IsSharedCopy:      b.IsSharedCopy,
		OriginalBoardId:   b.OriginalBoardId,
		OriginalBillId:    b.OriginalBillId,
		SharedByUserId:    b.SharedByUserId,
	}
}

// DTOToBill takes the editable fields only; paid state and provenance are owned by the service.
func DTOToBill(dto BillDTO) (Bill, error) {
	dueDate, err := time.Parse(time.DateOnly, dto.DueDate)
	if err != nil {
		return Bill{}, apperr.InvalidInput("invalid due date %q, expected YYYY-MM-DD", dto.DueDate)
	}
	return Bill{
		Title:      dto.Title,
		Amount:     dto.Amount,
		DueDate:    dueDate,
		CategoryId: dto.CategoryId,
		Notes:      dto.Notes,
	}, nil
}

func violationsToDTO(violations []Violation) []ViolationDTO {
	dtos := make([]ViolationDTO, 0, len(violations))
	for _, v := range violations {
		dtos = append(dtos, ViolationDTO{BillId: v.BillId, Kind: v.Kind, TransactionIds: v.TransactionIds})
	}
	return dtos
}

