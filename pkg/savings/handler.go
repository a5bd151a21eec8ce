package savings

import (
	"context"
	"net/http"

	"github.com/boardledger/boardledger/internal/rest"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type GoalDTO struct {
	Id            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Reached       bool            `json:"reached"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListGoals godoc
// @Summary List savings goals
// @Tags Savings
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {array} GoalDTO
// @Router /api/boards/{boardId}/goals [get]
// @Security XUserId
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.ListGoals(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]GoalDTO, 0, len(goals))
	for _, g := range goals {
		dtos = append(dtos, GoalToDTO(g))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateGoal godoc
// @Summary Create a savings goal
// @Tags Savings
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param goal body GoalDTO true "Goal"
// @Success 201 {object} GoalDTO
// @Router /api/boards/{boardId}/goals [post]
// @Security XUserId
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var dto GoalDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	created, err := h.service.CreateGoal(r.Context(), mux.Vars(r)["boardId"], DTOToGoal(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, GoalToDTO(created))
}

// UpdateGoal godoc
// @Summary Rename a savings goal or change its target
// @Tags Savings
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param goalId path string true "Goal ID"
// @Param goal body GoalDTO true "Goal"
// @Success 200 {object} GoalDTO
// @Router /api/boards/{boardId}/goals/{goalId} [put]
// @Security XUserId
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var dto GoalDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	g := DTOToGoal(dto)
	g.Id = vars["goalId"]
	updated, err := h.service.UpdateGoal(r.Context(), vars["boardId"], g)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, GoalToDTO(updated))
}

// DeleteGoal godoc
// @Summary Delete a savings goal
// @Tags Savings
// @Param boardId path string true "Board ID"
// @Param goalId path string true "Goal ID"
// @Success 204 "No Content"
// @Router /api/boards/{boardId}/goals/{goalId} [delete]
// @Security XUserId
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.service.DeleteGoal(r.Context(), vars["boardId"], vars["goalId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deposit godoc
// @Summary Add money to a goal, up to its target
// @Tags Savings
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param goalId path string true "Goal ID"
// @Param amount body AmountRequest true "Amount"
// @Success 200 {object} GoalDTO
// @Router /api/boards/{boardId}/goals/{goalId}/deposit [post]
// @Security XUserId
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.service.Deposit)
}

// Withdraw godoc
// @Summary Take money from a goal, down to zero
// @Tags Savings
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param goalId path string true "Goal ID"
// @Param amount body AmountRequest true "Amount"
// @Success 200 {object} GoalDTO
// @Router /api/boards/{boardId}/goals/{goalId}/withdraw [post]
// @Security XUserId
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.service.Withdraw)
}

type adjustFunc func(ctx context.Context, boardId string, id string, amount decimal.Decimal) (Goal, error)

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, fn adjustFunc) {
	vars := mux.Vars(r)
	var req AmountRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}
	g, err := fn(r.Context(), vars["boardId"], vars["goalId"], req.Amount)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, GoalToDTO(g))
}

func GoalToDTO(g Goal) GoalDTO {
	return GoalDTO{Id: g.Id, Name: g.Name, TargetAmount: g.TargetAmount, CurrentAmount: g.CurrentAmount, Reached: g.Reached()}
}

func DTOToGoal(dto GoalDTO) Goal {
	return Goal{Name: dto.Name, TargetAmount: dto.TargetAmount}
}
