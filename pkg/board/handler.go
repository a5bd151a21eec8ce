package board

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/boardledger/boardledger/internal/rest"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type BoardDTO struct {
	Id        string      `json:"id"`
	Name      string      `json:"name"`
	OwnerId   string      `json:"ownerId"`
	Members   []MemberDTO `json:"members"`
	CreatedAt time.Time   `json:"createdAt"`
}

type MemberDTO struct {
	UserId string `json:"userId"`
	Role   Role   `json:"role"`
}

type BoardRequest struct {
	Name string `json:"name"`
}

type MemberRequest struct {
	Role string `json:"role"`
}

type RoleDTO struct {
	Role Role `json:"role"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListBoards godoc
// @Summary List boards of the current user
// @Tags Board
// @Produce json
// @Success 200 {array} BoardDTO
// @Router /api/boards [get]
// @Security XUserId
func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing boards")
	boards, err := h.service.ListBoards(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]BoardDTO, 0, len(boards))
	for _, b := range boards {
		dtos = append(dtos, BoardToDTO(b))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateBoard godoc
// @Summary Create a board owned by the current user
// @Tags Board
// @Accept json
// @Produce json
// @Param board body BoardRequest true "Board"
// @Success 201 {object} BoardDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/boards [post]
// @Security XUserId
func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating board")
	var req BoardRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}
	b, err := h.service.CreateBoard(r.Context(), req.Name)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, BoardToDTO(b))
}

// GetBoard godoc
// @Summary Get a board
// @Tags Board
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {object} BoardDTO
// @Failure 403 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/boards/{boardId} [get]
// @Security XUserId
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBoard(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BoardToDTO(b))
}

// RenameBoard godoc
// @Summary Rename a board
// @Tags Board
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param board body BoardRequest true "Board"
// @Success 200 {object} BoardDTO
// @Router /api/boards/{boardId} [put]
// @Security XUserId
func (h *Handler) RenameBoard(w http.ResponseWriter, r *http.Request) {
	var req BoardRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}
	b, err := h.service.RenameBoard(r.Context(), mux.Vars(r)["boardId"], req.Name)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BoardToDTO(b))
}

// DeleteBoard godoc
// @Summary Delete a board (owner only)
// @Tags Board
// @Param boardId path string true "Board ID"
// @Success 204 "No Content"
// @Router /api/boards/{boardId} [delete]
// @Security XUserId
func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBoard(r.Context(), mux.Vars(r)["boardId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRole godoc
// @Summary Get the current user's role on a board
// @Tags Board
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {object} RoleDTO
// @Router /api/boards/{boardId}/role [get]
// @Security XUserId
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.CurrentRole(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, RoleDTO{Role: role})
}

// SetMember godoc
// @Summary Add a member or change its role (owner only)
// @Tags Board
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param userId path string true "Member user ID"
// @Param member body MemberRequest true "Role"
// @Success 200 {object} BoardDTO
// @Router /api/boards/{boardId}/members/{userId} [put]
// @Security XUserId
func (h *Handler) SetMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req MemberRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}
	b, err := h.service.SetMember(r.Context(), vars["boardId"], vars["userId"], Role(req.Role))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BoardToDTO(b))
}

// RemoveMember godoc
// @Summary Remove a member, or leave the board
// @Tags Board
// @Param boardId path string true "Board ID"
// @Param userId path string true "Member user ID"
// @Success 204 "No Content"
// @Router /api/boards/{boardId}/members/{userId} [delete]
// @Security XUserId
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := h.service.RemoveMember(r.Context(), vars["boardId"], vars["userId"]); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func BoardToDTO(b Board) BoardDTO {
	members := make([]MemberDTO, 0, len(b.MemberIds)+1)
	members = append(members, MemberDTO{UserId: b.OwnerId, Role: RoleOwner})
	for _, id := range b.MemberIds {
		if id == b.OwnerId {
			continue
		}
		members = append(members, MemberDTO{UserId: id, Role: ResolveRole(b, id)})
	}
	slices.SortFunc(members[1:], func(a, b MemberDTO) int { return strings.Compare(a.UserId, b.UserId) })
	return BoardDTO{Id: b.Id, Name: b.Name, OwnerId: b.OwnerId, Members: members, CreatedAt: b.CreatedAt}
}
