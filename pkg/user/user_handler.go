package user

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// CurrentUser godoc
// @Summary Get the current user
// @Description Returns the identity the request was authenticated with
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 401 {string} string "User not found"
// @Router /api/user/current [get]
// @Security XUserId
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting current user")
	w.Header().Set("Content-Type", "application/json")
	u, err := CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err := json.NewEncoder(w).Encode(UserDTO{Id: u.Id, DisplayName: u.DisplayName}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
