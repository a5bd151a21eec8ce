package savings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boardledger/boardledger/pkg/user"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, userId string) (http.Handler, func()) {
	teardown := setup(t)
	handler := NewHandler(service)
	r := mux.NewRouter()
	r.HandleFunc("/api/boards/{boardId}/goals", handler.ListGoals).Methods(http.MethodGet)
	r.HandleFunc("/api/boards/{boardId}/goals", handler.CreateGoal).Methods(http.MethodPost)
	r.HandleFunc("/api/boards/{boardId}/goals/{goalId}/deposit", handler.Deposit).Methods(http.MethodPost)
	r.HandleFunc("/api/boards/{boardId}/goals/{goalId}/withdraw", handler.Withdraw).Methods(http.MethodPost)
	withUser := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := user.WithUser(req.Context(), user.User{Id: userId, DisplayName: userId})
		r.ServeHTTP(w, req.WithContext(ctx))
	})
	return withUser, teardown
}

func TestHandler_CreateAndDeposit(t *testing.T) {
	router, teardown := setupRouter(t, "editor")
	defer teardown()

	req := httptest.NewRequest(http.MethodPost, "/api/boards/b1/goals", bytes.NewBufferString(`{"name":"Bike","targetAmount":"300"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var created GoalDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	req = httptest.NewRequest(http.MethodPost, "/api/boards/b1/goals/"+created.Id+"/deposit", bytes.NewBufferString(`{"amount":"500"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var dto GoalDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	assert.True(t, decimal.NewFromInt(300).Equal(dto.CurrentAmount))
	assert.True(t, dto.Reached)
}

func TestHandler_Withdraw_ViewerForbidden(t *testing.T) {
	router, teardown := setupRouter(t, "viewer")
	defer teardown()
	repoStub.Put(vacation(100))

	req := httptest.NewRequest(http.MethodPost, "/api/boards/b1/goals/g1/withdraw", bytes.NewBufferString(`{"amount":"50"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_Deposit_MalformedBody(t *testing.T) {
	router, teardown := setupRouter(t, "editor")
	defer teardown()
	repoStub.Put(vacation(100))

	req := httptest.NewRequest(http.MethodPost, "/api/boards/b1/goals/g1/deposit", bytes.NewBufferString(`{"amount":`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
