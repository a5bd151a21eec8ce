// Package live pushes board change notifications to websocket clients.
// Clients receive only a hint of what changed and reload the affected data.
package live

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/rest"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	log "github.com/sirupsen/logrus"
)

const (
	boardKey = "boardId"
	userKey  = "userId"
)

var pushedTypes = []event_bus.EventType{
	event_bus.TransactionChangedType,
	event_bus.BillPaidType,
	event_bus.BillUnpaidType,
	event_bus.BillChangedType,
	event_bus.BillDeletedType,
	event_bus.BoardChangedType,
	event_bus.SavingsGoalChangedType,
}

type Message struct {
	Type    event_bus.EventType `json:"type"`
	BoardId string              `json:"boardId"`
	UserId  string              `json:"userId"`
}

type Hub struct {
	m           *melody.Melody
	boards      board.Reader
	unsubscribe []func()
}

func NewHub(boards board.Reader, eventBus *event_bus.EventBus) *Hub {
	m := melody.New()
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		boardId, _ := s.Get(boardKey)
		log.Debugf("live client connected to board %v", boardId)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		boardId, _ := s.Get(boardKey)
		log.Debugf("live client disconnected from board %v", boardId)
	})
	m.HandleError(func(s *melody.Session, err error) {
		log.Warnf("live websocket error: %v", err)
	})

	h := &Hub{m: m, boards: boards}
	for _, eventType := range pushedTypes {
		h.unsubscribe = append(h.unsubscribe, eventBus.Subscribe(eventType, h.push))
	}
	return h
}

// HandleLive upgrades the request to a websocket subscribed to one board. Only members may subscribe.
func (h *Hub) HandleLive(w http.ResponseWriter, r *http.Request) {
	boardId := mux.Vars(r)["boardId"]
	access, err := board.ResolveAccess(r.Context(), h.boards, boardId)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	keys := map[string]any{boardKey: boardId, userKey: access.User.Id}
	if err := h.m.HandleRequestWithKeys(w, r, keys); err != nil {
		log.Warnf("failed to upgrade live connection for board %s: %v", boardId, err)
	}
}

// push delivers the event to the board's subscribers that are still members.
// A member removed after connecting stops receiving notices; once the board is
// gone every subscriber gets the final notice.
func (h *Hub) push(e event_bus.Event) error {
	scoped, ok := e.Data.(event_bus.BoardScoped)
	if !ok {
		log.Debugf("event %s has no board, not pushed", e.Type)
		return nil
	}
	boardId := scoped.Board()
	b, err := h.boards.GetBoard(e.Context(), boardId)
	deleted := errors.Is(err, board.ErrBoardNotFound)
	if err != nil && !deleted {
		return err
	}
	msg, err := json.Marshal(Message{Type: e.Type, BoardId: boardId, UserId: scoped.Actor()})
	if err != nil {
		return err
	}
	return h.m.BroadcastFilter(msg, func(s *melody.Session) bool {
		if sessionBoard, exists := s.Get(boardKey); !exists || sessionBoard != boardId {
			return false
		}
		if deleted {
			return true
		}
		userId, _ := s.Get(userKey)
		id, _ := userId.(string)
		return board.ResolveRole(b, id) != board.RoleNone
	})
}

// Sessions returns the number of connected clients.
func (h *Hub) Sessions() int {
	return h.m.Len()
}

func (h *Hub) Close() error {
	for _, unsubscribe := range h.unsubscribe {
		unsubscribe()
	}
	return h.m.Close()
}
