package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/boardledger/boardledger/pkg/user"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-User-Id"

var boards *board.RepositoryStub

// setupServer serves the hub acting as userId, or as the user named in the X-User-Id header.
func setupServer(t *testing.T, userId string) (*Hub, *event_bus.EventBus, *httptest.Server) {
	boards = board.NewRepositoryStub()
	boards.Put(board.Board{Id: "b1", OwnerId: "owner", MemberIds: []string{"owner", "viewer"}, MemberRoles: map[string]board.Role{"viewer": board.RoleViewer}})
	boards.Put(board.Board{Id: "b2", OwnerId: "other", MemberIds: []string{"other"}})
	bus := event_bus.NewEventBus()
	hub := NewHub(boards, bus)

	r := mux.NewRouter()
	r.HandleFunc("/api/boards/{boardId}/live", hub.HandleLive)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(testUserHeader)
		if id == "" {
			id = userId
		}
		ctx := user.WithUser(req.Context(), user.User{Id: id, DisplayName: id})
		r.ServeHTTP(w, req.WithContext(ctx))
	}))
	t.Cleanup(func() {
		_ = hub.Close()
		server.Close()
	})
	return hub, bus, server
}

func TestHub_PushesOnlyEventsOfTheSubscribedBoard(t *testing.T) {
	hub, bus, server := setupServer(t, "viewer")
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/boards/b1/live"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Sessions() == 1 }, time.Second, 5*time.Millisecond)

	// when
	bus.PublishCommitted(context.Background(), event_bus.BillChangedType, event_bus.BillChanged{BoardId: "b2", BillId: "x", UserId: "other"})
	bus.PublishCommitted(context.Background(), event_bus.BillPaidType, event_bus.BillPaymentChanged{BoardId: "b1", BillId: "bill-1", UserId: "owner", Paid: true})

	// then
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, Message{Type: event_bus.BillPaidType, BoardId: "b1", UserId: "owner"}, msg)
}

func TestHub_RejectsNonMembers(t *testing.T) {
	hub, _, server := setupServer(t, "stranger")

	resp, err := http.Get(server.URL + "/api/boards/b1/live")

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Sessions())
}

func TestHub_IgnoresEventsWithoutBoard(t *testing.T) {
	hub, _, _ := setupServer(t, "viewer")

	err := hub.push(event_bus.NewEvent(context.Background(), event_bus.BoardChangedType, nil))

	assert.NoError(t, err)
}

func TestHub_StopsPushingToRemovedMembers(t *testing.T) {
	hub, bus, server := setupServer(t, "viewer")
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/boards/b1/live"

	viewerConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer viewerConn.Close()
	ownerConn, _, err := websocket.DefaultDialer.Dial(url, http.Header{testUserHeader: []string{"owner"}})
	require.NoError(t, err)
	defer ownerConn.Close()
	require.Eventually(t, func() bool { return hub.Sessions() == 2 }, time.Second, 5*time.Millisecond)

	// given
	boards.Put(board.Board{Id: "b1", OwnerId: "owner", MemberIds: []string{"owner"}})

	// when
	bus.PublishCommitted(context.Background(), event_bus.BillPaidType, event_bus.BillPaymentChanged{BoardId: "b1", BillId: "bill-1", UserId: "owner", Paid: true})

	// then
	require.NoError(t, ownerConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, ownerConn.ReadJSON(&msg))
	assert.Equal(t, event_bus.BillPaidType, msg.Type)

	require.NoError(t, viewerConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = viewerConn.ReadMessage()
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestHub_NotifiesEverySubscriberWhenTheBoardIsDeleted(t *testing.T) {
	hub, bus, server := setupServer(t, "viewer")
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/boards/b1/live"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Sessions() == 1 }, time.Second, 5*time.Millisecond)

	// given
	deleted, err := boards.DeleteBoard(context.Background(), "b1")
	require.NoError(t, err)
	require.True(t, deleted)

	// when
	bus.PublishCommitted(context.Background(), event_bus.BoardChangedType, event_bus.BoardChanged{BoardId: "b1", UserId: "owner"})

	// then
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, Message{Type: event_bus.BoardChangedType, BoardId: "b1", UserId: "owner"}, msg)
}
