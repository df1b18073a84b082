package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	return hub
}

func registerClient(t *testing.T, hub *Hub, userID uint, staff bool) *Client {
	t.Helper()
	before := hub.SessionCount(userID)
	client := NewClient(hub, nil, userID, staff)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.SessionCount(userID) == before+1 }, time.Second, 5*time.Millisecond)
	return client
}

func receiveEvent(t *testing.T, client *Client) OrderEvent {
	t.Helper()
	select {
	case raw := <-client.Send:
		var event OrderEvent
		require.NoError(t, json.Unmarshal(raw, &event))
		return event
	case <-time.After(time.Second):
		t.Fatalf("no event for user %d", client.UserID)
		return OrderEvent{}
	}
}

func assertSilent(t *testing.T, client *Client) {
	t.Helper()
	select {
	case raw := <-client.Send:
		t.Fatalf("unexpected event for user %d: %s", client.UserID, raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PublishOrderStatus(t *testing.T) {
	hub := startHub(t)

	phone := registerClient(t, hub, 1, false)
	laptop := registerClient(t, hub, 1, false)
	stranger := registerClient(t, hub, 2, false)
	staff := registerClient(t, hub, 3, true)

	hub.PublishOrderStatus(&model.Order{
		ID:           10,
		UserID:       uintPtr(1),
		OrderNumber:  "MODA1760870400K3Q9ZD",
		Status:       model.OrderStatusShipped,
		TrackingCode: "CX123456CL",
	})

	for _, c := range []*Client{phone, laptop, staff} {
		event := receiveEvent(t, c)
		assert.Equal(t, EventOrderStatus, event.Type)
		assert.Equal(t, uint(10), event.OrderID)
		assert.Equal(t, model.OrderStatusShipped, event.Status)
		assert.Equal(t, "CX123456CL", event.TrackingCode)
	}
	assertSilent(t, stranger)
}

func TestHub_OrderWithoutOwnerReachesStaffOnly(t *testing.T) {
	hub := startHub(t)
	customer := registerClient(t, hub, 1, false)
	staff := registerClient(t, hub, 2, true)

	hub.PublishOrderStatus(&model.Order{ID: 4, OrderNumber: "MODA1", Status: model.OrderStatusCancelled})

	assert.Equal(t, uint(4), receiveEvent(t, staff).OrderID)
	assertSilent(t, customer)
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	first := registerClient(t, hub, 1, false)
	second := registerClient(t, hub, 1, false)

	hub.Unregister(first)
	require.Eventually(t, func() bool { return hub.SessionCount(1) == 1 }, time.Second, 5*time.Millisecond)

	_, open := <-first.Send
	assert.False(t, open)

	hub.PublishOrderStatus(&model.Order{ID: 5, UserID: uintPtr(1), Status: model.OrderStatusPicking})
	assert.Equal(t, uint(5), receiveEvent(t, second).OrderID)

	hub.Unregister(second)
	require.Eventually(t, func() bool { return hub.SessionCount(1) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_HandleClientMessage(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 1, false)

	hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	require.Len(t, client.Send, 1)
	assert.JSONEq(t, `{"type":"pong"}`, string(<-client.Send))

	hub.HandleClientMessage(client, []byte(`not json`))
	hub.HandleClientMessage(client, []byte(`{"type":"subscribe"}`))
	assert.Empty(t, client.Send)

	for i := 0; i < maxMessagesPerSecond; i++ {
		hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	}
	assert.Len(t, client.Send, maxMessagesPerSecond-3)
}

func TestClient_Pumps(t *testing.T) {
	hub := startHub(t)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, &Conn{Conn: conn}, 7, false)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	defer server.Close()

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.SessionCount(7) == 1 }, time.Second, 5*time.Millisecond)

	hub.PublishOrderStatus(&model.Order{ID: 9, UserID: uintPtr(7), OrderNumber: "MODA9", Status: model.OrderStatusDelivered})

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
	var event OrderEvent
	require.NoError(t, peer.ReadJSON(&event))
	assert.Equal(t, "MODA9", event.OrderNumber)
	assert.Equal(t, model.OrderStatusDelivered, event.Status)

	require.NoError(t, peer.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	var pong ClientMessage
	require.NoError(t, peer.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	require.NoError(t, peer.Close())
	require.Eventually(t, func() bool { return hub.SessionCount(7) == 0 }, time.Second, 5*time.Millisecond)
}
