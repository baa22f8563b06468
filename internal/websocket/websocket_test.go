package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"HoldemTable/internal/presence"
	"HoldemTable/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.Discard()
	gin.SetMode(gin.TestMode)
	m.Run()
}

func fakeClient(hub *Hub, id string, buf int) *Client {
	return &Client{ID: id, Send: make(chan any, buf), Hub: hub, done: make(chan struct{})}
}

func startHub(t *testing.T) *Hub {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func TestHubDeliver(t *testing.T) {
	hub := startHub(t)
	c1 := fakeClient(hub, "c1", 1)
	c2 := fakeClient(hub, "c2", 1)
	hub.Register(c1)
	hub.Register(c2)

	msg := OutgoingMessage{Action: ActionUpdateGameState, StatusCode: 200}
	require.NoError(t, hub.Deliver(context.Background(), "c1", msg))

	assert.Equal(t, msg, <-c1.Send)
	select {
	case <-c2.Send:
		assert.Fail(t, "c2 should NOT receive anything")
	default:
	}
}

func TestHubDeliver_UnknownIsGone(t *testing.T) {
	hub := startHub(t)
	err := hub.Deliver(context.Background(), "nobody", "x")
	assert.ErrorIs(t, err, presence.ErrGone)
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := startHub(t)
	c := fakeClient(hub, "c1", 1)

	hub.Register(c)
	_, ok := hub.ClientByID("c1")
	require.True(t, ok, "client should be registered")

	hub.unregister <- c
	time.Sleep(10 * time.Millisecond)

	_, ok = hub.ClientByID("c1")
	assert.False(t, ok, "client should be removed after unregister")
	assert.ErrorIs(t, hub.Deliver(context.Background(), "c1", "x"), presence.ErrGone)
}

func TestHubDeliver_FullBufferTimesOut(t *testing.T) {
	hub := startHub(t)
	c := fakeClient(hub, "slow", 1)
	hub.Register(c)
	require.NoError(t, hub.Deliver(context.Background(), "slow", "first"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := hub.Deliver(ctx, "slow", "second")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHubDeliver_BlockedClientDoesNotBlockOthers(t *testing.T) {
	hub := startHub(t)
	slow := fakeClient(hub, "slow", 0)
	fast := fakeClient(hub, "fast", 1)
	hub.Register(slow)
	hub.Register(fast)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _ = hub.Deliver(ctx, "slow", "stuck") }()

	require.NoError(t, hub.Deliver(context.Background(), "fast", "ok"))
	assert.Equal(t, "ok", <-fast.Send)
}

func TestServeWS_EndToEnd(t *testing.T) {
	got := make(chan IncomingMessage, 1)
	reg := presence.NewMemoryRegistry()
	hub := NewHub()
	hub.OnIncoming = func(m IncomingMessage) { got <- m }
	hub.OnLeave = func(id string) { _ = reg.Delete(context.Background(), id) }
	go hub.Run()
	t.Cleanup(hub.Close)

	r := gin.New()
	r.GET("/ws", ServeWS(hub, reg))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// 首帧带回 connectionId
	var hello OutgoingMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, ActionConnected, hello.Action)
	require.NotEmpty(t, hello.ConnectionID)

	rec, err := reg.Get(context.Background(), hello.ConnectionID)
	require.NoError(t, err)
	assert.Empty(t, rec.TableID)
	assert.Equal(t, hub.NodeID, rec.NodeID)

	// 客户端帧转发给 OnIncoming
	require.NoError(t, conn.WriteJSON(map[string]any{
		"action": ActionJoinGame,
		"data":   map[string]string{"tableId": "t1", "playerId": "p1"},
	}))
	select {
	case m := <-got:
		assert.Equal(t, hello.ConnectionID, m.From)
		assert.Equal(t, ActionJoinGame, m.Action)
		assert.JSONEq(t, `{"tableId":"t1","playerId":"p1"}`, string(m.Data))
	case <-time.After(time.Second):
		t.Fatal("incoming message not dispatched")
	}

	// 服务端推送
	require.NoError(t, hub.Deliver(context.Background(), hello.ConnectionID,
		OutgoingMessage{Action: ActionUpdateGameState, StatusCode: 200}))
	var pushed OutgoingMessage
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, ActionUpdateGameState, pushed.Action)

	// 断开后投递返回 ErrGone
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return hub.Deliver(context.Background(), hello.ConnectionID, "x") != nil
	}, time.Second, 10*time.Millisecond)

	// 注销后连接记录被清理，未入桌的连接不会残留
	assert.Eventually(t, func() bool {
		_, err := reg.Get(context.Background(), hello.ConnectionID)
		return errors.Is(err, presence.ErrConnectionNotFound)
	}, time.Second, 10*time.Millisecond)
}

func TestHub_OnLeave(t *testing.T) {
	left := make(chan string, 2)
	hub := NewHub()
	hub.OnLeave = func(id string) { left <- id }
	go hub.Run()

	c1 := fakeClient(hub, "c1", 1)
	c2 := fakeClient(hub, "c2", 1)
	hub.Register(c1)
	hub.Register(c2)

	hub.remove(c1)
	select {
	case id := <-left:
		assert.Equal(t, "c1", id)
	case <-time.After(time.Second):
		t.Fatal("OnLeave not called on unregister")
	}

	// 重复注销不再回调
	hub.remove(c1)

	// 关闭 Hub 时剩余连接同样回调
	hub.Close()
	select {
	case id := <-left:
		assert.Equal(t, "c2", id)
	case <-time.After(time.Second):
		t.Fatal("OnLeave not called on close")
	}
}

func TestNewHub_UniqueNode(t *testing.T) {
	assert.NotEqual(t, NewHub().NodeID, NewHub().NodeID)
}
