package websocket

import (
	"context"
	"sync"

	"HoldemTable/internal/presence"
	"HoldemTable/internal/utils"

	"github.com/google/uuid"
)

type HubInterface interface {
	Deliver(ctx context.Context, connectionID string, payload any) error
	Close()
}

type Hub struct {
	// NodeID 本进程标识，写入连接记录，供其他节点转发
	NodeID string
	// OnIncoming / OnLeave 须在 Run 之前设置
	OnIncoming func(IncomingMessage)
	OnLeave    func(connectionID string) // 连接注销后调用，如清理注册表

	clients    map[string]*Client // connectionID -> client
	unregister chan *Client
	incoming   chan IncomingMessage
	quit       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		NodeID:     uuid.NewString(),
		clients:    make(map[string]*Client),
		unregister: make(chan *Client),
		incoming:   make(chan IncomingMessage),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	utils.Log.Info("Hub started")

	for {
		select {
		case c := <-h.unregister:
			h.mu.Lock()
			left := false
			if cur, ok := h.clients[c.ID]; ok && cur == c {
				delete(h.clients, c.ID)
				close(c.done)
				left = true
				utils.Log.Info("Hub.unregister", "conn", c.ID, "clients", len(h.clients))
			}
			h.mu.Unlock()
			if left && h.OnLeave != nil {
				go h.OnLeave(c.ID)
			}

		case req := <-h.incoming:
			// 玩家消息统一转发给游戏层，异步处理避免阻塞 Hub
			if h.OnIncoming != nil {
				go h.OnIncoming(req)
			}

		case <-h.quit:
			h.mu.Lock()
			ids := make([]string, 0, len(h.clients))
			for id, c := range h.clients {
				close(c.done)
				delete(h.clients, id)
				ids = append(ids, id)
			}
			h.mu.Unlock()
			if h.OnLeave != nil {
				for _, id := range ids {
					h.OnLeave(id)
				}
			}
			return
		}
	}
}

// Register 同步登记，返回后即可投递
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()
	utils.Log.Info("Hub.register", "conn", c.ID, "clients", n)
}

// Deliver 投递到本节点持有的单个连接；不存在或已断开返回 presence.ErrGone。
// 其他节点的连接由 presence.Fanout 经 Relay 转发，不会走到这里。
// 各连接有独立缓冲，一个连接阻塞不会影响其他连接的投递。
func (h *Hub) Deliver(ctx context.Context, connectionID string, payload any) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return presence.ErrGone
	}

	select {
	case c.Send <- payload:
		return nil
	case <-c.done:
		return presence.ErrGone
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientByID 按连接 ID 查找本节点上的客户端
func (h *Hub) ClientByID(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) dispatch(msg IncomingMessage) {
	select {
	case h.incoming <- msg:
	case <-h.quit:
	}
}
