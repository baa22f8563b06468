package manager

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"HoldemTable/internal/game/table"
	"HoldemTable/internal/lobby"
	"HoldemTable/internal/utils"
	"HoldemTable/internal/websocket"
)

const defaultTimeout = 5 * time.Second

// Joiner 由 lobby.Service 实现
type Joiner interface {
	Join(ctx context.Context, req lobby.JoinRequest) (table.Session, string, error)
	Table(ctx context.Context, tableID string) (table.Session, error)
}

// Router 把客户端经 websocket 发来的 action 分发到大厅服务
type Router struct {
	joiner  Joiner
	hub     websocket.HubInterface
	timeout time.Duration
}

func NewRouter(joiner Joiner, hub websocket.HubInterface, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Router{joiner: joiner, hub: hub, timeout: timeout}
}

// HandlePlayerMessage 统一入口（来自 Hub.OnIncoming）
func (r *Router) HandlePlayerMessage(msg websocket.IncomingMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	switch msg.Action {

	case websocket.ActionJoinGame:
		r.handleJoin(ctx, msg)

	case websocket.ActionGetGameState:
		r.handleGetState(ctx, msg)

	default:
		r.reply(ctx, msg.From, websocket.OutgoingMessage{
			Action:     websocket.ActionError,
			StatusCode: http.StatusBadRequest,
			Message:    "unknown action: " + msg.Action,
		})
	}
}

// 成功时确认消息由 Service 推送，这里只回错误
func (r *Router) handleJoin(ctx context.Context, msg websocket.IncomingMessage) {
	var req lobby.JoinRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			r.replyJoinError(ctx, msg.From, lobby.ErrBadRequest)
			return
		}
	}
	// 以实际连接为准，忽略客户端自报的 connectionId
	req.ConnectionID = msg.From

	if _, _, err := r.joiner.Join(ctx, req); err != nil {
		if lobby.StatusCode(err) >= http.StatusInternalServerError {
			utils.Log.Error("ws join failed", "conn", msg.From, "table", req.TableID, "err", err)
		}
		r.replyJoinError(ctx, msg.From, err)
	}
}

func (r *Router) replyJoinError(ctx context.Context, conn string, err error) {
	r.reply(ctx, conn, websocket.OutgoingMessage{
		Action:     websocket.ActionJoinGame,
		StatusCode: lobby.StatusCode(err),
		Message:    lobby.UserMessage(err),
	})
}

func (r *Router) handleGetState(ctx context.Context, msg websocket.IncomingMessage) {
	var req struct {
		TableID string `json:"tableId"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.TableID == "" {
		r.reply(ctx, msg.From, websocket.OutgoingMessage{
			Action:     websocket.ActionUpdateGameState,
			StatusCode: http.StatusBadRequest,
			Message:    "tableId is required",
		})
		return
	}

	sess, err := r.joiner.Table(ctx, req.TableID)
	if err != nil {
		r.reply(ctx, msg.From, websocket.OutgoingMessage{
			Action:     websocket.ActionUpdateGameState,
			StatusCode: lobby.StatusCode(err),
			Message:    lobby.UserMessage(err),
		})
		return
	}
	r.reply(ctx, msg.From, websocket.OutgoingMessage{
		Action:     websocket.ActionUpdateGameState,
		StatusCode: http.StatusOK,
		Data:       sess,
	})
}

func (r *Router) reply(ctx context.Context, conn string, out websocket.OutgoingMessage) {
	if err := r.hub.Deliver(ctx, conn, out); err != nil {
		utils.Log.Warn("ws reply failed", "conn", conn, "action", out.Action, "err", err)
	}
}
