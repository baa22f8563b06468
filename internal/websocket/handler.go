package websocket

import (
	"net/http"

	"HoldemTable/internal/presence"
	"HoldemTable/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /ws
// 建立连接时分配 connectionId 并以本节点名义登记到注册表，桌子/玩家归属在 joinGame 时补全
func ServeWS(hub *Hub, registry presence.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := newClient(uuid.NewString(), conn, hub)
		if err := registry.Put(c.Request.Context(), presence.Connection{ConnectionID: client.ID, NodeID: hub.NodeID}); err != nil {
			utils.Log.Error("register connection failed", "conn", client.ID, "err", err)
			_ = conn.Close()
			return
		}

		hub.Register(client)
		client.Send <- OutgoingMessage{
			Action:       ActionConnected,
			StatusCode:   http.StatusOK,
			ConnectionID: client.ID,
		}

		go client.writePump()
		go client.readPump()
	}
}
