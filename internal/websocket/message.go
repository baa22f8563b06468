package websocket

import "encoding/json"

// 推送给客户端的 action 名称
const (
	ActionConnected          = "connected"
	ActionJoinGame           = "joinGame"
	ActionUpdateGameState    = "updateGameState"
	ActionWaitingForNextGame = "waitingForNextGame"
	ActionGetGameState       = "getGameState"
	ActionError              = "error"
)

type OutgoingMessage struct {
	Action       string `json:"action"`
	StatusCode   int    `json:"statusCode,omitempty"`
	Message      string `json:"message,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
	Data         any    `json:"data,omitempty"`
	GameDetails  any    `json:"gameDetails,omitempty"`
}

type IncomingMessage struct {
	From   string          `json:"from"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}
