package lobby

// JoinRequest 入桌请求；ConnectionID 为空时（纯 HTTP 调用）不更新连接记录、不单独推送
type JoinRequest struct {
	TableID      string `json:"tableId" binding:"required"`
	PlayerID     string `json:"playerId" binding:"required"`
	ConnectionID string `json:"connectionId"`
}

// JoinResponse 入桌同步响应
type JoinResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Action     string `json:"action"`
}

// TableConfig 建桌参数，建桌后不可变
type TableConfig struct {
	TableID         string `json:"tableId"`
	MaxPlayers      int    `json:"maxPlayers" binding:"required"`
	MinPlayers      int    `json:"minPlayers" binding:"required"`
	BuyIn           int64  `json:"buyIn" binding:"required"`
	InitialBigBlind int64  `json:"initialBigBlind" binding:"required"`
	SmallBlindIndex int    `json:"smallBlindIndex"`
}

const (
	msgSeated  = "Player added successfully."
	msgStarted = " Minimum number of players reached. Game started!"
	msgWaiting = "Game is already in progress. You have been added to the waiting list for the next game."
	msgJoined  = "You have joined the game."
)
