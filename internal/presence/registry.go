package presence

import (
	"context"
	"errors"
)

// ErrGone 连接已失效，投递方返回它表示该连接应从注册表中清理
var ErrGone = errors.New("connection gone")

// ErrConnectionNotFound 注册表中没有该连接
var ErrConnectionNotFound = errors.New("connection not found")

// Connection 一条长连接与桌子/玩家的归属关系。
// NodeID 为持有该 socket 的进程（Hub），为空视为本节点。
type Connection struct {
	ConnectionID string `json:"connectionId"`
	NodeID       string `json:"nodeId"`
	TableID      string `json:"tableId"`
	PlayerID     string `json:"playerId"`
	Waiting      bool   `json:"waiting"`
}

// Registry 连接注册表，按连接 ID 独立存取，互不冲突
type Registry interface {
	// Put 新增或覆盖连接记录（TableID 变化时同步更新桌子索引）
	Put(ctx context.Context, c Connection) error
	// Get 返回 ErrConnectionNotFound 表示不存在
	Get(ctx context.Context, connectionID string) (Connection, error)
	// ListByTable 返回某桌所有已注册连接
	ListByTable(ctx context.Context, tableID string) ([]Connection, error)
	// Delete 删除连接，不存在时不报错
	Delete(ctx context.Context, connectionID string) error
}

// Notifier 向本节点持有的单个连接投递消息；连接已失效时返回 ErrGone
type Notifier interface {
	Deliver(ctx context.Context, connectionID string, payload any) error
}
