package lobby

import (
	"context"

	"HoldemTable/internal/game/table"
)

// Store 桌子 session 的持久化抽象，以 tableId 为键
type Store interface {
	// Create 写入新桌（version 置 1），已存在返回 ErrTableExists
	Create(ctx context.Context, s table.Session) error
	// Get 读取完整 session，不存在返回 ErrNotFound
	Get(ctx context.Context, tableID string) (table.Session, error)
	// Update 仅当存储中的 version 仍等于 s.Version 时写入指定字段并递增 version，
	// 返回新 version；version 不符返回 ErrStorageConflict
	Update(ctx context.Context, s table.Session, fields ...string) (int64, error)
}
