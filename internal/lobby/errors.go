package lobby

import (
	"errors"
	"net/http"
)

var (
	ErrBadRequest       = errors.New("tableId and playerId are required")
	ErrNotFound         = errors.New("game session not found")
	ErrCapacityExceeded = errors.New("maximum number of players reached")
	ErrAlreadyJoined    = errors.New("player already joined this table")
	ErrForbidden        = errors.New("game is already in progress")
	ErrInvalidTable     = errors.New("invalid table configuration")
	ErrTableExists      = errors.New("table already exists")

	// ErrStorageConflict 并发写冲突，整段 join 逻辑需要重读重试
	ErrStorageConflict = errors.New("storage conflict")
	// ErrUnavailable 重试耗尽或存储不可用
	ErrUnavailable = errors.New("storage unavailable")

	// errStorage 标记可重试的存储故障
	errStorage = errors.New("storage failure")
)

// StatusCode 把错误映射为响应状态码
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrInvalidTable):
		return http.StatusBadRequest
	case errors.Is(err, ErrTableExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage 返回给玩家的提示文案
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Game session not found."
	case errors.Is(err, ErrCapacityExceeded):
		return "Maximum number of players reached."
	case errors.Is(err, ErrForbidden):
		return "Game is already in progress. You can only spectate."
	case errors.Is(err, ErrAlreadyJoined):
		return "You have already joined this game."
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidTable), errors.Is(err, ErrTableExists):
		return err.Error()
	default:
		return "Failed to join game"
	}
}
