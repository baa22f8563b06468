package lobby

import (
	"context"
	"fmt"

	"HoldemTable/internal/game/table"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

// key 约定：
//
//	hash: session:{tableId}   -> field -> JSON 文本，另有 version 计数
func sessionKey(tableID string) string {
	return fmt.Sprintf("session:%s", tableID)
}

// KEYS[1] = sessionKey, ARGV = field1, value1, ...
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
    return 0
end
for i = 1, #ARGV, 2 do
    redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
redis.call("HSET", KEYS[1], "version", 1)
return 1
`)

// 比较并写入：version 不符返回 0，不存在返回 -1，成功返回新 version
// KEYS[1] = sessionKey, ARGV[1] = 期望 version, ARGV[2..] = field, value, ...
var updateScript = redis.NewScript(`
local v = redis.call("HGET", KEYS[1], "version")
if not v then
    return -1
end
if tonumber(v) ~= tonumber(ARGV[1]) then
    return 0
end
for i = 2, #ARGV, 2 do
    redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
return redis.call("HINCRBY", KEYS[1], "version", 1)
`)

func (r *redisStore) Create(ctx context.Context, s table.Session) error {
	fields, err := table.EncodeFields(s, table.AllFields...)
	if err != nil {
		return err
	}
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	created, err := createScript.Run(ctx, r.rdb, []string{sessionKey(s.TableID)}, args...).Int64()
	if err != nil {
		return err
	}
	if created == 0 {
		return ErrTableExists
	}
	return nil
}

func (r *redisStore) Get(ctx context.Context, tableID string) (table.Session, error) {
	h, err := r.rdb.HGetAll(ctx, sessionKey(tableID)).Result()
	if err != nil {
		return table.Session{}, err
	}
	if len(h) == 0 {
		return table.Session{}, ErrNotFound
	}
	return table.DecodeFields(h)
}

func (r *redisStore) Update(ctx context.Context, s table.Session, fields ...string) (int64, error) {
	enc, err := table.EncodeFields(s, fields...)
	if err != nil {
		return 0, err
	}
	args := make([]any, 0, 1+2*len(enc))
	args = append(args, s.Version)
	for k, v := range enc {
		args = append(args, k, v)
	}

	res, err := updateScript.Run(ctx, r.rdb, []string{sessionKey(s.TableID)}, args...).Int64()
	if err != nil {
		return 0, err
	}
	switch res {
	case -1:
		return 0, ErrNotFound
	case 0:
		return 0, ErrStorageConflict
	}
	return res, nil
}
