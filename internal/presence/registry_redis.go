package presence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type redisRegistry struct {
	rdb *redis.Client
}

func NewRedisRegistry(rdb *redis.Client) Registry {
	return &redisRegistry{rdb: rdb}
}

// key 约定：
//
//	hash: presence:conn:{connectionId}   -> nodeId / tableId / playerId / waiting
//	set : presence:table:{tableId}       -> Set(connectionId,...)
func connKey(id string) string {
	return fmt.Sprintf("presence:conn:%s", id)
}
func tableConnsKey(tableID string) string {
	return fmt.Sprintf("presence:table:%s", tableID)
}

func (r *redisRegistry) Put(ctx context.Context, c Connection) error {
	oldTable, err := r.rdb.HGet(ctx, connKey(c.ConnectionID), "tableId").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, connKey(c.ConnectionID),
			"nodeId", c.NodeID,
			"tableId", c.TableID,
			"playerId", c.PlayerID,
			"waiting", strconv.FormatBool(c.Waiting),
		)
		if oldTable != "" && oldTable != c.TableID {
			p.SRem(ctx, tableConnsKey(oldTable), c.ConnectionID)
		}
		if c.TableID != "" {
			p.SAdd(ctx, tableConnsKey(c.TableID), c.ConnectionID)
		}
		return nil
	})
	return err
}

func (r *redisRegistry) Get(ctx context.Context, connectionID string) (Connection, error) {
	h, err := r.rdb.HGetAll(ctx, connKey(connectionID)).Result()
	if err != nil {
		return Connection{}, err
	}
	if len(h) == 0 {
		return Connection{}, ErrConnectionNotFound
	}
	return fromHash(connectionID, h), nil
}

func (r *redisRegistry) ListByTable(ctx context.Context, tableID string) ([]Connection, error) {
	ids, err := r.rdb.SMembers(ctx, tableConnsKey(tableID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	p := r.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = p.HGetAll(ctx, connKey(id))
	}
	if _, err := p.Exec(ctx); err != nil {
		return nil, err
	}

	out := make([]Connection, 0, len(ids))
	var dangling []any
	for i, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 || h["tableId"] != tableID {
			dangling = append(dangling, ids[i])
			continue
		}
		out = append(out, fromHash(ids[i], h))
	}
	if len(dangling) > 0 {
		_ = r.rdb.SRem(ctx, tableConnsKey(tableID), dangling...).Err()
	}
	return out, nil
}

func (r *redisRegistry) Delete(ctx context.Context, connectionID string) error {
	tableID, err := r.rdb.HGet(ctx, connKey(connectionID), "tableId").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, connKey(connectionID))
		if tableID != "" {
			p.SRem(ctx, tableConnsKey(tableID), connectionID)
		}
		return nil
	})
	return err
}

func fromHash(id string, h map[string]string) Connection {
	waiting, _ := strconv.ParseBool(h["waiting"])
	return Connection{
		ConnectionID: id,
		NodeID:       h["nodeId"],
		TableID:      h["tableId"],
		PlayerID:     h["playerId"],
		Waiting:      waiting,
	}
}
