package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"HoldemTable/internal/utils"

	"github.com/redis/go-redis/v9"
)

// Relay 把投递转发给持有该连接的其他节点
type Relay interface {
	// Forward 目标节点已无订阅者时返回 ErrGone
	Forward(ctx context.Context, nodeID, connectionID string, payload any) error
}

// RedisRelay 每个节点订阅 presence:node:{nodeId}，其他节点向该频道发布
type RedisRelay struct {
	rdb  *redis.Client
	node string
}

type relayEnvelope struct {
	ConnectionID string          `json:"connectionId"`
	Payload      json.RawMessage `json:"payload"`
}

func NewRedisRelay(rdb *redis.Client, nodeID string) *RedisRelay {
	return &RedisRelay{rdb: rdb, node: nodeID}
}

func nodeChannel(nodeID string) string {
	return fmt.Sprintf("presence:node:%s", nodeID)
}

func (r *RedisRelay) Forward(ctx context.Context, nodeID, connectionID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}
	msg, err := json.Marshal(relayEnvelope{ConnectionID: connectionID, Payload: body})
	if err != nil {
		return err
	}
	n, err := r.rdb.Publish(ctx, nodeChannel(nodeID), msg).Result()
	if err != nil {
		return err
	}
	// 没有订阅者说明持有节点已下线，连接随之失效
	if n == 0 {
		return ErrGone
	}
	return nil
}

// Start 订阅本节点频道，返回时订阅已生效；转发来的消息交给 local 投递，
// 本地已不存在的连接从 registry 删除。ctx 结束时退订。
func (r *RedisRelay) Start(ctx context.Context, local Notifier, registry Registry, deliveryTimeout time.Duration) error {
	if deliveryTimeout <= 0 {
		deliveryTimeout = defaultDeliveryTimeout
	}
	sub := r.rdb.Subscribe(ctx, nodeChannel(r.node))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", nodeChannel(r.node), err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				r.handle(ctx, m.Payload, local, registry, deliveryTimeout)
			}
		}
	}()
	utils.Log.Info("relay subscribed", "node", r.node)
	return nil
}

func (r *RedisRelay) handle(ctx context.Context, raw string, local Notifier, registry Registry, timeout time.Duration) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		utils.Log.Warn("relay: bad envelope", "node", r.node, "err", err)
		return
	}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	err := local.Deliver(dctx, env.ConnectionID, env.Payload)
	cancel()

	switch {
	case err == nil:
	case errors.Is(err, ErrGone):
		if derr := registry.Delete(context.WithoutCancel(ctx), env.ConnectionID); derr != nil {
			utils.Log.Warn("relay: prune failed", "conn", env.ConnectionID, "err", derr)
		}
	default:
		utils.Log.Warn("relay: delivery failed", "conn", env.ConnectionID, "err", err)
	}
}
