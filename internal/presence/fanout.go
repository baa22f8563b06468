package presence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"HoldemTable/internal/utils"
)

const defaultDeliveryTimeout = 2 * time.Second

// Report 一次广播的投递结果统计
type Report struct {
	Delivered int
	Relayed   int // 转发给其他节点
	Skipped   int // 属于其他节点但未配置 Relay
	Pruned    int
	Failed    int
}

// Fanout 把同一条状态推送给某桌的所有连接，并清理失效连接
type Fanout struct {
	registry Registry
	notifier Notifier
	timeout  time.Duration

	// Node 本节点 ID；NodeID 不同的连接交给 Relay，Relay 为 nil 时跳过，绝不当作失效清理
	Node  string
	Relay Relay
}

func NewFanout(registry Registry, notifier Notifier, deliveryTimeout time.Duration) *Fanout {
	if deliveryTimeout <= 0 {
		deliveryTimeout = defaultDeliveryTimeout
	}
	return &Fanout{registry: registry, notifier: notifier, timeout: deliveryTimeout}
}

// Broadcast 并发投递，等待所有投递结束后返回统计，部分失败不报错
func (f *Fanout) Broadcast(ctx context.Context, tableID string, payload any) Report {
	conns, err := f.registry.ListByTable(ctx, tableID)
	if err != nil {
		utils.Log.Error("fanout: list connections failed", "table", tableID, "err", err)
		return Report{}
	}

	var delivered, relayed, skipped, pruned, failed atomic.Int64
	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c Connection) {
			defer wg.Done()

			remote := c.NodeID != "" && c.NodeID != f.Node
			if remote && f.Relay == nil {
				skipped.Add(1)
				return
			}

			dctx, cancel := context.WithTimeout(ctx, f.timeout)
			var err error
			if remote {
				err = f.Relay.Forward(dctx, c.NodeID, c.ConnectionID, payload)
			} else {
				err = f.notifier.Deliver(dctx, c.ConnectionID, payload)
			}
			cancel()

			switch {
			case err == nil && remote:
				relayed.Add(1)
			case err == nil:
				delivered.Add(1)
			case errors.Is(err, ErrGone):
				pruned.Add(1)
				// 清理失效连接；与投递本身不要求原子
				if derr := f.registry.Delete(context.WithoutCancel(ctx), c.ConnectionID); derr != nil {
					utils.Log.Warn("fanout: prune failed", "conn", c.ConnectionID, "err", derr)
				}
			default:
				failed.Add(1)
				utils.Log.Warn("fanout: delivery failed", "table", tableID, "conn", c.ConnectionID, "err", err)
			}
		}(c)
	}
	wg.Wait()

	r := Report{
		Delivered: int(delivered.Load()),
		Relayed:   int(relayed.Load()),
		Skipped:   int(skipped.Load()),
		Pruned:    int(pruned.Load()),
		Failed:    int(failed.Load()),
	}
	utils.Log.Debug("fanout done", "table", tableID, "delivered", r.Delivered, "relayed", r.Relayed,
		"skipped", r.Skipped, "pruned", r.Pruned, "failed", r.Failed)
	return r
}
