package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"HoldemTable/internal/presence"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 两个进程各自一个 Hub，共用一个 redis 连接表
func TestTwoHubs_SharedRegistry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	reg := presence.NewRedisRegistry(rdb)

	hubA, hubB := startHub(t), startHub(t)
	a1 := fakeClient(hubA, "a1", 4)
	b1 := fakeClient(hubB, "b1", 4)
	hubA.Register(a1)
	hubB.Register(b1)
	require.NoError(t, reg.Put(ctx, presence.Connection{ConnectionID: "a1", NodeID: hubA.NodeID, TableID: "t1"}))
	require.NoError(t, reg.Put(ctx, presence.Connection{ConnectionID: "b1", NodeID: hubB.NodeID, TableID: "t1"}))

	msg := OutgoingMessage{Action: ActionUpdateGameState, StatusCode: 200}

	t.Run("without relay other node is left alone", func(t *testing.T) {
		f := presence.NewFanout(reg, hubA, 100*time.Millisecond)
		f.Node = hubA.NodeID

		report := f.Broadcast(ctx, "t1", msg)
		assert.Equal(t, presence.Report{Delivered: 1, Skipped: 1}, report)
		assert.Equal(t, msg, <-a1.Send)

		_, err := reg.Get(ctx, "b1")
		assert.NoError(t, err, "live connection on hub B must not be pruned by hub A")
	})

	t.Run("relay reaches the owning hub", func(t *testing.T) {
		require.NoError(t, presence.NewRedisRelay(rdb, hubB.NodeID).Start(ctx, hubB, reg, time.Second))

		f := presence.NewFanout(reg, hubA, time.Second)
		f.Node = hubA.NodeID
		f.Relay = presence.NewRedisRelay(rdb, hubA.NodeID)

		report := f.Broadcast(ctx, "t1", msg)
		assert.Equal(t, presence.Report{Delivered: 1, Relayed: 1}, report)
		assert.Equal(t, msg, <-a1.Send)

		select {
		case got := <-b1.Send:
			raw, ok := got.(json.RawMessage)
			require.True(t, ok)
			assert.JSONEq(t, `{"action":"updateGameState","statusCode":200}`, string(raw))
		case <-time.After(time.Second):
			t.Fatal("hub B did not receive the relayed message")
		}

		_, err := reg.Get(ctx, "b1")
		assert.NoError(t, err)
	})
}
