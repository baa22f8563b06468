package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HoldemTable/config"
	"HoldemTable/internal/game/manager"
	"HoldemTable/internal/lobby"
	"HoldemTable/internal/presence"
	"HoldemTable/internal/storage"
	"HoldemTable/internal/utils"
	"HoldemTable/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfgPath := os.Getenv("HOLDEM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	if err := config.Load(cfgPath); err != nil {
		utils.Log.Fatal("load config failed", "path", cfgPath, "err", err)
	}
	utils.Init(config.C.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//-------------------------------------------------------
	// 1. 存储：session store + 连接表
	//-------------------------------------------------------
	store, registry, rdb, closeStorage := openStorage(ctx)
	defer closeStorage()

	//-------------------------------------------------------
	// 2. Hub（必须最先启动）
	//-------------------------------------------------------
	hub := websocket.NewHub()

	//-------------------------------------------------------
	// 3. 大厅服务：入桌 / 发牌 / 广播
	//-------------------------------------------------------
	svc := lobby.NewService(store, lobby.Config{
		MaxAttempts:     config.C.Join.MaxAttempts,
		Waitlist:        config.C.Join.Waitlist,
		DealOnThreshold: config.C.Join.DealOnThreshold,
		WriteTimeout:    config.C.Join.WriteTimeout,
	})
	svc.Registry = registry
	svc.Notifier = hub
	if config.C.Broadcast.Enabled {
		fanout := presence.NewFanout(registry, hub, config.C.Broadcast.DeliveryTimeout)
		fanout.Node = hub.NodeID
		// redis 模式下连接表跨进程共享，其他节点的连接经 pub/sub 转发
		if rdb != nil {
			relay := presence.NewRedisRelay(rdb, hub.NodeID)
			if err := relay.Start(ctx, hub, registry, config.C.Broadcast.DeliveryTimeout); err != nil {
				utils.Log.Fatal("relay subscribe failed", "err", err)
			}
			fanout.Relay = relay
		}
		svc.Broadcaster = fanout
	}

	// 💡 websocket 消息交给 Router
	router := manager.NewRouter(svc, hub, 0)
	hub.OnIncoming = router.HandlePlayerMessage
	hub.OnLeave = func(id string) {
		if err := registry.Delete(context.Background(), id); err != nil {
			utils.Log.Warn("drop connection failed", "conn", id, "err", err)
		}
	}
	go hub.Run()
	defer hub.Close()

	//-------------------------------------------------------
	// 4. Gin + CORS
	//-------------------------------------------------------
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := lobby.NewHandler(svc)
	r.POST("/table", h.Create)
	r.GET("/table/:id", h.Get)
	r.POST("/table/join", h.Join)

	r.GET("/ws", websocket.ServeWS(hub, registry))

	//-------------------------------------------------------
	// 5. 启动服务器
	//-------------------------------------------------------
	srv := &http.Server{Addr: config.C.Server.Port, Handler: r}
	go func() {
		utils.Log.Info("Server running", "addr", config.C.Server.Port, "storage", config.C.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	utils.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Log.Error("shutdown failed", "err", err)
	}
}

// openStorage 按 storage.driver 选择后端；redis 模式下连接表与转发共用同一个客户端，其余模式 rdb 为 nil
func openStorage(ctx context.Context) (lobby.Store, presence.Registry, *redis.Client, func()) {
	switch config.C.Storage.Driver {
	case "redis":
		rdb, err := storage.OpenRedis(ctx, config.C.Redis.Addr, config.C.Redis.Password, config.C.Redis.DB)
		if err != nil {
			utils.Log.Fatal("Redis init failed", "err", err)
		}
		return lobby.NewRedisStore(rdb), presence.NewRedisRegistry(rdb), rdb, func() { rdb.Close() }

	case "postgres":
		db, err := storage.OpenPostgres(ctx, config.C.Database.DSN)
		if err != nil {
			utils.Log.Fatal("Postgres init failed", "err", err)
		}
		store, err := lobby.NewPostgresStore(ctx, db)
		if err != nil {
			utils.Log.Fatal("Postgres migrate failed", "err", err)
		}
		return store, presence.NewMemoryRegistry(), nil, func() { db.Close() }

	case "memory":
		utils.Log.Warn("using in-memory storage, state is lost on restart")
		return lobby.NewMemoryStore(), presence.NewMemoryRegistry(), nil, func() {}

	default:
		utils.Log.Fatal("unknown storage driver", "driver", config.C.Storage.Driver)
		return nil, nil, nil, nil
	}
}
