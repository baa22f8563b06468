package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"HoldemTable/internal/game/dealer"
	"HoldemTable/internal/game/engine"
	"HoldemTable/internal/game/table"
	"HoldemTable/internal/presence"
	"HoldemTable/internal/utils"
	"HoldemTable/internal/websocket"

	"github.com/google/uuid"
)

const (
	defaultMaxAttempts  = 5
	defaultWriteTimeout = 3 * time.Second
	maxSeats            = 10
)

// Config 入桌流程的能力开关
type Config struct {
	MaxAttempts     int           // 冲突重试上限（含首次）
	Waitlist        bool          // 牌局进行中时排队而非拒绝
	DealOnThreshold bool          // 达到 minPlayers 时自动下盲发牌
	WriteTimeout    time.Duration // 单次存储写 / 直接推送超时
}

// Broadcaster 把 session 推给桌上所有连接
type Broadcaster interface {
	Broadcast(ctx context.Context, tableID string, payload any) presence.Report
}

type Service struct {
	store Store
	cfg   Config

	// 以下协作者均可选，nil 时跳过对应步骤
	Registry    presence.Registry
	Notifier    presence.Notifier
	Broadcaster Broadcaster

	// NewDealer 每次发牌新建，默认 crypto 种子；测试中可注入固定种子
	NewDealer func() *dealer.Dealer
}

func NewService(store Store, cfg Config) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Service{
		store: store,
		cfg:   cfg,
		NewDealer: dealer.NewSecureDealer,
	}
}

// joinOutcome 一次成功提交的结果
type joinOutcome struct {
	session table.Session
	message string
	waiting bool
}

// Join 入桌：校验 → 入座或排队 → 达到人数则发牌 → CAS 写回 → 更新连接 → 广播 + 单独通知。
// 写冲突时从读取开始整段重试，而不是只重试写。
func (s *Service) Join(ctx context.Context, req JoinRequest) (table.Session, string, error) {
	if req.TableID == "" || req.PlayerID == "" {
		return table.Session{}, "", ErrBadRequest
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return table.Session{}, "", err
			}
		}

		out, err := s.tryJoin(ctx, req)
		if err == nil {
			s.afterCommit(ctx, req, out)
			return out.session, out.message, nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return table.Session{}, "", err
		}
		lastErr = err
		utils.Log.Warn("join retry", "table", req.TableID, "player", req.PlayerID, "attempt", attempt, "err", err)
	}

	return table.Session{}, "", fmt.Errorf("%w: join %s after %d attempts: %w",
		ErrUnavailable, req.TableID, s.cfg.MaxAttempts, lastErr)
}

func (s *Service) tryJoin(ctx context.Context, req JoinRequest) (joinOutcome, error) {
	cur, err := s.store.Get(ctx, req.TableID)
	if errors.Is(err, ErrNotFound) {
		return joinOutcome{}, ErrNotFound
	}
	if err != nil {
		return joinOutcome{}, fmt.Errorf("%w: read %s: %w", errStorage, req.TableID, err)
	}

	if len(cur.Players) >= cur.MaxPlayers {
		return joinOutcome{}, ErrCapacityExceeded
	}
	if cur.Seated(req.PlayerID) || cur.Waiting(req.PlayerID) {
		return joinOutcome{}, ErrAlreadyJoined
	}

	next := cur.Clone()

	// 牌局进行中：只追加等待队列
	if cur.GameInProgress {
		if !s.cfg.Waitlist {
			return joinOutcome{}, ErrForbidden
		}
		next.WaitingPlayers = append(next.WaitingPlayers, req.PlayerID)
		if err := s.write(ctx, &next, table.FieldWaitingPlayers); err != nil {
			return joinOutcome{}, err
		}
		return joinOutcome{session: next, message: msgWaiting, waiting: true}, nil
	}

	next.Players = append(next.Players, table.NewPlayer(req.PlayerID, len(next.Players), next.BuyIn))
	next.PlayerCount = len(next.Players)
	fields := table.SeatFields
	message := msgSeated

	if s.cfg.DealOnThreshold && len(next.Players) >= next.MinPlayers && len(next.Players) >= 2 {
		dealt, err := engine.Deal(next, s.NewDealer())
		if err != nil {
			return joinOutcome{}, fmt.Errorf("deal %s: %w", req.TableID, err)
		}
		next = dealt
		next.GameStarted = true
		next.GameInProgress = true
		fields = table.DealFields
		message += msgStarted
	}

	if err := s.write(ctx, &next, fields...); err != nil {
		return joinOutcome{}, err
	}
	return joinOutcome{session: next, message: message}, nil
}

// write 提交前检查请求是否已取消；一旦开始写入则不再受请求取消影响，只受超时约束
func (s *Service) write(ctx context.Context, next *table.Session, fields ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	v, err := s.store.Update(wctx, *next, fields...)
	switch {
	case err == nil:
		next.Version = v
		return nil
	case errors.Is(err, ErrStorageConflict), errors.Is(err, ErrNotFound):
		return err
	default:
		return fmt.Errorf("%w: write %s: %w", errStorage, next.TableID, err)
	}
}

// afterCommit 已提交后的副作用均为尽力而为，失败只记录日志
func (s *Service) afterCommit(ctx context.Context, req JoinRequest, out joinOutcome) {
	ctx = context.WithoutCancel(ctx)

	if s.Registry != nil && req.ConnectionID != "" {
		s.attachConnection(ctx, req, out.waiting)
	}

	if out.waiting {
		utils.Log.Info("player queued", "table", req.TableID, "player", req.PlayerID)
		s.notify(ctx, req.ConnectionID, websocket.OutgoingMessage{
			Action:  websocket.ActionWaitingForNextGame,
			Message: out.message,
		})
		return
	}

	utils.Log.Info("player seated", "table", req.TableID, "player", req.PlayerID,
		"seats", len(out.session.Players), "started", out.session.GameInProgress)

	if s.Broadcaster != nil {
		s.Broadcaster.Broadcast(ctx, req.TableID, websocket.OutgoingMessage{
			Action:     websocket.ActionUpdateGameState,
			Data:       out.session,
			StatusCode: http.StatusOK,
		})
	}
	s.notify(ctx, req.ConnectionID, websocket.OutgoingMessage{
		Action:      websocket.ActionJoinGame,
		Message:     msgJoined,
		GameDetails: out.session,
		StatusCode:  http.StatusOK,
	})
}

// attachConnection 在已有连接记录上补全桌子/玩家归属，保留持有该连接的节点
func (s *Service) attachConnection(ctx context.Context, req JoinRequest, waiting bool) {
	conn, err := s.Registry.Get(ctx, req.ConnectionID)
	switch {
	case errors.Is(err, presence.ErrConnectionNotFound):
		conn = presence.Connection{ConnectionID: req.ConnectionID}
	case err != nil:
		utils.Log.Error("read connection failed", "conn", req.ConnectionID, "err", err)
		return
	}
	conn.TableID = req.TableID
	conn.PlayerID = req.PlayerID
	conn.Waiting = waiting
	if err := s.Registry.Put(ctx, conn); err != nil {
		utils.Log.Error("update connection failed", "conn", req.ConnectionID, "err", err)
	}
}

func (s *Service) notify(ctx context.Context, connectionID string, msg websocket.OutgoingMessage) {
	if s.Notifier == nil || connectionID == "" {
		return
	}
	nctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	if err := s.Notifier.Deliver(nctx, connectionID, msg); err != nil {
		utils.Log.Warn("notify requester failed", "conn", connectionID, "action", msg.Action, "err", err)
	}
}

// CreateTable 建桌，tableId 为空时生成 uuid
func (s *Service) CreateTable(ctx context.Context, cfg TableConfig) (table.Session, error) {
	if err := validateTable(cfg); err != nil {
		return table.Session{}, err
	}
	if cfg.TableID == "" {
		cfg.TableID = uuid.NewString()
	}

	sess := table.Session{
		TableID:         cfg.TableID,
		Players:         []table.Player{},
		MaxPlayers:      cfg.MaxPlayers,
		MinPlayers:      cfg.MinPlayers,
		BuyIn:           cfg.BuyIn,
		InitialBigBlind: cfg.InitialBigBlind,
		SmallBlindIndex: cfg.SmallBlindIndex,
		WaitingPlayers:  []string{},
		GameStage:       table.StageWaiting,
		Deck:            []table.Card{},
	}
	if err := s.store.Create(ctx, sess); err != nil {
		if errors.Is(err, ErrTableExists) {
			return table.Session{}, err
		}
		return table.Session{}, fmt.Errorf("%w: create %s: %w", ErrUnavailable, cfg.TableID, err)
	}
	sess.Version = 1
	utils.Log.Info("table created", "table", sess.TableID, "min", sess.MinPlayers, "max", sess.MaxPlayers)
	return sess, nil
}

// Table 读取当前权威 session，错过广播的客户端以此恢复
func (s *Service) Table(ctx context.Context, tableID string) (table.Session, error) {
	sess, err := s.store.Get(ctx, tableID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return table.Session{}, fmt.Errorf("%w: read %s: %w", ErrUnavailable, tableID, err)
	}
	return sess, err
}

func validateTable(cfg TableConfig) error {
	switch {
	case cfg.MinPlayers < 2:
		return fmt.Errorf("%w: minPlayers must be at least 2", ErrInvalidTable)
	case cfg.MaxPlayers < cfg.MinPlayers:
		return fmt.Errorf("%w: maxPlayers must not be below minPlayers", ErrInvalidTable)
	case cfg.MaxPlayers > maxSeats:
		return fmt.Errorf("%w: maxPlayers must not exceed %d", ErrInvalidTable, maxSeats)
	case cfg.BuyIn <= 0:
		return fmt.Errorf("%w: buyIn must be positive", ErrInvalidTable)
	case cfg.InitialBigBlind <= 0:
		return fmt.Errorf("%w: initialBigBlind must be positive", ErrInvalidTable)
	case cfg.InitialBigBlind > cfg.BuyIn:
		return fmt.Errorf("%w: initialBigBlind must not exceed buyIn", ErrInvalidTable)
	case cfg.SmallBlindIndex < 0 || cfg.SmallBlindIndex >= cfg.MinPlayers:
		return fmt.Errorf("%w: smallBlindIndex must be a seat filled before the deal", ErrInvalidTable)
	}
	return nil
}

func retryable(err error) bool {
	return errors.Is(err, ErrStorageConflict) || errors.Is(err, errStorage)
}

// sleepBackoff 指数退避 + 抖动，避免冲突的请求同时重试
func sleepBackoff(ctx context.Context, attempt int) error {
	delay := min(5*time.Millisecond<<min(attempt-2, 6), 200*time.Millisecond)
	delay = delay/2 + time.Duration(rand.Int64N(int64(delay)))

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
