package table

import (
	"fmt"
	"slices"
)

// Stage 牌局阶段
type Stage string

const (
	StageWaiting  Stage = "waiting"
	StagePreFlop  Stage = "preFlop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
)

// Session 一张桌子的完整持久化状态
type Session struct {
	TableID         string   `json:"tableId"`
	Players         []Player `json:"players"`
	PlayerCount     int      `json:"playerCount"`
	MaxPlayers      int      `json:"maxPlayers"`
	MinPlayers      int      `json:"minPlayers"`
	BuyIn           int64    `json:"buyIn"`
	InitialBigBlind int64    `json:"initialBigBlind"`
	SmallBlindIndex int      `json:"smallBlindIndex"`
	WaitingPlayers  []string `json:"waitingPlayers"`

	// 运行时状态
	GameInProgress bool   `json:"gameInProgress"`
	GameStarted    bool   `json:"gameStarted"`
	BettingStarted bool   `json:"bettingStarted"`
	Pot            int64  `json:"pot"`
	HighestBet     int64  `json:"highestBet"`
	CurrentTurn    int    `json:"currentTurn"`
	GameStage      Stage  `json:"gameStage"`
	Deck           []Card `json:"deck"`

	// Version 每次写成功由存储层递增，用于 CAS
	Version int64 `json:"version"`
}

// Player 以值的形式只属于一个 Session
type Player struct {
	ID              string  `json:"id"`
	Position        int     `json:"position"`
	Chips           int64   `json:"chips"`
	Bet             int64   `json:"bet"`
	PotContribution int64   `json:"potContribution"`
	Hand            []Card  `json:"hand"`
	InHand          bool    `json:"inHand"`
	IsAllIn         bool    `json:"isAllIn"`
	HasActed        bool    `json:"hasActed"`
	IsReady         bool    `json:"isReady"`
	AmountWon       int64   `json:"amountWon"`
	HandDescription *string `json:"handDescription"`
	BestHand        []Card  `json:"bestHand"`
}

// NewPlayer 以买入筹码创建新入座玩家
func NewPlayer(id string, position int, buyIn int64) Player {
	return Player{
		ID:       id,
		Position: position,
		Chips:    buyIn,
		Hand:     []Card{},
		InHand:   true,
	}
}

// Seated 玩家是否已入座
func (s *Session) Seated(playerID string) bool {
	for _, p := range s.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// Waiting 玩家是否在等待下一局
func (s *Session) Waiting(playerID string) bool {
	for _, id := range s.WaitingPlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

// Clone 深拷贝，返回值与 s 不共享任何切片
func (s Session) Clone() Session {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Hand = slices.Clone(p.Hand)
		p.BestHand = slices.Clone(p.BestHand)
		out.Players[i] = p
	}
	out.WaitingPlayers = slices.Clone(s.WaitingPlayers)
	out.Deck = slices.Clone(s.Deck)
	return out
}

// Card 定义 (suit 0-3, rank 2-14)
type Card struct {
	Suit int `json:"suit"`
	Rank int `json:"rank"`
}

func (c Card) String() string {
	return fmtCard(c)
}

func fmtCard(c Card) string {
	suits := []string{"♣", "♦", "♥", "♠"}
	ranks := map[int]string{
		11: "J",
		12: "Q",
		13: "K",
		14: "A",
	}
	rankStr, ok := ranks[c.Rank]
	if !ok {
		rankStr = fmt.Sprintf("%d", c.Rank)
	}
	suitStr := "?"
	if c.Suit >= 0 && c.Suit < len(suits) {
		suitStr = suits[c.Suit]
	}
	return rankStr + suitStr
}
