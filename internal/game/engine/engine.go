package engine

import (
	"errors"
	"fmt"

	"HoldemTable/internal/game/dealer"
	"HoldemTable/internal/game/table"
)

// ErrNotEnoughPlayers 少于两人无法发牌
var ErrNotEnoughPlayers = errors.New("at least two players required to deal")

// BigBlindIndex 大盲位在小盲位左手
func BigBlindIndex(s table.Session) int {
	return (s.SmallBlindIndex + 1) % len(s.Players)
}

// Deal 下盲注 + 发底牌，返回新的 session，不修改传入的 s。
// 给定相同种子的 dealer，结果是确定的。
func Deal(s table.Session, d *dealer.Dealer) (table.Session, error) {
	n := len(s.Players)
	if n < 2 {
		return s, ErrNotEnoughPlayers
	}
	if s.SmallBlindIndex < 0 || s.SmallBlindIndex >= n {
		return s, fmt.Errorf("small blind index %d out of range for %d players", s.SmallBlindIndex, n)
	}

	out := s.Clone()

	smallBlind := s.InitialBigBlind / 2
	bigBlind := s.InitialBigBlind
	bbIndex := BigBlindIndex(s)

	d.NewDeck()
	hands, err := d.DealHoleCards(n)
	if err != nil {
		return s, err
	}

	for i := range out.Players {
		var bet int64
		switch i {
		case s.SmallBlindIndex:
			bet = smallBlind
		case bbIndex:
			bet = bigBlind
		}
		p := &out.Players[i]
		p.Chips -= bet
		p.PotContribution += bet
		p.Bet = bet
		p.Hand = hands[i]
	}

	out.Pot += smallBlind + bigBlind
	out.Deck = d.Remaining()
	out.GameStage = table.StagePreFlop
	out.HighestBet = bigBlind
	out.BettingStarted = true
	// 大盲左手第一个行动
	out.CurrentTurn = (bbIndex + 1) % n

	return out, nil
}
