package table

import (
	"encoding/json"
	"fmt"
	"strings"
)

// 持久化字段名，与 Session 的 json tag 一一对应
const (
	FieldTableID         = "tableId"
	FieldPlayers         = "players"
	FieldPlayerCount     = "playerCount"
	FieldMaxPlayers      = "maxPlayers"
	FieldMinPlayers      = "minPlayers"
	FieldBuyIn           = "buyIn"
	FieldInitialBigBlind = "initialBigBlind"
	FieldSmallBlindIndex = "smallBlindIndex"
	FieldWaitingPlayers  = "waitingPlayers"
	FieldGameInProgress  = "gameInProgress"
	FieldGameStarted     = "gameStarted"
	FieldBettingStarted  = "bettingStarted"
	FieldPot             = "pot"
	FieldHighestBet      = "highestBet"
	FieldCurrentTurn     = "currentTurn"
	FieldGameStage       = "gameStage"
	FieldDeck            = "deck"
	FieldVersion         = "version"
)

// AllFields 除 version 外的全部字段，建桌时整体写入
var AllFields = []string{
	FieldTableID, FieldPlayers, FieldPlayerCount, FieldMaxPlayers, FieldMinPlayers,
	FieldBuyIn, FieldInitialBigBlind, FieldSmallBlindIndex, FieldWaitingPlayers,
	FieldGameInProgress, FieldGameStarted, FieldBettingStarted, FieldPot,
	FieldHighestBet, FieldCurrentTurn, FieldGameStage, FieldDeck,
}

// SeatFields 入座时写入的字段
var SeatFields = []string{FieldPlayers, FieldPlayerCount}

// DealFields 下盲发牌改动的全部字段，发牌后的写入必须全部带上，否则存储中的 session 不一致
var DealFields = []string{
	FieldPlayers, FieldPlayerCount, FieldPot, FieldHighestBet, FieldCurrentTurn,
	FieldGameStage, FieldDeck, FieldBettingStarted, FieldGameStarted, FieldGameInProgress,
}

// EncodeFields 把指定字段编码为 name -> JSON 文本，供 hash / jsonb 局部更新使用
func EncodeFields(s Session, fields ...string) (map[string]string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("split session: %w", err)
	}

	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if f == FieldVersion {
			continue
		}
		v, ok := all[f]
		if !ok {
			return nil, fmt.Errorf("unknown session field %q", f)
		}
		out[f] = string(v)
	}
	return out, nil
}

// DecodeFields 由 name -> JSON 文本重建 Session（version 为纯数字文本）
func DecodeFields(fields map[string]string) (Session, error) {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for k, v := range fields {
		if !first {
			b.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(k)
		b.Write(key)
		b.WriteByte(':')
		b.WriteString(v)
	}
	b.WriteByte('}')

	var s Session
	if err := json.Unmarshal([]byte(b.String()), &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}
