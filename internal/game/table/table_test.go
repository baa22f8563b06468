package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() Session {
	return Session{
		TableID:         "t1",
		Players:         []Player{NewPlayer("p1", 0, 1000)},
		PlayerCount:     1,
		MaxPlayers:      6,
		MinPlayers:      2,
		BuyIn:           1000,
		InitialBigBlind: 20,
		GameStage:       StageWaiting,
		Version:         3,
	}
}

func TestEncodeFields_OnlyNamed(t *testing.T) {
	enc, err := EncodeFields(sampleSession(), FieldPot, FieldWaitingPlayers, FieldVersion)
	require.NoError(t, err)

	assert.Len(t, enc, 2)
	assert.Equal(t, "0", enc[FieldPot])
	assert.Equal(t, "null", enc[FieldWaitingPlayers])
}

func TestEncodeFields_UnknownField(t *testing.T) {
	_, err := EncodeFields(sampleSession(), "nope")
	assert.Error(t, err)
}

func TestDecodeFields_PartialHash(t *testing.T) {
	enc, err := EncodeFields(sampleSession(), AllFields...)
	require.NoError(t, err)
	enc[FieldVersion] = "7"

	s, err := DecodeFields(enc)
	require.NoError(t, err)
	assert.Equal(t, "t1", s.TableID)
	assert.Equal(t, int64(7), s.Version)
	require.Len(t, s.Players, 1)
	assert.Equal(t, int64(1000), s.Players[0].Chips)
	assert.True(t, s.Players[0].InHand)
	assert.Equal(t, StageWaiting, s.GameStage)
}

func TestCloneDoesNotShare(t *testing.T) {
	s := sampleSession()
	s.Deck = []Card{{Suit: 0, Rank: 2}}
	c := s.Clone()

	c.Players[0].Chips = 1
	c.Deck[0].Rank = 14
	c.WaitingPlayers = append(c.WaitingPlayers, "w")

	assert.Equal(t, int64(1000), s.Players[0].Chips)
	assert.Equal(t, 2, s.Deck[0].Rank)
	assert.Empty(t, s.WaitingPlayers)
}

func TestSeatedAndWaiting(t *testing.T) {
	s := sampleSession()
	s.WaitingPlayers = []string{"w1"}

	assert.True(t, s.Seated("p1"))
	assert.False(t, s.Seated("w1"))
	assert.True(t, s.Waiting("w1"))
	assert.False(t, s.Waiting("p1"))
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♠", Card{Suit: 3, Rank: 14}.String())
	assert.Equal(t, "10♣", Card{Suit: 0, Rank: 10}.String())
}
