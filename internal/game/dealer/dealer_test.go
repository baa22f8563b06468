package dealer

import (
	"errors"
	"slices"
	"testing"
	"time"

	"HoldemTable/internal/game/table"
)

// 工具：检查是否有重复牌
func hasDuplicates(cards []table.Card) bool {
	seen := make(map[table.Card]bool)
	for _, c := range cards {
		if seen[c] {
			return true
		}
		seen[c] = true
	}
	return false
}

// ✅ 测试牌组初始化
func TestNewDeck(t *testing.T) {
	d := NewDealer(time.Now().UnixNano())
	d.NewDeck()

	if len(d.deck) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(d.deck))
	}
	if hasDuplicates(d.deck) {
		t.Fatalf("deck should not contain duplicates")
	}

	// 检查花色和点数完整性
	suits := make(map[int]bool)
	ranks := make(map[int]bool)
	for _, c := range d.deck {
		suits[c.Suit] = true
		ranks[c.Rank] = true
	}
	if len(suits) != 4 {
		t.Fatalf("expected 4 suits, got %d", len(suits))
	}
	if len(ranks) != 13 {
		t.Fatalf("expected 13 ranks, got %d", len(ranks))
	}
}

// ✅ 相同种子得到相同序列，不同种子不同
func TestShuffleChangesOrder(t *testing.T) {
	d1 := NewDealer(42)
	d1.NewDeck()
	d2 := NewDealer(42)
	d2.NewDeck()

	for i := range d1.deck {
		if d1.deck[i] != d2.deck[i] {
			t.Fatalf("expected identical decks for same seed")
		}
	}

	d3 := NewDealer(99)
	d3.NewDeck()
	diff := false
	for i := range d1.deck {
		if d1.deck[i] != d3.deck[i] {
			diff = true
			break
		}
	}
	if !diff {
		t.Fatalf("expected deck with different seed to differ")
	}
}

// ✅ 测试底牌发放逻辑
func TestDealHoleCards(t *testing.T) {
	d := NewDealer(1)
	d.NewDeck()
	hands, err := d.DealHoleCards(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := []table.Card{}
	for seat, h := range hands {
		if len(h) != 2 {
			t.Fatalf("seat %d should have 2 cards, got %d", seat, len(h))
		}
		all = append(all, h...)
	}
	if hasDuplicates(all) {
		t.Fatalf("hole cards contain duplicates")
	}

	// 剩余牌堆不应包含已发出的牌
	rest := d.Remaining()
	if len(rest) != 52-6 {
		t.Fatalf("expected remaining deck 46, got %d", len(rest))
	}
	if hasDuplicates(append(all, rest...)) {
		t.Fatalf("remaining deck overlaps dealt cards")
	}
}

// ✅ 牌堆耗尽时报错，不会自动补牌
func TestDealExhausted(t *testing.T) {
	d := NewDealer(3)
	d.NewDeck()
	if _, err := d.DealHoleCards(27); !errors.Is(err, ErrDeckExhausted) {
		t.Fatalf("expected ErrDeckExhausted, got %v", err)
	}
	if len(d.deck) != 52 {
		t.Fatalf("failed deal must not draw, %d left", len(d.deck))
	}
}

// ✅ 线上 dealer 每次种子不同，牌序不可复现
func TestNewSecureDealer(t *testing.T) {
	d1 := NewSecureDealer()
	d1.NewDeck()
	d2 := NewSecureDealer()
	d2.NewDeck()

	if len(d1.deck) != 52 || hasDuplicates(d1.deck) {
		t.Fatalf("secure deck must hold 52 distinct cards")
	}
	if slices.Equal(d1.deck, d2.deck) {
		t.Fatalf("two secure dealers produced the same order")
	}
}
