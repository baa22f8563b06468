package dealer

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"HoldemTable/internal/game/table"
)

// ErrDeckExhausted 牌堆不足
var ErrDeckExhausted = errors.New("deck exhausted")

// Dealer 只负责洗牌与发牌（无规则判断），非并发安全，每手牌独占一个
type Dealer struct {
	deck []table.Card
	rnd  *rand.Rand
}

// NewDealer 固定种子，同一种子洗出同样的牌序，供测试复现
func NewDealer(seed int64) *Dealer {
	return newDealer(rand.NewPCG(uint64(seed), 0))
}

// NewSecureDealer 线上发牌使用：ChaCha8，种子取自 crypto/rand
func NewSecureDealer() *Dealer {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return newDealer(rand.NewChaCha8(seed))
}

func newDealer(src rand.Source) *Dealer {
	return &Dealer{
		deck: make([]table.Card, 0, 52),
		rnd:  rand.New(src),
	}
}

// NewDeck 初始化一副牌并洗牌
func (d *Dealer) NewDeck() {
	d.deck = d.makeDeck()
	d.shuffle()
}

func (d *Dealer) makeDeck() []table.Card {
	deck := make([]table.Card, 0, 52)
	for s := 0; s < 4; s++ {
		for r := 2; r <= 14; r++ {
			deck = append(deck, table.Card{Suit: s, Rank: r})
		}
	}
	return deck
}

func (d *Dealer) shuffle() {
	d.rnd.Shuffle(len(d.deck), func(i, j int) {
		d.deck[i], d.deck[j] = d.deck[j], d.deck[i]
	})
}

// DealHoleCards 给 n 个座位各发 2 张底牌，按座位顺序返回
func (d *Dealer) DealHoleCards(n int) ([][]table.Card, error) {
	if len(d.deck) < 2*n {
		return nil, fmt.Errorf("hole cards for %d seats: %w", n, ErrDeckExhausted)
	}
	out := make([][]table.Card, n)
	// 轮流发牌，先每人一张，再每人第二张
	for i := 0; i < 2; i++ {
		for seat := 0; seat < n; seat++ {
			out[seat] = append(out[seat], d.draw())
		}
	}
	return out, nil
}

// Remaining 返回剩余牌堆的拷贝，随 session 持久化
func (d *Dealer) Remaining() []table.Card {
	return slices.Clone(d.deck)
}

func (d *Dealer) draw() table.Card {
	c := d.deck[0]
	d.deck = d.deck[1:]
	return c
}
