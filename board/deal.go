package board

import (
	"encoding/binary"
	"fmt"

	"lukechampine.com/frand"
)

// Deck compositions. The two Jacks are dealt face-up first in reading order
// and mark the starting cells for player 1 and player 2 respectively.
var (
	deck4x4 = []Card{
		CardJack, CardJack,
		CardAce, CardAce, CardAce, CardAce,
		CardTwo, CardTwo, CardTwo, CardTwo,
		CardThree, CardThree, CardThree, CardThree,
		CardFour, CardFour,
	}
	deck3x3 = []Card{
		CardJack, CardJack,
		CardAce, CardAce, CardAce, CardAce,
		CardTwo, CardTwo, CardTwo,
	}
)

// Dealer shuffles decks into boards. A zero-value Dealer is not usable; use
// NewDealer for a random stream or NewSeededDealer for reproducible deals.
type Dealer struct {
	rng *frand.RNG
}

func NewDealer() *Dealer {
	return &Dealer{rng: frand.New()}
}

// NewSeededDealer returns a dealer whose shuffles are fully determined by
// seed. Used by tests and by the shell's "deal <seed>" command.
func NewSeededDealer(seed uint64) *Dealer {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return &Dealer{rng: frand.NewCustom(key[:], 1024, 12)}
}

// Deal4x4 deals the standard 16-card deck onto a 4×4 board and returns the
// board along with the two Jack cells, which are the starting coordinates.
func (d *Dealer) Deal4x4() (*Board, Coord, Coord, error) {
	return d.deal(4, 4, deck4x4)
}

// Deal3x3 deals the casual 9-card variant. The 3×3 board is playable but has
// no cached-solver support; see the solver package's exploratory path.
func (d *Dealer) Deal3x3() (*Board, Coord, Coord, error) {
	return d.deal(3, 3, deck3x3)
}

func (d *Dealer) deal(width, height int, deck []Card) (*Board, Coord, Coord, error) {
	cards := make([]Card, len(deck))
	copy(cards, deck)
	d.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	b, err := New(width, height, cards)
	if err != nil {
		return nil, Coord{}, Coord{}, err
	}
	jacks := make([]Coord, 0, 2)
	for _, co := range b.Coords() {
		if b.At(co.Row, co.Col) == CardJack {
			jacks = append(jacks, co)
		}
	}
	if len(jacks) < 2 {
		return nil, Coord{}, Coord{}, fmt.Errorf("invalid deck: expected two Jacks, found %d", len(jacks))
	}
	return b, jacks[0], jacks[1], nil
}
