package board

import (
	"testing"

	"github.com/matryer/is"
)

func countCards(b *Board) map[Card]int {
	counts := map[Card]int{}
	for _, co := range b.Coords() {
		counts[b.At(co.Row, co.Col)]++
	}
	return counts
}

func TestDeal4x4Composition(t *testing.T) {
	is := is.New(t)
	d := NewSeededDealer(7)
	for i := 0; i < 20; i++ {
		b, p1, p2, err := d.Deal4x4()
		is.NoErr(err)
		counts := countCards(b)
		is.Equal(counts[CardJack], 2)
		is.Equal(counts[CardAce], 4)
		is.Equal(counts[CardTwo], 4)
		is.Equal(counts[CardThree], 4)
		is.Equal(counts[CardFour], 2)
		is.Equal(b.At(p1.Row, p1.Col), CardJack)
		is.Equal(b.At(p2.Row, p2.Col), CardJack)
		is.True(p1 != p2)
	}
}

func TestDeal3x3Composition(t *testing.T) {
	is := is.New(t)
	d := NewSeededDealer(7)
	b, p1, p2, err := d.Deal3x3()
	is.NoErr(err)
	counts := countCards(b)
	is.Equal(counts[CardJack], 2)
	is.Equal(counts[CardAce], 4)
	is.Equal(counts[CardTwo], 3)
	is.Equal(b.At(p1.Row, p1.Col), CardJack)
	is.Equal(b.At(p2.Row, p2.Col), CardJack)
}

func TestSeededDealReproducible(t *testing.T) {
	is := is.New(t)
	b1, p1a, p2a, err := NewSeededDealer(99).Deal4x4()
	is.NoErr(err)
	b2, p1b, p2b, err := NewSeededDealer(99).Deal4x4()
	is.NoErr(err)
	is.Equal(b1.Grid(), b2.Grid())
	is.Equal(p1a, p1b)
	is.Equal(p2a, p2b)
}
