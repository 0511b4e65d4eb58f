package game

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/huynd2210/Collapsi/board"
)

func dealtPosition(t *testing.T, seed uint64) Position {
	t.Helper()
	b, p1, p2, err := board.NewSeededDealer(seed).Deal4x4()
	if err != nil {
		t.Fatal(err)
	}
	return NewPosition(b, p1, p2)
}

func TestApplyMoveInvariants(t *testing.T) {
	is := is.New(t)
	for seed := uint64(1); seed <= 10; seed++ {
		p := dealtPosition(t, seed)
		moves := p.LegalMoves()
		if len(moves) == 0 {
			continue
		}
		before := p.Mover()
		next := p.ApplyMove(moves[0])
		is.True(next.Turn != p.Turn)
		is.True(next.IsCollapsed(before))
		is.Equal(len(next.Collapsed), len(p.Collapsed)+1)
		is.Equal(next.Mover(), p.Opponent())
	}
}

func TestLegalMovesExclusions(t *testing.T) {
	is := is.New(t)
	for seed := uint64(1); seed <= 10; seed++ {
		p := dealtPosition(t, seed)
		for _, m := range p.LegalMoves() {
			is.True(m != p.Mover())
			is.True(m != p.Opponent())
			is.True(!p.IsCollapsed(m))
		}
	}
}

func TestApplyMoveCheckedRejectsIllegal(t *testing.T) {
	is := is.New(t)
	p := dealtPosition(t, 3)
	_, err := p.ApplyMoveChecked(p.Mover()) // own cell is never legal
	is.True(errors.Is(err, ErrIllegalMove))

	moves := p.LegalMoves()
	is.True(len(moves) > 0)
	next, err := p.ApplyMoveChecked(moves[0])
	is.NoErr(err)
	is.True(next.Turn != p.Turn)
}

func TestNormalizeMoverAtOrigin(t *testing.T) {
	is := is.New(t)
	for seed := uint64(1); seed <= 10; seed++ {
		p := dealtPosition(t, seed)
		for _, turn := range []int{1, 2} {
			p.Turn = turn
			norm, dr, dc := p.Normalize()
			is.Equal(norm.Mover(), board.Coord{Row: 0, Col: 0})
			is.Equal(norm.Turn, p.Turn)
			// the shift maps the raw mover onto the origin
			is.Equal(p.Board.Wrap(p.Mover().Row+dr, p.Mover().Col+dc), board.Coord{Row: 0, Col: 0})
			// card layout travels with the players
			is.Equal(norm.Board.At(0, 0), p.Board.At(p.Mover().Row, p.Mover().Col))
		}
	}
}

func TestNormalizeIdempotentOverShifts(t *testing.T) {
	is := is.New(t)
	p := dealtPosition(t, 11)
	moves := p.LegalMoves()
	is.True(len(moves) > 0)
	p = p.ApplyMove(moves[0]) // get some collapsed cells into play
	norm, _, _ := p.Normalize()
	for _, shifted := range p.TorusShifts() {
		n2, _, _ := shifted.Normalize()
		is.Equal(n2.Board.Grid(), norm.Board.Grid())
		is.Equal(n2.P1, norm.P1)
		is.Equal(n2.P2, norm.P2)
		is.Equal(n2.Collapsed, norm.Collapsed)
		is.Equal(n2.Turn, norm.Turn)
	}
}

func TestTorusShiftsCount(t *testing.T) {
	is := is.New(t)
	p := dealtPosition(t, 5)
	is.Equal(len(p.TorusShifts()), 16)
}

func TestMoveStructurePreservedUnderShift(t *testing.T) {
	is := is.New(t)
	p := dealtPosition(t, 13)
	base := p.LegalMoves()
	for _, shifted := range p.TorusShifts() {
		is.Equal(len(shifted.LegalMoves()), len(base))
	}
}
