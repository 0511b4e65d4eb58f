package game

import (
	"sort"

	"github.com/huynd2210/Collapsi/board"
)

// Normalize translates the position on the torus so the mover lands on
// (0,0), shifting the grid, both player coordinates and every collapsed cell
// by the same (dr, dc). Two positions related by a pure torus shift play
// identically, so they normalize to the same output; the applied shift is
// returned so callers can map canonical-frame coordinates back to the raw
// frame. The side to move is untouched.
func (p Position) Normalize() (Position, int, int) {
	h, w := p.Board.Height(), p.Board.Width()
	mover := p.Mover()
	dr := mod(-mover.Row, h)
	dc := mod(-mover.Col, w)
	return p.shift(dr, dc), dr, dc
}

// TorusShifts enumerates every torus translate of the position, one per
// (dr, dc) pair, in row-major shift order. All width*height of them
// normalize back to the same canonical form; the enumeration exists for the
// reverse-mapping diagnostics, not for solving.
func (p Position) TorusShifts() []Position {
	h, w := p.Board.Height(), p.Board.Width()
	shifts := make([]Position, 0, h*w)
	for dr := 0; dr < h; dr++ {
		for dc := 0; dc < w; dc++ {
			shifts = append(shifts, p.shift(dr, dc))
		}
	}
	return shifts
}

func (p Position) shift(dr, dc int) Position {
	shifted := Position{
		Board: p.Board.Shifted(dr, dc),
		P1:    p.Board.Wrap(p.P1.Row+dr, p.P1.Col+dc),
		P2:    p.Board.Wrap(p.P2.Row+dr, p.P2.Col+dc),
		Turn:  p.Turn,
	}
	if len(p.Collapsed) > 0 {
		shifted.Collapsed = make([]board.Coord, len(p.Collapsed))
		for i, c := range p.Collapsed {
			shifted.Collapsed[i] = p.Board.Wrap(c.Row+dr, c.Col+dc)
		}
		sort.Slice(shifted.Collapsed, func(i, j int) bool {
			return shifted.Collapsed[i].Less(shifted.Collapsed[j])
		})
	}
	return shifted
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
