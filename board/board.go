// Package board implements the Collapsi playing surface: a small grid of
// cards where every edge wraps around to the opposite edge, so each cell has
// a topologically identical neighborhood.
package board

import (
	"fmt"
	"strings"
)

// Card is one of the five card faces a cell can hold. Jacks and Aces are
// rule-equivalent (both allow a single step); the distinction only matters
// for dealing, since the two Jacks mark the starting cells.
type Card byte

const (
	CardJack  Card = 'J'
	CardAce   Card = 'A'
	CardTwo   Card = '2'
	CardThree Card = '3'
	CardFour  Card = '4'
)

// Steps returns the exact number of orthogonal hops a move starting on this
// card must take.
func (c Card) Steps() int {
	switch c {
	case CardTwo:
		return 2
	case CardThree:
		return 3
	case CardFour:
		return 4
	default:
		return 1
	}
}

// Coord is a (row, col) cell address.
type Coord struct {
	Row int
	Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Less orders coordinates row-major. This ordering is load-bearing: legal
// move lists are sorted with it, and move-picking tie-breaks depend on it.
func (c Coord) Less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

// Board is an immutable dealt grid. The grid slice is row-major and must
// never be mutated after construction.
type Board struct {
	width  int
	height int
	grid   []Card
}

// New creates a board from a row-major grid. Dimensions below 2×2 are
// rejected; with a height or width of 1 the four torus neighbors of a cell
// would coincide and the movement rules stop making sense.
func New(width, height int, grid []Card) (*Board, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("board dimensions must be at least 2x2, got %dx%d", width, height)
	}
	if len(grid) != width*height {
		return nil, fmt.Errorf("grid has %d cells, want %d", len(grid), width*height)
	}
	g := make([]Card, len(grid))
	copy(g, grid)
	return &Board{width: width, height: height, grid: g}, nil
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// Wrap maps any integer coordinate pair onto the torus using floored modulo,
// so the result is never negative.
func (b *Board) Wrap(r, c int) Coord {
	return Coord{Row: mod(r, b.height), Col: mod(c, b.width)}
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// Index returns the row-major index of a wrapped coordinate.
func (b *Board) Index(co Coord) int {
	w := b.Wrap(co.Row, co.Col)
	return w.Row*b.width + w.Col
}

// At returns the card at (r, c), wrapping as needed.
func (b *Board) At(r, c int) Card {
	return b.grid[b.Index(Coord{Row: r, Col: c})]
}

// Neighbors returns the four orthogonally adjacent cells under wrap, in
// up, down, left, right order.
func (b *Board) Neighbors(co Coord) [4]Coord {
	return [4]Coord{
		b.Wrap(co.Row-1, co.Col),
		b.Wrap(co.Row+1, co.Col),
		b.Wrap(co.Row, co.Col-1),
		b.Wrap(co.Row, co.Col+1),
	}
}

// Coords returns every cell coordinate in row-major order.
func (b *Board) Coords() []Coord {
	cs := make([]Coord, 0, b.width*b.height)
	for r := 0; r < b.height; r++ {
		for c := 0; c < b.width; c++ {
			cs = append(cs, Coord{Row: r, Col: c})
		}
	}
	return cs
}

// Shifted returns a copy of the board translated by (dr, dc) on the torus:
// cell (r, c) of the result holds the card at (r-dr, c-dc) of the receiver.
func (b *Board) Shifted(dr, dc int) *Board {
	g := make([]Card, len(b.grid))
	for r := 0; r < b.height; r++ {
		for c := 0; c < b.width; c++ {
			g[r*b.width+c] = b.At(r-dr, c-dc)
		}
	}
	return &Board{width: b.width, height: b.height, grid: g}
}

// Grid returns a copy of the row-major card grid.
func (b *Board) Grid() []Card {
	g := make([]Card, len(b.grid))
	copy(g, b.grid)
	return g
}

// Pretty renders the board for logs and the shell. Collapsed cells show as
// a dot, the players as X and O (or * when they coincide on the deal).
func (b *Board) Pretty(p1, p2 *Coord, collapsed map[Coord]bool) string {
	var sb strings.Builder
	for r := 0; r < b.height; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := 0; c < b.width; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			here := Coord{Row: r, Col: c}
			switch {
			case collapsed[here]:
				sb.WriteByte('.')
			case p1 != nil && p2 != nil && *p1 == here && *p2 == here:
				sb.WriteByte('*')
			case p1 != nil && *p1 == here:
				sb.WriteByte('X')
			case p2 != nil && *p2 == here:
				sb.WriteByte('O')
			default:
				sb.WriteByte(byte(b.At(r, c)))
			}
		}
	}
	return sb.String()
}
