// Package game holds the dynamic Collapsi position and the rules for
// evolving it: legal-move queries, move application, and the torus
// normalization that collapses translated positions onto one canonical form.
package game

import (
	"errors"
	"fmt"
	"sort"

	"github.com/huynd2210/Collapsi/board"
	"github.com/huynd2210/Collapsi/movegen"
)

// ErrIllegalMove is returned by ApplyMoveChecked when the destination is not
// in the legal move set. Plain ApplyMove treats that as a caller bug.
var ErrIllegalMove = errors.New("illegal move")

// Position is a full game state. Values are treated as immutable; ApplyMove
// returns a fresh Position and never mutates the receiver. Collapsed is kept
// sorted row-major so positions compare deterministically.
type Position struct {
	Board     *board.Board
	Collapsed []board.Coord
	P1        board.Coord
	P2        board.Coord
	Turn      int // 1 or 2
}

// NewPosition builds a position at the start of a game: nothing collapsed,
// player 1 to move.
func NewPosition(b *board.Board, p1, p2 board.Coord) Position {
	return Position{Board: b, P1: p1, P2: p2, Turn: 1}
}

// Other returns the player not on turn.
func (p Position) Other() int {
	if p.Turn == 1 {
		return 2
	}
	return 1
}

// Mover returns the coordinate of the player on turn.
func (p Position) Mover() board.Coord {
	if p.Turn == 1 {
		return p.P1
	}
	return p.P2
}

// Opponent returns the coordinate of the player not on turn.
func (p Position) Opponent() board.Coord {
	if p.Turn == 1 {
		return p.P2
	}
	return p.P1
}

// IsCollapsed reports whether the cell has been vacated earlier in the game.
func (p Position) IsCollapsed(co board.Coord) bool {
	for _, c := range p.Collapsed {
		if c == co {
			return true
		}
	}
	return false
}

// CollapsedSet returns the collapsed cells as a lookup map.
func (p Position) CollapsedSet() map[board.Coord]bool {
	set := make(map[board.Coord]bool, len(p.Collapsed))
	for _, c := range p.Collapsed {
		set[c] = true
	}
	return set
}

// LegalMoves returns the mover's legal destinations, sorted row-major. The
// step count comes from the card under the mover's current cell.
func (p Position) LegalMoves() []board.Coord {
	me := p.Mover()
	steps := p.Board.At(me.Row, me.Col).Steps()
	return movegen.Destinations(p.Board, p.CollapsedSet(), me, p.Opponent(), steps)
}

// ExamplePath returns one concrete path for a destination, or nil when the
// destination is not reachable. Display helper only.
func (p Position) ExamplePath(dest board.Coord) []board.Coord {
	me := p.Mover()
	steps := p.Board.At(me.Row, me.Col).Steps()
	return movegen.ExamplePath(p.Board, p.CollapsedSet(), me, p.Opponent(), steps, dest)
}

// ApplyMove plays dest for the mover: the departed cell collapses, the
// mover's coordinate becomes dest, and the turn flips. The destination must
// be legal; passing an illegal one is a programming error with an undefined
// result. Boundary code should use ApplyMoveChecked.
func (p Position) ApplyMove(dest board.Coord) Position {
	me := p.Mover()
	collapsed := make([]board.Coord, 0, len(p.Collapsed)+1)
	collapsed = append(collapsed, p.Collapsed...)
	collapsed = append(collapsed, me)
	sort.Slice(collapsed, func(i, j int) bool { return collapsed[i].Less(collapsed[j]) })

	next := Position{Board: p.Board, Collapsed: collapsed, P1: p.P1, P2: p.P2, Turn: p.Other()}
	if p.Turn == 1 {
		next.P1 = dest
	} else {
		next.P2 = dest
	}
	return next
}

// ApplyMoveChecked validates dest against LegalMoves before applying,
// returning ErrIllegalMove (wrapped with the offending coordinate) when it
// is not playable.
func (p Position) ApplyMoveChecked(dest board.Coord) (Position, error) {
	for _, m := range p.LegalMoves() {
		if m == dest {
			return p.ApplyMove(dest), nil
		}
	}
	return Position{}, fmt.Errorf("%w: %s for player %d", ErrIllegalMove, dest, p.Turn)
}

// OpponentReplyCount returns how many legal replies the opponent would have
// after the mover plays dest. The solver's move ordering is built on this.
func (p Position) OpponentReplyCount(dest board.Coord) int {
	return len(p.ApplyMove(dest).LegalMoves())
}

// Pretty renders the position grid for logs and the shell.
func (p Position) Pretty() string {
	p1, p2 := p.P1, p.P2
	return p.Board.Pretty(&p1, &p2, p.CollapsedSet())
}
