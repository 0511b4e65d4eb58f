// Package hashkey fingerprints 4×4 Collapsi positions. A position packs into
// seven 16-bit cell masks plus the turn bit; the masks feed a Szudzik-paired,
// SplitMix64-finished 64-bit hash that keys both the on-disk solved store and
// the solver's transposition table. Not a cryptographic hash; it only needs
// good dispersal over the reachable state space.
package hashkey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huynd2210/Collapsi/board"
	"github.com/huynd2210/Collapsi/game"
)

// ErrUnsupportedSize is returned whenever a non-4×4 position reaches the
// bitboard/hash/store path. The 3×3 casual variant is never hashed.
var ErrUnsupportedSize = errors.New("bitboard hashing supports 4x4 boards only")

// BoardN is the cell count of the only board size the cached solver handles.
const BoardN = 16

// BitState is the packed form of a 4×4 position. The four card-class masks
// partition all 16 cells (Jacks fold into the A class since both step 1);
// X and O are one-hot player masks; Collapsed marks vacated cells.
type BitState struct {
	A         uint16
	Two       uint16
	Three     uint16
	Four      uint16
	X         uint16
	O         uint16
	Collapsed uint16
	Turn      uint8 // 0 = X (player 1) to move
}

// CoordIndex maps a wrapped coordinate to its 0..15 cell index.
func CoordIndex(c board.Coord) uint8 {
	return uint8((c.Row&3)*4 + (c.Col & 3))
}

// IndexCoord is the inverse of CoordIndex.
func IndexCoord(idx uint8) board.Coord {
	return board.Coord{Row: int(idx) / 4, Col: int(idx) % 4}
}

// Bitboards packs a position. Only 4×4 boards are supported; anything else
// gets ErrUnsupportedSize rather than a silent coercion.
func Bitboards(p game.Position) (BitState, error) {
	if p.Board.Width() != 4 || p.Board.Height() != 4 {
		return BitState{}, fmt.Errorf("%w: got %dx%d",
			ErrUnsupportedSize, p.Board.Width(), p.Board.Height())
	}
	var bs BitState
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			bit := uint16(1) << uint(r*4+c)
			switch p.Board.At(r, c) {
			case board.CardAce, board.CardJack:
				bs.A |= bit
			case board.CardTwo:
				bs.Two |= bit
			case board.CardThree:
				bs.Three |= bit
			case board.CardFour:
				bs.Four |= bit
			}
		}
	}
	bs.X = uint16(1) << CoordIndex(p.P1)
	bs.O = uint16(1) << CoordIndex(p.P2)
	for _, c := range p.Collapsed {
		bs.Collapsed |= uint16(1) << CoordIndex(c)
	}
	if p.Turn != 1 {
		bs.Turn = 1
	}
	return bs, nil
}

// CardAt returns the card class recorded for a cell index. Cells with no
// class bit (possible only in corrupt index records) default to Ace.
func (bs BitState) CardAt(idx uint8) board.Card {
	bit := uint16(1) << idx
	switch {
	case bs.Two&bit != 0:
		return board.CardTwo
	case bs.Three&bit != 0:
		return board.CardThree
	case bs.Four&bit != 0:
		return board.CardFour
	default:
		return board.CardAce
	}
}

// Position unpacks a BitState into a full game position. Jack/Ace identity
// is lost in the A class, so reconstructed boards show Aces; that does not
// change any legal-move structure.
func (bs BitState) Position() (game.Position, error) {
	grid := make([]board.Card, BoardN)
	for i := uint8(0); i < BoardN; i++ {
		grid[i] = bs.CardAt(i)
	}
	b, err := board.New(4, 4, grid)
	if err != nil {
		return game.Position{}, err
	}
	p := game.Position{Board: b, Turn: 1}
	if bs.Turn == 1 {
		p.Turn = 2
	}
	for i := uint8(0); i < BoardN; i++ {
		bit := uint16(1) << i
		if bs.X&bit != 0 {
			p.P1 = IndexCoord(i)
		}
		if bs.O&bit != 0 {
			p.P2 = IndexCoord(i)
		}
		if bs.Collapsed&bit != 0 {
			p.Collapsed = append(p.Collapsed, IndexCoord(i))
		}
	}
	return p, nil
}

// StateArg renders the BitState in the solver CLI's wire form:
// eight comma-separated hex fields "a,b2,b3,b4,x,o,c,turn".
func (bs BitState) StateArg() string {
	return fmt.Sprintf("%04x,%04x,%04x,%04x,%04x,%04x,%04x,%x",
		bs.A, bs.Two, bs.Three, bs.Four, bs.X, bs.O, bs.Collapsed, bs.Turn)
}

// ParseStateArg parses the CLI wire form produced by StateArg.
func ParseStateArg(arg string) (BitState, error) {
	parts := strings.Split(strings.TrimSpace(arg), ",")
	if len(parts) != 8 {
		return BitState{}, fmt.Errorf("state arg has %d fields, want 8", len(parts))
	}
	var vals [8]uint64
	for i, part := range parts {
		if _, err := fmt.Sscanf(part, "%x", &vals[i]); err != nil {
			return BitState{}, fmt.Errorf("bad state field %q: %w", part, err)
		}
	}
	for i := 0; i < 7; i++ {
		if vals[i] > 0xFFFF {
			return BitState{}, fmt.Errorf("state mask %d out of range: %#x", i, vals[i])
		}
	}
	if vals[7] > 1 {
		return BitState{}, fmt.Errorf("turn must be 0 or 1, got %d", vals[7])
	}
	return BitState{
		A: uint16(vals[0]), Two: uint16(vals[1]), Three: uint16(vals[2]), Four: uint16(vals[3]),
		X: uint16(vals[4]), O: uint16(vals[5]), Collapsed: uint16(vals[6]), Turn: uint8(vals[7]),
	}, nil
}
