package hashkey

import "github.com/huynd2210/Collapsi/board"

// NoMove is the best-move byte sentinel for "no move recorded".
const NoMove uint8 = 0xFF

// EncodeMove packs a from/to cell-index pair into one byte. Store writers
// populate only the to nibble in practice; from is kept for layout
// compatibility with existing record files.
func EncodeMove(from, to uint8) uint8 {
	return (from&0xF)<<4 | (to & 0xF)
}

// MoveFrom extracts the from nibble of an encoded move byte.
func MoveFrom(b uint8) uint8 { return (b >> 4) & 0xF }

// MoveTo extracts the to nibble of an encoded move byte.
func MoveTo(b uint8) uint8 { return b & 0xF }

// DecodeBestMove turns a best-move byte into a destination coordinate.
// The second return is false for the NoMove sentinel.
func DecodeBestMove(b uint8) (board.Coord, bool) {
	if b == NoMove {
		return board.Coord{}, false
	}
	return IndexCoord(MoveTo(b)), true
}
