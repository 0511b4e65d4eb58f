package solver

import "github.com/huynd2210/Collapsi/hashkey"

// Precomputed torus neighbor indices for the 4×4 board, filled at init.
var neiUp, neiDown, neiLeft, neiRight [hashkey.BoardN]uint8

func init() {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			i := r*4 + c
			neiUp[i] = uint8(((r+3)%4)*4 + c)
			neiDown[i] = uint8(((r+1)%4)*4 + c)
			neiLeft[i] = uint8(r*4 + (c+3)%4)
			neiRight[i] = uint8(r*4 + (c+1)%4)
		}
	}
}

func bit(idx uint8) uint16 { return uint16(1) << idx }

// pieceIdx returns the cell index of a one-hot mask.
func pieceIdx(mask uint16) uint8 {
	for i := uint8(0); i < hashkey.BoardN; i++ {
		if mask&bit(i) != 0 {
			return i
		}
	}
	return 0
}

// stepsFrom returns the step count of the card under a cell. Cells missing
// from every class mask (corrupt input) fall back to a single step.
func stepsFrom(bs hashkey.BitState, idx uint8) uint8 {
	m := bit(idx)
	switch {
	case bs.A&m != 0:
		return 1
	case bs.Two&m != 0:
		return 2
	case bs.Three&m != 0:
		return 3
	case bs.Four&m != 0:
		return 4
	}
	return 1
}

// destinations is the mask-level twin of movegen.Destinations: a DFS over
// simple paths of exactly steps hops, avoiding collapsed cells, never ending
// on the start or the opponent. Returns a destination bitmask; ascending bit
// order is row-major order, matching the coordinate enumerator.
func destinations(bs hashkey.BitState, startIdx, steps, oppIdx uint8) uint16 {
	var out uint16
	blocked := bs.Collapsed
	var dfs func(cur uint8, remaining uint8, visited uint16)
	dfs = func(cur uint8, remaining uint8, visited uint16) {
		if remaining == 0 {
			if cur != startIdx && cur != oppIdx {
				out |= bit(cur)
			}
			return
		}
		for _, next := range [4]uint8{neiUp[cur], neiDown[cur], neiLeft[cur], neiRight[cur]} {
			m := bit(next)
			if blocked&m != 0 || visited&m != 0 {
				continue
			}
			dfs(next, remaining-1, visited|m)
		}
	}
	dfs(startIdx, steps, bit(startIdx))
	return out
}

// moverIdx returns the cell indices of the side to move and its opponent.
func moverIdx(bs hashkey.BitState) (me, opp uint8) {
	if bs.Turn == 0 {
		return pieceIdx(bs.X), pieceIdx(bs.O)
	}
	return pieceIdx(bs.O), pieceIdx(bs.X)
}

// applyMove collapses the departed cell, relocates the mover and flips the
// turn, mirroring game.Position.ApplyMove at the mask level.
func applyMove(bs hashkey.BitState, startIdx, destIdx uint8) hashkey.BitState {
	next := bs
	next.Collapsed |= bit(startIdx)
	if bs.Turn == 0 {
		next.X = next.X&^bit(startIdx) | bit(destIdx)
		next.Turn = 1
	} else {
		next.O = next.O&^bit(startIdx) | bit(destIdx)
		next.Turn = 0
	}
	return next
}

// moverDestinations enumerates the side to move's legal destination mask.
func moverDestinations(bs hashkey.BitState) uint16 {
	me, opp := moverIdx(bs)
	return destinations(bs, me, stepsFrom(bs, me), opp)
}
