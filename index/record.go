// Package index maintains the reverse mapping from canonical position keys
// back to full board descriptions. The solved store keeps only hashes; the
// index keeps the seven cell masks per key so tooling can reconstruct the
// normalized board, or enumerate every raw translate of it, without
// re-solving. The index is lazy and partial: a missing entry means "unknown",
// never an error.
package index

import (
	"encoding/binary"
	"math/bits"

	"github.com/huynd2210/Collapsi/hashkey"
)

// Record pairs a canonical key with the packed state it fingerprints. The
// state's Turn field doubles as the record's turn.
type Record struct {
	Key   uint64
	State hashkey.BitState
}

// On-disk layouts. Both carry the same fields at the same offsets; the
// 32-byte variant merely pads each record out to a power of two. One file
// holds exactly one layout.
const (
	recSize24 = 24
	recSize32 = 32
)

func encodeRecord(rec Record, buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint64(buf[0:8], rec.Key)
	buf[8] = rec.State.Turn
	binary.LittleEndian.PutUint16(buf[9:11], rec.State.A)
	binary.LittleEndian.PutUint16(buf[11:13], rec.State.Two)
	binary.LittleEndian.PutUint16(buf[13:15], rec.State.Three)
	binary.LittleEndian.PutUint16(buf[15:17], rec.State.Four)
	binary.LittleEndian.PutUint16(buf[17:19], rec.State.X)
	binary.LittleEndian.PutUint16(buf[19:21], rec.State.O)
	binary.LittleEndian.PutUint16(buf[21:23], rec.State.Collapsed)
}

func decodeIndexRecord(buf []byte) Record {
	return Record{
		Key: binary.LittleEndian.Uint64(buf[0:8]),
		State: hashkey.BitState{
			Turn:      buf[8],
			A:         binary.LittleEndian.Uint16(buf[9:11]),
			Two:       binary.LittleEndian.Uint16(buf[11:13]),
			Three:     binary.LittleEndian.Uint16(buf[13:15]),
			Four:      binary.LittleEndian.Uint16(buf[15:17]),
			X:         binary.LittleEndian.Uint16(buf[17:19]),
			O:         binary.LittleEndian.Uint16(buf[19:21]),
			Collapsed: binary.LittleEndian.Uint16(buf[21:23]),
		},
	}
}

// Plausible checks the structural invariants every well-formed index record
// satisfies: the four card classes partition the 16 cells and each player
// mask is one-hot. Used both for layout detection and for skipping garbage
// while loading.
func (r Record) Plausible() bool {
	s := r.State
	if r.Key == 0 || s.Turn > 1 {
		return false
	}
	if s.A|s.Two|s.Three|s.Four != 0xFFFF {
		return false
	}
	classBits := bits.OnesCount16(s.A) + bits.OnesCount16(s.Two) +
		bits.OnesCount16(s.Three) + bits.OnesCount16(s.Four)
	if classBits != 16 {
		return false
	}
	if bits.OnesCount16(s.X) != 1 || bits.OnesCount16(s.O) != 1 {
		return false
	}
	return true
}
