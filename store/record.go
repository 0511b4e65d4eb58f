// Package store persists solved positions in a flat binary file of
// fixed-size records keyed by (canonical hash, turn). New files carry an
// explicit magic/version header and a single 16-byte little-endian record
// layout; headerless files written by older tooling are still readable
// through scoring-based format detection.
package store

import "encoding/binary"

// MaxPlausiblePlies bounds the plies field of a well-formed record. No 4×4
// game lasts anywhere near this long; larger values flag corruption.
const MaxPlausiblePlies = 50

// NoMove mirrors hashkey.NoMove for the best-move byte sentinel.
const NoMove uint8 = 0xFF

// Record is one solved position: canonical 64-bit key, side to move, the
// forced-win flag, the encoded best-move byte (to nibble; NoMove when lost)
// and the ply distance to the terminal position.
type Record struct {
	Key   uint64
	Turn  uint8
	Win   uint8
	Best  uint8
	Plies uint16
}

// Plausible applies the field-validity filter used both for format
// detection and for skipping garbage during iteration. The best-move nibbles
// are unconstrained by construction (any byte splits into two cell indices),
// so only the sentinel-free fields are checked.
func (r Record) Plausible() bool {
	if r.Turn > 1 || r.Win > 1 {
		return false
	}
	if r.Plies > MaxPlausiblePlies {
		return false
	}
	if r.Win == 1 && r.Plies < 1 {
		return false
	}
	return true
}

// encode packs the record into buf using the given layout. buf must be
// f.recSize bytes and is zeroed first, so reserved bytes stay zero.
func (r Record) encode(f format, buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint64(buf[0:8], r.Key)
	buf[8] = r.Turn
	buf[9] = r.Win
	buf[10] = r.Best
	binary.LittleEndian.PutUint16(buf[f.pliesOff:f.pliesOff+2], r.Plies)
}

// decodeRecord unpacks one record from buf per the given layout.
func decodeRecord(f format, buf []byte) Record {
	return Record{
		Key:   binary.LittleEndian.Uint64(buf[0:8]),
		Turn:  buf[8],
		Win:   buf[9],
		Best:  buf[10],
		Plies: binary.LittleEndian.Uint16(buf[f.pliesOff : f.pliesOff+2]),
	}
}
