package hashkey

import (
	"fmt"

	"github.com/huynd2210/Collapsi/game"
)

// Pair64 is Szudzik's order-sensitive pairing over non-negative integers,
// taken mod 2^64 (wraparound is intentional).
func Pair64(a, b uint64) uint64 {
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// Mix64 is the SplitMix64 finalizer.
// https://stackoverflow.com/a/12996028/1737333
func Mix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Hash64 folds an ordered tuple into one fingerprint: repeated left-to-right
// pairing starting from zero, then a final mix.
func Hash64(vals ...uint64) uint64 {
	h := uint64(0)
	for _, v := range vals {
		h = Pair64(h, v)
	}
	return Mix64(h)
}

// Hash fingerprints the packed state, turn included.
func (bs BitState) Hash() uint64 {
	return Hash64(
		uint64(bs.A), uint64(bs.Two), uint64(bs.Three), uint64(bs.Four),
		uint64(bs.X), uint64(bs.O), uint64(bs.Collapsed), uint64(bs.Turn),
	)
}

// Key renders the store key string for this state: 16 lowercase hex digits,
// a pipe, then the turn digit.
func (bs BitState) Key() string {
	return fmt.Sprintf("%016x|%d", bs.Hash(), bs.Turn)
}

// CanonicalHash normalizes the position (mover to origin), packs it, and
// hashes it. This is the store and transposition key for the position and
// is identical across all 16 torus translates.
func CanonicalHash(p game.Position) (uint64, uint8, error) {
	norm, _, _ := p.Normalize()
	bs, err := Bitboards(norm)
	if err != nil {
		return 0, 0, err
	}
	return bs.Hash(), bs.Turn, nil
}

// CanonicalKey is CanonicalHash in the string form used by persistence and
// debugging layers.
func CanonicalKey(p game.Position) (string, error) {
	norm, _, _ := p.Normalize()
	bs, err := Bitboards(norm)
	if err != nil {
		return "", err
	}
	return bs.Key(), nil
}

// RawKey hashes the position as-is, skipping normalization. Only the
// reverse-mapping diagnostics use it; the canonical store never does.
func RawKey(p game.Position) (string, error) {
	bs, err := Bitboards(p)
	if err != nil {
		return "", err
	}
	return bs.Key(), nil
}
