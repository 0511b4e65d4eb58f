package index

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/huynd2210/Collapsi/game"
	"github.com/huynd2210/Collapsi/hashkey"
)

// ErrUnknownIndexFormat is returned when a non-empty index file fits neither
// the 24-byte nor the 32-byte record layout.
var ErrUnknownIndexFormat = errors.New("index file matches no known record layout")

// KeyTurn is the compound lookup key of the index.
type KeyTurn struct {
	Key  uint64
	Turn uint8
}

// Index is the in-memory reverse mapping, loaded once from file. Read-only
// after Load, so it is safe to share across goroutines.
type Index struct {
	entries map[KeyTurn]hashkey.BitState
	recSize int
}

// Variant is one raw torus translate of an indexed position, with its raw
// (un-normalized) key string.
type Variant struct {
	Position game.Position
	RawKey   string
}

// Load reads an index file into memory. An empty or absent file yields an
// empty index; records failing the plausibility filter are skipped.
func Load(path string) (*Index, error) {
	ix := &Index{entries: make(map[KeyTurn]hashkey.BitState), recSize: recSize24}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return ix, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return ix, nil
	}
	ix.recSize, err = detectRecSize(f, info.Size())
	if err != nil {
		return nil, err
	}
	if err := loadRecords(f, ix.recSize, func(rec Record) {
		ix.entries[KeyTurn{rec.Key, rec.State.Turn}] = rec.State
	}); err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Int("rec-size", ix.recSize).
		Int("entries", len(ix.entries)).Msg("index-loaded")
	return ix, nil
}

// detectRecSize decides between the two record paddings. When the file size
// is ambiguous (divisible by both), each stride is scored over sampled
// records and the one where more non-zero-key records stay plausible wins.
// The first record alone cannot settle it: both layouts share the leading
// field offsets, so record zero is plausible under either stride and only
// the later records expose a wrong stride.
func detectRecSize(f *os.File, size int64) (int, error) {
	fits24, fits32 := size%recSize24 == 0, size%recSize32 == 0
	switch {
	case fits24 && !fits32:
		return recSize24, nil
	case fits32 && !fits24:
		return recSize32, nil
	case !fits24 && !fits32:
		return 0, fmt.Errorf("%w: size %d", ErrUnknownIndexFormat, size)
	}
	score24, err := scoreStride(f, size, recSize24)
	if err != nil {
		return 0, err
	}
	score32, err := scoreStride(f, size, recSize32)
	if err != nil {
		return 0, err
	}
	if score32 > score24 {
		return recSize32, nil
	}
	return recSize24, nil
}

const maxStrideSamples = 512

// scoreStride returns the fraction of sampled non-zero-key records that are
// plausible when the file is read at the given record size. A file with
// nothing but zero keys scores zero under both strides, which falls back to
// the 24-byte default.
func scoreStride(f *os.File, size int64, recSize int) (float64, error) {
	nRecords := size / int64(recSize)
	if nRecords > maxStrideSamples {
		nRecords = maxStrideSamples
	}
	buf := make([]byte, nRecords*int64(recSize))
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return 0, err
	}
	hits, samples := 0, 0
	for off := 0; off+recSize <= len(buf); off += recSize {
		rec := decodeIndexRecord(buf[off : off+recSize])
		if rec.Key == 0 {
			continue
		}
		samples++
		if rec.Plausible() {
			hits++
		}
	}
	if samples == 0 {
		return 0, nil
	}
	return float64(hits) / float64(samples), nil
}

func loadRecords(f *os.File, recSize int, fn func(Record)) error {
	buf := make([]byte, recSize*4096)
	var off int64
	for {
		n, err := f.ReadAt(buf, off)
		if n == 0 {
			if err == io.EOF || err == nil {
				return nil
			}
			return err
		}
		full := n - n%recSize
		for i := 0; i+recSize <= full; i += recSize {
			rec := decodeIndexRecord(buf[i : i+recSize])
			if rec.Plausible() {
				fn(rec)
			}
		}
		off += int64(full)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Len reports the number of indexed keys.
func (ix *Index) Len() int { return len(ix.entries) }

// Lookup returns the packed state for a canonical (key, turn), or false when
// the index has not covered that key yet.
func (ix *Index) Lookup(key uint64, turn uint8) (hashkey.BitState, bool) {
	bs, ok := ix.entries[KeyTurn{key, turn}]
	return bs, ok
}

// Reconstruct rebuilds the full normalized position for an indexed key.
// Absence is reported as ok=false, not an error; the caller falls back to
// "state unknown".
func (ix *Index) Reconstruct(key uint64, turn uint8) (game.Position, bool, error) {
	bs, ok := ix.Lookup(key, turn)
	if !ok {
		return game.Position{}, false, nil
	}
	p, err := bs.Position()
	if err != nil {
		return game.Position{}, false, err
	}
	return p, true, nil
}

// RawVariants enumerates every raw board that normalizes to the indexed key:
// all 16 torus translates of the reconstructed position, each tagged with its
// raw key string.
func (ix *Index) RawVariants(key uint64, turn uint8) ([]Variant, bool, error) {
	p, ok, err := ix.Reconstruct(key, turn)
	if err != nil || !ok {
		return nil, ok, err
	}
	variants := lo.Map(p.TorusShifts(), func(shifted game.Position, _ int) Variant {
		raw, _ := hashkey.RawKey(shifted) // reconstruction is 4x4 by construction
		return Variant{Position: shifted, RawKey: raw}
	})
	return variants, true, nil
}
