package solver

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const entrySize = 16

// Minimum table size. 2^20 entries is plenty for a single 4×4 solve tree and
// keeps reset cheap when a fresh solver is created per request.
const minSizePowerOf2 = 20

const (
	flagValid = 0x01
	flagWin   = 0x02
)

// 16 bytes (entrySize). The full hash is stored, so a lookup hit is an exact
// key match; colliding keys simply overwrite each other's slots, which costs
// a recomputation and never a wrong answer.
type tableEntry struct {
	key   uint64
	plies uint16
	flags uint8
	best  uint8
}

func (t tableEntry) valid() bool { return t.flags&flagValid != 0 }
func (t tableEntry) win() bool   { return t.flags&flagWin != 0 }

// TranspositionTable memoizes solved subtrees within one top-level solve. It
// is transient: Reset clears it, and nothing in it is ever persisted. The
// table is a flat power-of-two array indexed by the low hash bits.
type TranspositionTable struct {
	table        []tableEntry
	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	collisions   atomic.Uint64
	sizePowerOf2 int
	sizeMask     uint64
}

func (t *TranspositionTable) lookup(key uint64) (tableEntry, bool) {
	t.lookups.Add(1)
	entry := t.table[key&t.sizeMask]
	if !entry.valid() || entry.key != key {
		return tableEntry{}, false
	}
	t.hits.Add(1)
	return entry, true
}

func (t *TranspositionTable) store(key uint64, win bool, best uint8, plies uint16) {
	idx := key & t.sizeMask
	if t.table[idx].valid() && t.table[idx].key != key {
		t.collisions.Add(1)
	}
	flags := uint8(flagValid)
	if win {
		flags |= flagWin
	}
	t.table[idx] = tableEntry{key: key, plies: plies, flags: flags, best: best}
	t.created.Add(1)
}

// Reset sizes the table to the largest power of two that fits in the given
// fraction of system memory (with a small floor) and clears it. Reuses the
// existing allocation when the size is unchanged.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	t.sizePowerOf2 = int(math.Log2(desiredNElems))
	if t.sizePowerOf2 < minSizePowerOf2 {
		t.sizePowerOf2 = minSizePowerOf2
	}
	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	reused := false
	if t.table != nil && len(t.table) == numElems {
		reused = true
		clear(t.table)
	} else {
		t.table = make([]tableEntry, numElems)
	}

	log.Debug().Int("num-elems", numElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reused", reused).
		Msg("transposition-table-size")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.collisions.Store(0)
}
