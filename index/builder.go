package index

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/huynd2210/Collapsi/hashkey"
	"github.com/huynd2210/Collapsi/store"
)

// Builder populates an index file in the background by enumerating every
// canonical initial 4x4 deal, keeping the ones whose key the solved store
// already knows, and appending their records. A canonical deal fixes the
// mover's jack at cell 0; the other jack takes one of the 15 remaining cells
// and the rest of the deck (4 aces, 4 twos, 4 threes, 2 fours) fills the
// other 14. Runs are resume-safe: keys already present in the output file
// are skipped. Stride/Offset shard the enumeration across processes; each
// shard must write its own output file.
type Builder struct {
	Stride int
	Offset int
}

// Build enumerates deals until done or the context is canceled, returning
// the number of records appended. Cancellation surfaces as ctx.Err() with
// everything written so far already flushed.
func (b *Builder) Build(ctx context.Context, db *store.Store, outPath string) (int, error) {
	stride := b.Stride
	if stride < 1 {
		stride = 1
	}
	if b.Offset < 0 || b.Offset >= stride {
		return 0, fmt.Errorf("offset %d out of range for stride %d", b.Offset, stride)
	}

	solved := make(map[uint64]struct{})
	if err := db.Iterate(func(rec store.Record) bool {
		if rec.Turn == 0 {
			solved[rec.Key] = struct{}{}
		}
		return true
	}); err != nil {
		return 0, fmt.Errorf("scanning solved store: %w", err)
	}

	existing, err := Load(outPath)
	if err != nil {
		return 0, err
	}
	done := make(map[uint64]struct{}, existing.Len())
	for kt := range existing.entries {
		done[kt.Key] = struct{}{}
	}

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriterSize(out, 1<<16)

	g, ctx := errgroup.WithContext(ctx)
	states := make(chan hashkey.BitState, 4096)
	results := make(chan Record, 4096)

	g.Go(func() error {
		defer close(states)
		return b.enumerate(ctx, stride, states)
	})

	var workers sync.WaitGroup
	for i := 0; i < runtime.GOMAXPROCS(0); i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for bs := range states {
				key := bs.Hash()
				if _, ok := solved[key]; !ok {
					continue
				}
				if _, ok := done[key]; ok {
					continue
				}
				select {
				case results <- Record{Key: key, State: bs}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	added := 0
	g.Go(func() error {
		buf := make([]byte, recSize24)
		for rec := range results {
			encodeRecord(rec, buf)
			if _, err := bw.Write(buf); err != nil {
				return err
			}
			added++
			if added%100000 == 0 {
				log.Info().Int("added", added).Msg("index-build-progress")
			}
		}
		return nil
	})

	werr := g.Wait()
	if err := bw.Flush(); err != nil && werr == nil {
		werr = err
	}
	if err := out.Close(); err != nil && werr == nil {
		werr = err
	}
	log.Info().Int("added", added).Int("solved-keys", len(solved)).
		Err(werr).Msg("index-build-done")
	return added, werr
}

// enumerate walks every canonical deal in a fixed order and sends the ones
// this shard owns. The order is deterministic, so stride/offset partitions
// are stable across runs.
func (b *Builder) enumerate(ctx context.Context, stride int, out chan<- hashkey.BitState) error {
	count := 0
	aces, twos, threes := make([]int, 4), make([]int, 4), make([]int, 4)
	for oIdx := uint8(1); oIdx < hashkey.BoardN; oIdx++ {
		free := make([]uint8, 0, 14)
		for i := uint8(1); i < hashkey.BoardN; i++ {
			if i != oIdx {
				free = append(free, i)
			}
		}
		jacks := uint16(1) | uint16(1)<<oIdx

		ag := combin.NewCombinationGenerator(14, 4)
		for ag.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ag.Combination(aces)
			aMask, rest10 := pickCells(free, aces)
			tg := combin.NewCombinationGenerator(10, 4)
			for tg.Next() {
				tg.Combination(twos)
				twoMask, rest6 := pickCells(rest10, twos)
				rg := combin.NewCombinationGenerator(6, 4)
				for rg.Next() {
					rg.Combination(threes)
					threeMask, rest2 := pickCells(rest6, threes)
					count++
					if (count-1)%stride != b.Offset {
						continue
					}
					bs := hashkey.BitState{
						A:     jacks | aMask,
						Two:   twoMask,
						Three: threeMask,
						Four:  uint16(1)<<rest2[0] | uint16(1)<<rest2[1],
						X:     1,
						O:     uint16(1) << oIdx,
					}
					select {
					case out <- bs:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
	}
	log.Debug().Int("deals", count).Msg("deal-enumeration-complete")
	return nil
}

// pickCells splits cells into the mask of the chosen positions and the
// remaining cells, preserving order.
func pickCells(cells []uint8, chosen []int) (uint16, []uint8) {
	var mask uint16
	rest := make([]uint8, 0, len(cells)-len(chosen))
	j := 0
	for i, cell := range cells {
		if j < len(chosen) && i == chosen[j] {
			mask |= uint16(1) << cell
			j++
			continue
		}
		rest = append(rest, cell)
	}
	return mask, rest
}
