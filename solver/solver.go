// Package solver answers "can the side to move force a win?" for 4×4
// Collapsi positions by exhaustive AND-OR search: a position is a win for
// the mover iff some move leads to a position where every opponent reply is
// itself a loss for the opponent. The collapsed set only grows, so the state
// space is monotone and the recursion always terminates.
package solver

import (
	"math/bits"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/huynd2210/Collapsi/board"
	"github.com/huynd2210/Collapsi/game"
	"github.com/huynd2210/Collapsi/hashkey"
)

// DefaultTTFraction is the share of system memory offered to the
// transposition table when the caller does not configure one.
const DefaultTTFraction = 0.01

// Result is the outcome of a full solve: whether the mover forces a win, the
// move that proves it (absent for lost positions), and the distance to the
// terminal position in plies under the discovered strategy: minimal when
// winning, maximally delayed when losing.
type Result struct {
	Win      bool
	BestMove board.Coord
	HasBest  bool
	Plies    uint16
}

// MoveOutcome is the per-move view produced by SolveAllMoves: the outcome,
// from the mover's perspective, of playing Move and then both sides playing
// perfectly.
type MoveOutcome struct {
	Move  board.Coord
	Win   bool
	Plies uint16
}

// nodeResult is the memoized value of a search node, from the perspective of
// whoever is to move there.
type nodeResult struct {
	win   bool
	best  uint8 // encoded move byte, hashkey.NoMove when lost
	plies uint16
}

// Solver runs the search. Not safe for concurrent use; create one per
// goroutine. The transposition memo is scoped to one top-level call and
// cleared on the next.
type Solver struct {
	tt         TranspositionTable
	ttFraction float64
	nodes      atomic.Uint64
}

func New() *Solver {
	return &Solver{ttFraction: DefaultTTFraction}
}

// SetTTFraction overrides the share of system memory used for the memo
// table. Takes effect on the next Solve call.
func (s *Solver) SetTTFraction(fraction float64) {
	if fraction > 0 {
		s.ttFraction = fraction
	}
}

// Solve determines the forced-win status of a position. Only 4×4 boards are
// supported on this path; other sizes get hashkey.ErrUnsupportedSize (use
// Explore for the casual 3×3 variant).
func (s *Solver) Solve(p game.Position) (Result, error) {
	bs, err := hashkey.Bitboards(p)
	if err != nil {
		return Result{}, err
	}
	return s.SolveState(bs), nil
}

// SolveState solves a packed state directly. Used by the CLI, which speaks
// mask wire format, and by batch tools that never build a full Position.
func (s *Solver) SolveState(bs hashkey.BitState) Result {
	s.begin()
	res := s.solve(bs)
	s.finish(bs, res)
	return resultFrom(res)
}

// SolveAllMoves reports, for every legal move, whether playing it still
// forces a win for the mover and in how many plies. Callers use it to pick
// the fastest win or the most delaying loss without separate Solve calls.
func (s *Solver) SolveAllMoves(p game.Position) ([]MoveOutcome, error) {
	bs, err := hashkey.Bitboards(p)
	if err != nil {
		return nil, err
	}
	s.begin()
	me, _ := moverIdx(bs)
	dests := moverDestinations(bs)
	outcomes := make([]MoveOutcome, 0, bits.OnesCount16(dests))
	for to := uint8(0); to < hashkey.BoardN; to++ {
		if dests&bit(to) == 0 {
			continue
		}
		sub := s.solve(applyMove(bs, me, to))
		outcomes = append(outcomes, MoveOutcome{
			Move:  hashkey.IndexCoord(to),
			Win:   !sub.win,
			Plies: sub.plies + 1,
		})
	}
	return outcomes, nil
}

func (s *Solver) begin() {
	if s.ttFraction == 0 {
		s.ttFraction = DefaultTTFraction
	}
	s.tt.Reset(s.ttFraction)
	s.nodes.Store(0)
}

func (s *Solver) finish(bs hashkey.BitState, res nodeResult) {
	log.Debug().
		Str("state", bs.StateArg()).
		Bool("win", res.win).
		Uint16("plies", res.plies).
		Uint64("nodes", s.nodes.Load()).
		Uint64("tt-hits", s.tt.hits.Load()).
		Uint64("tt-collisions", s.tt.collisions.Load()).
		Msg("solve-done")
}

// solve is the AND-OR recursion. The memo key is the state's 64-bit hash
// (turn included); a hash collision within one solve tree costs at most a
// recomputed subtree.
func (s *Solver) solve(bs hashkey.BitState) nodeResult {
	key := bs.Hash()
	if entry, ok := s.tt.lookup(key); ok {
		return nodeResult{win: entry.win(), best: entry.best, plies: entry.plies}
	}
	s.nodes.Add(1)

	me, _ := moverIdx(bs)
	dests := moverDestinations(bs)
	if dests == 0 {
		// no legal move: the mover loses on the spot
		res := nodeResult{win: false, best: hashkey.NoMove, plies: 0}
		s.tt.store(key, res.win, res.best, res.plies)
		return res
	}

	candidates := s.orderMoves(bs, me, dests)

	var maxDelay uint16
	for _, cand := range candidates {
		sub := s.solve(applyMove(bs, me, cand.to))
		if !sub.win {
			// every opponent continuation from here loses for the opponent,
			// so cand wins for us
			res := nodeResult{win: true, best: hashkey.EncodeMove(me, cand.to), plies: sub.plies + 1}
			s.tt.store(key, res.win, res.best, res.plies)
			return res
		}
		if sub.plies+1 > maxDelay {
			maxDelay = sub.plies + 1
		}
	}

	res := nodeResult{win: false, best: hashkey.NoMove, plies: maxDelay}
	s.tt.store(key, res.win, res.best, res.plies)
	return res
}

type candidate struct {
	to         uint8
	oppReplies int
}

// orderMoves sorts candidate destinations by the reply-count heuristic: a
// move leaving the opponent exactly one reply goes first, the rest ascend by
// reply count. Purely a speed heuristic; the search is exhaustive either way.
func (s *Solver) orderMoves(bs hashkey.BitState, me uint8, dests uint16) []candidate {
	candidates := make([]candidate, 0, bits.OnesCount16(dests))
	for to := uint8(0); to < hashkey.BoardN; to++ {
		if dests&bit(to) == 0 {
			continue
		}
		child := applyMove(bs, me, to)
		candidates = append(candidates, candidate{
			to:         to,
			oppReplies: bits.OnesCount16(moverDestinations(child)),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.oppReplies == 1) != (b.oppReplies == 1) {
			return a.oppReplies == 1
		}
		return a.oppReplies < b.oppReplies
	})
	return candidates
}

func resultFrom(res nodeResult) Result {
	out := Result{Win: res.win, Plies: res.plies}
	if co, ok := hashkey.DecodeBestMove(res.best); ok {
		out.BestMove = co
		out.HasBest = true
	}
	return out
}
