// Package runner is the boundary in front of the core: it validates moves
// into user-facing rejections, consults the solved store before searching,
// persists fresh solve results, and exposes the index-backed reverse mapping.
// HTTP layers, CLIs and test harnesses all talk to the core through it.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/huynd2210/Collapsi/board"
	"github.com/huynd2210/Collapsi/config"
	"github.com/huynd2210/Collapsi/game"
	"github.com/huynd2210/Collapsi/hashkey"
	"github.com/huynd2210/Collapsi/index"
	"github.com/huynd2210/Collapsi/solver"
	"github.com/huynd2210/Collapsi/store"
)

// IllegalMoveError rejects a move request, carrying the destinations that
// would have been legal so the caller can present alternatives.
type IllegalMoveError struct {
	Dest  board.Coord
	Legal []board.Coord
}

func (e *IllegalMoveError) Error() string {
	legal := lo.Map(e.Legal, func(c board.Coord, _ int) string { return c.String() })
	return fmt.Sprintf("illegal move %s; legal: %s", e.Dest, strings.Join(legal, " "))
}

func (e *IllegalMoveError) Unwrap() error { return game.ErrIllegalMove }

// Runner owns the store, the index and one solver. The solver and the store
// write path are serialized behind the runner mutex; concurrent callers
// share cached results but never race a search.
type Runner struct {
	mu     sync.Mutex
	db     *store.Store
	ix     *index.Index
	ixPath string
	solver *solver.Solver
}

// New opens the configured store and index and wires a solver. A missing
// index file is fine (empty index); a missing store file is created.
func New(cfg config.Config) (*Runner, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	ix, err := index.Load(cfg.IndexPath)
	if err != nil {
		// the index is auxiliary: degrade to empty rather than failing startup
		log.Warn().Err(err).Str("path", cfg.IndexPath).Msg("index-unreadable")
		ix = &index.Index{}
	}
	s := solver.New()
	s.SetTTFraction(cfg.TTFraction)
	return &Runner{db: db, ix: ix, ixPath: cfg.IndexPath, solver: s}, nil
}

func (r *Runner) Close() error { return r.db.Close() }

// LegalMoves is the pure legal-destination query.
func (r *Runner) LegalMoves(p game.Position) []board.Coord { return p.LegalMoves() }

// Move validates and applies a destination. Illegal destinations come back
// as *IllegalMoveError with the legal alternatives, never as an internal
// contract panic.
func (r *Runner) Move(p game.Position, dest board.Coord) (game.Position, error) {
	next, err := p.ApplyMoveChecked(dest)
	if err != nil {
		return game.Position{}, &IllegalMoveError{Dest: dest, Legal: p.LegalMoves()}
	}
	return next, nil
}

// Solve answers forced-win status for a 4x4 position, store-first: a cached
// record for the canonical key is returned directly (best move translated
// back into the caller's frame); on a miss the solver runs on the normalized
// position and the result is persisted before returning.
func (r *Runner) Solve(p game.Position) (solver.Result, error) {
	key, turn, err := hashkey.CanonicalHash(p)
	if err != nil {
		return solver.Result{}, err
	}
	rec, ok, err := r.db.Lookup(key, turn)
	if err != nil {
		// a broken store degrades to recompute
		log.Warn().Err(err).Uint64("key", key).Msg("store-lookup-failed")
	} else if ok {
		return r.denormalize(p, recResult(rec)), nil
	}

	r.mu.Lock()
	norm, _, _ := p.Normalize()
	res, err := r.solver.Solve(norm)
	if err != nil {
		r.mu.Unlock()
		return solver.Result{}, err
	}
	if perr := r.db.Put(storeRecord(key, turn, res)); perr != nil {
		log.Warn().Err(perr).Uint64("key", key).Msg("store-put-failed")
	}
	r.mu.Unlock()
	return r.denormalize(p, res), nil
}

// SolveAllMoves reports the post-move outcome of every legal move, in the
// caller's frame. Not cached; callers wanting the single answer use Solve.
func (r *Runner) SolveAllMoves(p game.Position) ([]solver.MoveOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.solver.SolveAllMoves(p)
}

// Explore is the uncached depth-capped search for board sizes the cached
// path rejects. Results may be Unknown and are never persisted.
func (r *Runner) Explore(p game.Position, maxDepth int) solver.Outcome {
	return solver.Explore(p, maxDepth)
}

// ChooseAISide picks the side the AI should play on a fresh deal: player 1
// when the deal is a forced win for the first mover, otherwise player 2.
func (r *Runner) ChooseAISide(p game.Position) (int, error) {
	res, err := r.Solve(p)
	if err != nil {
		return 0, err
	}
	if res.Win == (p.Turn == 1) {
		return 1, nil
	}
	return 2, nil
}

// AIPickMove chooses the move the AI plays: the proving move when winning,
// otherwise the most delaying loss. ok is false only when no move is legal.
func (r *Runner) AIPickMove(p game.Position) (board.Coord, bool, error) {
	res, err := r.Solve(p)
	if err != nil {
		return board.Coord{}, false, err
	}
	if res.Win && res.HasBest {
		return res.BestMove, true, nil
	}
	outcomes, err := r.SolveAllMoves(p)
	if err != nil {
		return board.Coord{}, false, err
	}
	if len(outcomes) == 0 {
		return board.Coord{}, false, nil
	}
	delaying := lo.MaxBy(outcomes, func(a, b solver.MoveOutcome) bool { return a.Plies > b.Plies })
	return delaying.Move, true, nil
}

// BoardFor reconstructs the normalized position behind a canonical key via
// the index. Uncovered keys come back as ok=false ("state unknown").
func (r *Runner) BoardFor(key uint64, turn uint8) (game.Position, bool, error) {
	return r.index().Reconstruct(key, turn)
}

// RawVariants enumerates the raw boards normalizing to an indexed key.
func (r *Runner) RawVariants(key uint64, turn uint8) ([]index.Variant, bool, error) {
	return r.index().RawVariants(key, turn)
}

// index returns the current index snapshot. A background build swaps the
// pointer, so every read goes through the runner mutex; the Index itself is
// immutable after Load.
func (r *Runner) index() *index.Index {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ix
}

func (r *Runner) setIndex(ix *index.Index) {
	r.mu.Lock()
	r.ix = ix
	r.mu.Unlock()
}

// StartIndexBuild kicks off a background index build over the runner's store
// and swaps the fresh index in when it completes. The returned channel
// delivers the terminal error (nil on success) exactly once.
func (r *Runner) StartIndexBuild(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		b := &index.Builder{}
		if _, err := b.Build(ctx, r.db, r.ixPath); err != nil {
			done <- err
			return
		}
		ix, err := index.Load(r.ixPath)
		if err != nil {
			done <- err
			return
		}
		r.setIndex(ix)
		done <- nil
	}()
	return done
}

// denormalize maps a canonical-frame best move back into p's frame. The
// canonical frame has the mover at the origin, so the translation back is
// just the mover's raw coordinate.
func (r *Runner) denormalize(p game.Position, res solver.Result) solver.Result {
	if res.HasBest {
		me := p.Mover()
		res.BestMove = p.Board.Wrap(res.BestMove.Row+me.Row, res.BestMove.Col+me.Col)
	}
	return res
}

func recResult(rec store.Record) solver.Result {
	res := solver.Result{Win: rec.Win == 1, Plies: rec.Plies}
	if co, ok := hashkey.DecodeBestMove(rec.Best); ok {
		res.BestMove = co
		res.HasBest = true
	}
	return res
}

func storeRecord(key uint64, turn uint8, res solver.Result) store.Record {
	rec := store.Record{Key: key, Turn: turn, Best: store.NoMove, Plies: res.Plies}
	if res.Win {
		rec.Win = 1
	}
	if res.HasBest {
		rec.Best = hashkey.EncodeMove(0, hashkey.CoordIndex(res.BestMove))
	}
	return rec
}
