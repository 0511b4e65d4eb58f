// collapsi-solve solves a single packed 4x4 state from the command line and
// prints a machine-parsable result line:
//
//	win best plies | MM:PP:W ...
//
// where win is 0/1, best is the winning destination cell in hex (ff when
// lost), plies is the forced distance, and each tail entry gives one legal
// move's destination cell, distance and post-move win flag. Callers that
// spawn this binary out of process parse exactly that line.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/namsral/flag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/huynd2210/Collapsi/config"
	"github.com/huynd2210/Collapsi/hashkey"
	"github.com/huynd2210/Collapsi/runner"
	"github.com/huynd2210/Collapsi/solver"
)

func main() {
	fs := flag.NewFlagSet("collapsi-solve", flag.ExitOnError)
	state := fs.String("state", "", "packed state: a,b2,b3,b4,x,o,c,turn (hex masks)")
	dbPath := fs.String("db-path", "", "solved store; when set, results are cached and persisted")
	indexPath := fs.String("index-path", "", "position index (optional)")
	ttFraction := fs.Float64("tt-fraction", solver.DefaultTTFraction, "fraction of system memory for the memo table")
	logLevel := fs.String("log-level", "warn", "zerolog level")
	fs.Parse(os.Args[1:])

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad log level")
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *state == "" {
		log.Fatal().Msg("-state is required")
	}
	bs, err := hashkey.ParseStateArg(*state)
	if err != nil {
		log.Fatal().Err(err).Msg("bad state argument")
	}
	p, err := bs.Position()
	if err != nil {
		log.Fatal().Err(err).Msg("state does not unpack")
	}

	var res solver.Result
	var outcomes []solver.MoveOutcome
	if *dbPath != "" {
		r, err := runner.New(config.Config{
			DBPath: *dbPath, IndexPath: *indexPath, TTFraction: *ttFraction,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("opening store")
		}
		defer r.Close()
		if res, err = r.Solve(p); err != nil {
			log.Fatal().Err(err).Msg("solve failed")
		}
		if outcomes, err = r.SolveAllMoves(p); err != nil {
			log.Fatal().Err(err).Msg("per-move solve failed")
		}
	} else {
		s := solver.New()
		s.SetTTFraction(*ttFraction)
		if res, err = s.Solve(p); err != nil {
			log.Fatal().Err(err).Msg("solve failed")
		}
		if outcomes, err = s.SolveAllMoves(p); err != nil {
			log.Fatal().Err(err).Msg("per-move solve failed")
		}
	}

	fmt.Println(resultLine(res, outcomes))
}

func resultLine(res solver.Result, outcomes []solver.MoveOutcome) string {
	win := 0
	best := "ff"
	if res.Win {
		win = 1
	}
	if res.HasBest {
		best = fmt.Sprintf("%02x", hashkey.CoordIndex(res.BestMove))
	}
	tail := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		w := 0
		if o.Win {
			w = 1
		}
		tail = append(tail, fmt.Sprintf("%02x:%d:%d", hashkey.CoordIndex(o.Move), o.Plies, w))
	}
	return fmt.Sprintf("%d %s %d | %s", win, best, res.Plies, strings.Join(tail, " "))
}
