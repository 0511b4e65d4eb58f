// collapsi-shell is an interactive inspection shell over the solver: deal
// boards, play moves, solve positions, and poke at canonical keys and their
// raw torus variants.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/namsral/flag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/huynd2210/Collapsi/board"
	"github.com/huynd2210/Collapsi/config"
	"github.com/huynd2210/Collapsi/game"
	"github.com/huynd2210/Collapsi/hashkey"
	"github.com/huynd2210/Collapsi/runner"
	"github.com/huynd2210/Collapsi/session"
)

const exploreDepth = 64

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "deal [seed] - deal a fresh 4x4 board\n")
	io.WriteString(w, "deal3 [seed] - deal the casual 3x3 variant\n")
	io.WriteString(w, "show - print the current board\n")
	io.WriteString(w, "moves - list legal destinations for the side to move\n")
	io.WriteString(w, "path r,c - show one concrete path to a destination\n")
	io.WriteString(w, "apply r,c - play a move\n")
	io.WriteString(w, "solve - forced-win status for the side to move\n")
	io.WriteString(w, "all - per-move outcomes after one ply\n")
	io.WriteString(w, "key - canonical and raw keys of the position\n")
	io.WriteString(w, "variants - raw boards sharing the canonical key (needs index)\n")
	io.WriteString(w, "summary - move history of the current session\n")
	io.WriteString(w, "bye, exit - quit\n")
}

type shellState struct {
	r       *runner.Runner
	tracker *session.Tracker
	sessID  string
	pos     game.Position
	dealt   bool
}

func parseCoord(arg string) (board.Coord, error) {
	parts := strings.Split(strings.TrimSpace(arg), ",")
	if len(parts) != 2 {
		return board.Coord{}, fmt.Errorf("want r,c, got %q", arg)
	}
	r, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return board.Coord{}, err
	}
	c, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return board.Coord{}, err
	}
	return board.Coord{Row: r, Col: c}, nil
}

func (s *shellState) deal(arg string, dim int, w io.Writer) {
	dealer := board.NewDealer()
	if arg != "" {
		seed, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			showMessage("Error: bad seed: "+err.Error(), w)
			return
		}
		dealer = board.NewSeededDealer(seed)
	}
	var (
		b      *board.Board
		j1, j2 board.Coord
		err    error
	)
	if dim == 4 {
		b, j1, j2, err = dealer.Deal4x4()
	} else {
		b, j1, j2, err = dealer.Deal3x3()
	}
	if err != nil {
		showMessage("Error: "+err.Error(), w)
		return
	}
	if s.sessID != "" {
		s.tracker.End(s.sessID)
	}
	s.pos = game.NewPosition(b, j1, j2)
	s.dealt = true
	s.sessID = s.tracker.Start()
	showMessage(s.pos.Pretty(), w)
}

func (s *shellState) apply(arg string, w io.Writer) {
	dest, err := parseCoord(arg)
	if err != nil {
		showMessage("Error: "+err.Error(), w)
		return
	}
	mover := s.pos.Turn
	from := s.pos.Mover()
	next, err := s.r.Move(s.pos, dest)
	if err != nil {
		showMessage("Error: "+err.Error(), w)
		return
	}
	if err := s.tracker.RecordMove(s.sessID, mover, from, dest); err != nil {
		log.Warn().Err(err).Msg("session-record-failed")
	}
	s.pos = next
	showMessage(s.pos.Pretty(), w)
	if len(s.pos.LegalMoves()) == 0 {
		showMessage(fmt.Sprintf("player %d has no moves: player %d wins", s.pos.Turn, mover), w)
	}
}

func (s *shellState) solve(w io.Writer) {
	if s.pos.Board.Width() != 4 {
		out := s.r.Explore(s.pos, exploreDepth)
		showMessage("exploratory result: "+out.String(), w)
		return
	}
	res, err := s.r.Solve(s.pos)
	if err != nil {
		showMessage("Error: "+err.Error(), w)
		return
	}
	if res.Win {
		showMessage(fmt.Sprintf("win in %d plies, best %s", res.Plies, res.BestMove), w)
	} else {
		showMessage(fmt.Sprintf("loss; longest defense %d plies", res.Plies), w)
	}
}

func (s *shellState) solveAll(w io.Writer) {
	if s.pos.Board.Width() != 4 {
		showMessage("per-move solving needs a 4x4 board", w)
		return
	}
	outcomes, err := s.r.SolveAllMoves(s.pos)
	if err != nil {
		showMessage("Error: "+err.Error(), w)
		return
	}
	var sb strings.Builder
	for _, o := range outcomes {
		verdict := "loss"
		if o.Win {
			verdict = "win"
		}
		fmt.Fprintf(&sb, "%s -> %s in %d plies\n", o.Move, verdict, o.Plies)
	}
	showMessage(strings.TrimRight(sb.String(), "\n"), w)
}

func (s *shellState) keys(w io.Writer) {
	canon, err := hashkey.CanonicalKey(s.pos)
	if err != nil {
		showMessage("Error: "+err.Error(), w)
		return
	}
	raw, _ := hashkey.RawKey(s.pos)
	showMessage("canonical "+canon+"\nraw       "+raw, w)
}

func (s *shellState) variants(w io.Writer) {
	key, turn, err := hashkey.CanonicalHash(s.pos)
	if err != nil {
		showMessage("Error: "+err.Error(), w)
		return
	}
	vars, ok, err := s.r.RawVariants(key, turn)
	if err != nil {
		showMessage("Error: "+err.Error(), w)
		return
	}
	if !ok {
		showMessage("key not in index yet (state unknown)", w)
		return
	}
	for _, v := range vars {
		showMessage(v.RawKey, w)
	}
}

func (s *shellState) summary(w io.Writer) {
	sum, ok := s.tracker.Summary(s.sessID)
	if !ok {
		showMessage("no session", w)
		return
	}
	if sum.MoveCount == 0 {
		showMessage("no moves yet", w)
		return
	}
	showMessage(strings.Join(sum.Moves, "\n"), w)
}

func shellLoop(s *shellState) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mcollapsi>\033[0m ",
		HistoryFile:     "/tmp/collapsi-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()

readlineLoop:
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		line = strings.TrimSpace(line)

		needsBoard := line != "" && line != "help" && line != "bye" && line != "exit" &&
			!strings.HasPrefix(line, "deal")
		if needsBoard && !s.dealt {
			showMessage("Please deal a board first with the `deal` command", l.Stderr())
			continue
		}

		switch {
		case line == "deal" || strings.HasPrefix(line, "deal "):
			s.deal(strings.TrimSpace(strings.TrimPrefix(line, "deal")), 4, l.Stderr())
		case line == "deal3" || strings.HasPrefix(line, "deal3 "):
			s.deal(strings.TrimSpace(strings.TrimPrefix(line, "deal3")), 3, l.Stderr())
		case line == "show":
			showMessage(s.pos.Pretty(), l.Stderr())
		case line == "moves":
			moves := make([]string, 0)
			for _, m := range s.pos.LegalMoves() {
				moves = append(moves, m.String())
			}
			showMessage(strings.Join(moves, " "), l.Stderr())
		case strings.HasPrefix(line, "path "):
			dest, err := parseCoord(line[5:])
			if err != nil {
				showMessage("Error: "+err.Error(), l.Stderr())
				break
			}
			path := s.pos.ExamplePath(dest)
			if path == nil {
				showMessage("destination not reachable", l.Stderr())
				break
			}
			steps := make([]string, 0, len(path))
			for _, c := range path {
				steps = append(steps, c.String())
			}
			showMessage(strings.Join(steps, " -> "), l.Stderr())
		case strings.HasPrefix(line, "apply "):
			s.apply(line[6:], l.Stderr())
		case line == "solve":
			s.solve(l.Stderr())
		case line == "all":
			s.solveAll(l.Stderr())
		case line == "key":
			s.keys(l.Stderr())
		case line == "variants":
			s.variants(l.Stderr())
		case line == "summary":
			s.summary(l.Stderr())
		case line == "bye" || line == "exit":
			break readlineLoop
		case line == "help":
			usage(l.Stderr())
		case line == "":
		default:
			log.Debug().Msgf("you said: %v", strconv.Quote(line))
			showMessage("unknown command; try `help`", l.Stderr())
		}
	}
	if s.sessID != "" {
		s.tracker.End(s.sessID)
	}
	log.Debug().Msgf("Exiting readline loop...")
}

func main() {
	var cfg config.Config
	if err := cfg.Load(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatal().Err(err).Msg("bad configuration")
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad log level")
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	r, err := runner.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("opening store")
	}
	defer r.Close()

	shellLoop(&shellState{r: r, tracker: session.NewTracker()})
}
