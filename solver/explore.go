package solver

import (
	"fmt"
	"strings"

	"github.com/huynd2210/Collapsi/game"
)

// Outcome is the tri-state result of the depth-capped exploratory search.
// Unknown means the cap was hit before the subtree was proven either way; it
// is deliberately distinct from Loss so a search that gave up can never be
// mistaken for a proven loss. Exploratory results are never persisted.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeLoss
	OutcomeWin
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "unknown"
	}
}

// Explore runs the same AND-OR search without bitboards or the cached path,
// so it works on any board size (it exists for the casual 3×3 variant).
// maxDepth caps the recursion; proven results are memoized, Unknown results
// are not since they depend on the remaining depth.
func Explore(p game.Position, maxDepth int) Outcome {
	memo := map[string]Outcome{}
	return explore(p, maxDepth, memo)
}

func explore(p game.Position, depth int, memo map[string]Outcome) Outcome {
	key := exploreKey(p)
	if cached, ok := memo[key]; ok {
		return cached
	}
	moves := p.LegalMoves()
	if len(moves) == 0 {
		memo[key] = OutcomeLoss
		return OutcomeLoss
	}
	if depth <= 0 {
		return OutcomeUnknown
	}
	sawUnknown := false
	for _, m := range moves {
		switch explore(p.ApplyMove(m), depth-1, memo) {
		case OutcomeLoss:
			memo[key] = OutcomeWin
			return OutcomeWin
		case OutcomeUnknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return OutcomeUnknown
	}
	memo[key] = OutcomeLoss
	return OutcomeLoss
}

// exploreKey serializes a position for the map-backed memo. Any board size;
// no hashing, so no collision caveats.
func exploreKey(p game.Position) string {
	var sb strings.Builder
	for _, c := range p.Board.Grid() {
		sb.WriteByte(byte(c))
	}
	fmt.Fprintf(&sb, "|%d,%d|%d,%d|%d|", p.P1.Row, p.P1.Col, p.P2.Row, p.P2.Col, p.Turn)
	for _, c := range p.Collapsed {
		fmt.Fprintf(&sb, "%d,%d;", c.Row, c.Col)
	}
	return sb.String()
}
