package movegen

import (
	"testing"

	"github.com/matryer/is"

	"github.com/huynd2210/Collapsi/board"
)

func allAces(t *testing.T) *board.Board {
	t.Helper()
	grid := make([]board.Card, 16)
	for i := range grid {
		grid[i] = board.CardAce
	}
	b, err := board.New(4, 4, grid)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDestinationsAllAceBoard(t *testing.T) {
	is := is.New(t)
	b := allAces(t)
	// X at (0,0), O at (1,1): O is not orthogonally adjacent to (0,0), so
	// all four wrapped neighbors of the origin are legal single-step moves.
	dests := Destinations(b, nil, board.Coord{Row: 0, Col: 0}, board.Coord{Row: 1, Col: 1}, 1)
	is.Equal(dests, []board.Coord{
		{Row: 0, Col: 1},
		{Row: 0, Col: 3},
		{Row: 1, Col: 0},
		{Row: 3, Col: 0},
	})
}

func TestDestinationsExcludeStartAndOpponent(t *testing.T) {
	is := is.New(t)
	b := allAces(t)
	start := board.Coord{Row: 2, Col: 2}
	opp := board.Coord{Row: 2, Col: 3}
	for steps := 1; steps <= 4; steps++ {
		for _, d := range Destinations(b, nil, start, opp, steps) {
			is.True(d != start)
			is.True(d != opp)
		}
	}
}

func TestDestinationsRespectCollapsed(t *testing.T) {
	is := is.New(t)
	b := allAces(t)
	start := board.Coord{Row: 0, Col: 0}
	blocked := map[board.Coord]bool{}
	for _, n := range b.Neighbors(start) {
		blocked[n] = true
	}
	dests := Destinations(b, blocked, start, board.Coord{Row: 2, Col: 2}, 1)
	is.Equal(len(dests), 0)
}

func TestDestinationsMultiplePathsCollapse(t *testing.T) {
	is := is.New(t)
	b := allAces(t)
	start := board.Coord{Row: 0, Col: 0}
	opp := board.Coord{Row: 3, Col: 3}
	// With two steps on an open board, (1,1) is reachable via (0,1) and via
	// (1,0); it must appear exactly once.
	dests := Destinations(b, nil, start, opp, 2)
	count := 0
	for _, d := range dests {
		if d == (board.Coord{Row: 1, Col: 1}) {
			count++
		}
	}
	is.Equal(count, 1)
}

func TestExamplePath(t *testing.T) {
	is := is.New(t)
	b := allAces(t)
	start := board.Coord{Row: 0, Col: 0}
	opp := board.Coord{Row: 3, Col: 3}
	dest := board.Coord{Row: 1, Col: 1}
	path := ExamplePath(b, nil, start, opp, 2, dest)
	is.True(path != nil)
	is.Equal(len(path), 3) // start plus two hops
	is.Equal(path[0], start)
	is.Equal(path[len(path)-1], dest)
	// consecutive path cells are torus-adjacent
	for i := 1; i < len(path); i++ {
		adjacent := false
		for _, n := range b.Neighbors(path[i-1]) {
			if n == path[i] {
				adjacent = true
			}
		}
		is.True(adjacent)
	}

	// unreachable destination
	is.Equal(ExamplePath(b, nil, start, opp, 1, board.Coord{Row: 2, Col: 2}), nil)
}
