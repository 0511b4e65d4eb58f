// Package movegen enumerates legal Collapsi destinations. A move travels
// exactly N orthogonal hops along a simple path (no revisited cell), may not
// cross or land on a collapsed cell, and may not end on its own start or on
// the opponent. Moves are identified by destination only: several paths may
// reach the same cell, but they are all the same move.
package movegen

import (
	"sort"

	"github.com/huynd2210/Collapsi/board"
)

// Destinations returns the sorted (row-major) set of legal destinations for
// a mover on start holding a card worth steps hops. blocked is the set of
// currently collapsed cells.
func Destinations(b *board.Board, blocked map[board.Coord]bool, start, opponent board.Coord, steps int) []board.Coord {
	found := map[board.Coord]bool{}
	visited := map[board.Coord]bool{start: true}
	var dfs func(cur board.Coord, remaining int)
	dfs = func(cur board.Coord, remaining int) {
		if remaining == 0 {
			if cur != start && cur != opponent {
				found[cur] = true
			}
			return
		}
		for _, next := range b.Neighbors(cur) {
			if blocked[next] || visited[next] {
				continue
			}
			visited[next] = true
			dfs(next, remaining-1)
			visited[next] = false
		}
	}
	dfs(start, steps)

	dests := make([]board.Coord, 0, len(found))
	for co := range found {
		dests = append(dests, co)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i].Less(dests[j]) })
	return dests
}

// ExamplePath recovers one concrete path for a destination, for display
// purposes. It returns the first path the DFS discovers, starting with the
// mover's cell and ending on dest, or nil if dest is unreachable. Two calls
// for the same logical move are not guaranteed to agree on intermediate
// cells; nothing in the solver depends on path identity.
func ExamplePath(b *board.Board, blocked map[board.Coord]bool, start, opponent board.Coord, steps int, dest board.Coord) []board.Coord {
	var found []board.Coord
	visited := map[board.Coord]bool{start: true}
	path := []board.Coord{start}
	var dfs func(cur board.Coord, remaining int)
	dfs = func(cur board.Coord, remaining int) {
		if found != nil {
			return
		}
		if remaining == 0 {
			if cur == dest && cur != start && cur != opponent {
				found = append([]board.Coord(nil), path...)
			}
			return
		}
		for _, next := range b.Neighbors(cur) {
			if blocked[next] || visited[next] {
				continue
			}
			visited[next] = true
			path = append(path, next)
			dfs(next, remaining-1)
			path = path[:len(path)-1]
			visited[next] = false
		}
	}
	dfs(start, steps)
	return found
}
