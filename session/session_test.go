package session

import (
	"testing"

	"github.com/matryer/is"

	"github.com/huynd2210/Collapsi/board"
)

func TestSessionLifecycle(t *testing.T) {
	is := is.New(t)
	tr := NewTracker()

	id := tr.Start()
	is.True(id != "")
	is.Equal(tr.Len(), 1)

	is.NoErr(tr.RecordMove(id, 1, board.Coord{Row: 0, Col: 0}, board.Coord{Row: 0, Col: 1}))
	is.NoErr(tr.RecordMove(id, 2, board.Coord{Row: 1, Col: 1}, board.Coord{Row: 3, Col: 1}))

	sum, ok := tr.Summary(id)
	is.True(ok)
	is.Equal(sum.MoveCount, 2)
	is.Equal(sum.Moves[0], "P1 (0,0)->(0,1)")
	is.Equal(sum.Moves[1], "P2 (1,1)->(3,1)")

	endSum, ok := tr.End(id)
	is.True(ok)
	is.Equal(endSum.MoveCount, 2)
	is.Equal(tr.Len(), 0)

	_, ok = tr.Summary(id)
	is.True(!ok)
}

func TestUnknownSession(t *testing.T) {
	is := is.New(t)
	tr := NewTracker()
	err := tr.RecordMove("nope", 1, board.Coord{}, board.Coord{})
	is.True(err != nil)
	_, ok := tr.End("nope")
	is.True(!ok)
}

func TestDistinctIDs(t *testing.T) {
	is := is.New(t)
	tr := NewTracker()
	a, b := tr.Start(), tr.Start()
	is.True(a != b)
	is.Equal(tr.Len(), 2)
}
