package hashkey

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/huynd2210/Collapsi/board"
	"github.com/huynd2210/Collapsi/game"
)

func allAcePosition(t *testing.T) game.Position {
	t.Helper()
	grid := make([]board.Card, 16)
	for i := range grid {
		grid[i] = board.CardAce
	}
	b, err := board.New(4, 4, grid)
	if err != nil {
		t.Fatal(err)
	}
	return game.Position{
		Board: b,
		P1:    board.Coord{Row: 0, Col: 0},
		P2:    board.Coord{Row: 1, Col: 1},
		Turn:  1,
	}
}

func dealtPosition(t *testing.T, seed uint64) game.Position {
	t.Helper()
	b, p1, p2, err := board.NewSeededDealer(seed).Deal4x4()
	if err != nil {
		t.Fatal(err)
	}
	return game.NewPosition(b, p1, p2)
}

func TestBitboardsAllAceScenario(t *testing.T) {
	is := is.New(t)
	bs, err := Bitboards(allAcePosition(t))
	is.NoErr(err)
	is.Equal(bs.A, uint16(0xFFFF))
	is.Equal(bs.Two, uint16(0))
	is.Equal(bs.Three, uint16(0))
	is.Equal(bs.Four, uint16(0))
	is.Equal(bs.X, uint16(0x0001))
	is.Equal(bs.O, uint16(0x0020)) // bit 5 = row 1 * 4 + col 1
	is.Equal(bs.Collapsed, uint16(0))
	is.Equal(bs.Turn, uint8(0))
}

func TestBitboardsRejectNon4x4(t *testing.T) {
	is := is.New(t)
	b, _, _, err := board.NewSeededDealer(1).Deal3x3()
	is.NoErr(err)
	_, err = Bitboards(game.NewPosition(b, board.Coord{}, board.Coord{Row: 1, Col: 1}))
	is.True(errors.Is(err, ErrUnsupportedSize))
}

func TestCardClassPartition(t *testing.T) {
	is := is.New(t)
	for seed := uint64(1); seed <= 10; seed++ {
		bs, err := Bitboards(dealtPosition(t, seed))
		is.NoErr(err)
		is.Equal(bs.A|bs.Two|bs.Three|bs.Four, uint16(0xFFFF))
		is.Equal(bs.A&bs.Two, uint16(0))
		is.Equal(bs.A&bs.Three, uint16(0))
		is.Equal(bs.A&bs.Four, uint16(0))
		is.Equal(bs.Two&bs.Three, uint16(0))
		is.Equal(bs.Two&bs.Four, uint16(0))
		is.Equal(bs.Three&bs.Four, uint16(0))
	}
}

func TestCanonicalKeyInvariantUnderShifts(t *testing.T) {
	is := is.New(t)
	p := dealtPosition(t, 21)
	moves := p.LegalMoves()
	is.True(len(moves) > 0)
	p = p.ApplyMove(moves[0])

	key, err := CanonicalKey(p)
	is.NoErr(err)
	shifts := p.TorusShifts()
	is.Equal(len(shifts), 16)
	for _, shifted := range shifts {
		k, err := CanonicalKey(shifted)
		is.NoErr(err)
		is.Equal(k, key)
	}
}

func TestTurnDiscrimination(t *testing.T) {
	is := is.New(t)
	p := dealtPosition(t, 4)
	k1, err := CanonicalKey(p)
	is.NoErr(err)
	p.Turn = 2
	k2, err := CanonicalKey(p)
	is.NoErr(err)
	is.True(k1 != k2)
}

func TestRawKeyDiffersAcrossShifts(t *testing.T) {
	is := is.New(t)
	p := dealtPosition(t, 6)
	keys := map[string]bool{}
	for _, shifted := range p.TorusShifts() {
		k, err := RawKey(shifted)
		is.NoErr(err)
		keys[k] = true
	}
	// raw keys do not collapse translates (with overwhelming likelihood on a
	// dealt board the 16 translates are all distinct)
	is.True(len(keys) > 1)
}

func TestHash64Deterministic(t *testing.T) {
	is := is.New(t)
	is.Equal(Hash64(1, 2, 3), Hash64(1, 2, 3))
	is.True(Hash64(1, 2, 3) != Hash64(3, 2, 1)) // order-sensitive
	is.True(Hash64(0) != Hash64(0, 0))
}

func TestPair64(t *testing.T) {
	is := is.New(t)
	is.Equal(Pair64(3, 2), uint64(3*3+3+2))
	is.Equal(Pair64(2, 3), uint64(2+3*3))
	// wraparound, not overflow panic
	_ = Pair64(1<<63, 1<<62)
}

func TestDecodeBestMove(t *testing.T) {
	is := is.New(t)
	co, ok := DecodeBestMove(0x05)
	is.True(ok)
	is.Equal(co, board.Coord{Row: 1, Col: 1})

	_, ok = DecodeBestMove(NoMove)
	is.True(!ok)

	is.Equal(MoveFrom(0xA5), uint8(0xA))
	is.Equal(MoveTo(0xA5), uint8(0x5))
	is.Equal(EncodeMove(0xA, 0x5), uint8(0xA5))
}

func TestBitStateRoundTrip(t *testing.T) {
	is := is.New(t)
	p := dealtPosition(t, 17)
	moves := p.LegalMoves()
	is.True(len(moves) > 0)
	p = p.ApplyMove(moves[0])

	bs, err := Bitboards(p)
	is.NoErr(err)
	back, err := bs.Position()
	is.NoErr(err)
	// Jack identity folds into the A class; everything move-relevant survives.
	bs2, err := Bitboards(back)
	is.NoErr(err)
	is.Equal(bs2, bs)
	is.Equal(back.P1, p.P1)
	is.Equal(back.P2, p.P2)
	is.Equal(back.Turn, p.Turn)
	is.Equal(back.Collapsed, p.Collapsed)
}

func TestStateArgRoundTrip(t *testing.T) {
	is := is.New(t)
	bs, err := Bitboards(dealtPosition(t, 9))
	is.NoErr(err)
	parsed, err := ParseStateArg(bs.StateArg())
	is.NoErr(err)
	is.Equal(parsed, bs)

	_, err = ParseStateArg("1,2,3")
	is.True(err != nil)
	_, err = ParseStateArg("ffff,0,0,0,1,2,0,7")
	is.True(err != nil)
}
