package store

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solved.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestRoundTrip(t *testing.T) {
	s, _ := tempStore(t)

	recs := []Record{
		{Key: 0xdeadbeefcafe0001, Turn: 0, Win: 1, Best: 0x05, Plies: 3},
		{Key: 0xdeadbeefcafe0001, Turn: 1, Win: 0, Best: NoMove, Plies: 8},
		{Key: 0x1111111111111111, Turn: 0, Win: 0, Best: NoMove, Plies: 0},
	}
	for _, r := range recs {
		require.NoError(t, s.Put(r))
	}
	for _, want := range recs {
		got, ok, err := s.Lookup(want.Key, want.Turn)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok, err := s.Lookup(0x2222222222222222, 0)
	require.NoError(t, err)
	assert.False(t, ok, "miss is not-found, not an error")
}

func TestUpsertOverwrites(t *testing.T) {
	s, _ := tempStore(t)
	require.NoError(t, s.Put(Record{Key: 42, Turn: 0, Win: 0, Best: NoMove, Plies: 4}))
	require.NoError(t, s.Put(Record{Key: 42, Turn: 0, Win: 1, Best: 0x07, Plies: 5}))

	got, ok, err := s.Lookup(42, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(1), got.Win)
	assert.Equal(t, uint16(5), got.Plies)
	assert.Equal(t, 1, s.Count(), "overwrite must not grow the store")
}

func TestPutRejectsImplausible(t *testing.T) {
	s, _ := tempStore(t)
	assert.Error(t, s.Put(Record{Key: 0, Turn: 0}))
	assert.Error(t, s.Put(Record{Key: 1, Turn: 2}))
	assert.Error(t, s.Put(Record{Key: 1, Turn: 0, Win: 1, Plies: 0}))
	assert.Error(t, s.Put(Record{Key: 1, Turn: 0, Win: 0, Plies: 51}))
}

func TestReopenKeepsRecords(t *testing.T) {
	s, path := tempStore(t)
	require.NoError(t, s.Put(Record{Key: 7, Turn: 1, Win: 1, Best: 0x03, Plies: 9}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, ok, err := s2.Lookup(7, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(9), got.Plies)
}

// writeLegacy writes headerless records with plies at the given offset.
func writeLegacy(t *testing.T, path string, recSize, pliesOff int, recs []Record) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	for _, r := range recs {
		buf := make([]byte, recSize)
		binary.LittleEndian.PutUint64(buf[0:8], r.Key)
		buf[8] = r.Turn
		buf[9] = r.Win
		buf[10] = r.Best
		binary.LittleEndian.PutUint16(buf[pliesOff:pliesOff+2], r.Plies)
		_, err = f.Write(buf)
		require.NoError(t, err)
	}
}

func TestLegacy16Detection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy16.db")
	recs := []Record{
		{Key: 0xabc, Turn: 0, Win: 1, Best: 0x04, Plies: 5},
		{Key: 0, Turn: 0, Win: 0, Best: 0, Plies: 0}, // zero-key padding
		{Key: 0xdef, Turn: 1, Win: 0, Best: NoMove, Plies: 12},
	}
	writeLegacy(t, path, 16, 11, recs)

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 2, s.Count(), "padding records are filtered")

	got, ok, err := s.Lookup(0xabc, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(5), got.Plies)
}

func TestLegacy24Detection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy24.db")
	recs := []Record{
		{Key: 0x1001, Turn: 0, Win: 1, Best: 0x0A, Plies: 7},
		{Key: 0x1002, Turn: 1, Win: 0, Best: NoMove, Plies: 20},
	}
	writeLegacy(t, path, 24, 12, recs)

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Lookup(0x1001, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(7), got.Plies)

	// appends keep the detected on-disk layout
	require.NoError(t, s.Put(Record{Key: 0x1003, Turn: 0, Win: 1, Best: 0x01, Plies: 3}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size()%24)
}

func TestUnknownFormatIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = 0xEE // non-zero keys with implausible fields under every layout
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := Open(path)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestAllZeroFileOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zeros.db")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o644))
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 0, s.Count())
}

func TestIterateSkipsImplausible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.db")
	writeLegacy(t, path, 16, 11, []Record{
		{Key: 1, Turn: 0, Win: 1, Best: 0x01, Plies: 1},
		{Key: 2, Turn: 5, Win: 0, Best: 0, Plies: 0}, // bad turn
		{Key: 3, Turn: 1, Win: 0, Best: NoMove, Plies: 2},
	})
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var keys []uint64
	require.NoError(t, s.Iterate(func(r Record) bool {
		keys = append(keys, r.Key)
		return true
	}))
	assert.Equal(t, []uint64{1, 3}, keys)
}

func TestDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dups.db")
	writeLegacy(t, path, 16, 11, []Record{
		{Key: 1, Turn: 0, Win: 1, Best: 0x01, Plies: 1},
		{Key: 1, Turn: 0, Win: 0, Best: NoMove, Plies: 6}, // duplicate, dropped
		{Key: 1, Turn: 1, Win: 0, Best: NoMove, Plies: 2}, // other turn, kept
	})
	kept, dropped, err := Dedup(path)
	require.NoError(t, err)
	assert.Equal(t, 2, kept)
	assert.Equal(t, 1, dropped)

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 2, s.Count())
	// first record wins
	got, ok, err := s.Lookup(1, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(1), got.Win)

	_, err = os.Stat(path + ".bak")
	assert.NoError(t, err, "original preserved as .bak")
}

func TestConcurrentReads(t *testing.T) {
	s, _ := tempStore(t)
	for i := uint64(1); i <= 100; i++ {
		require.NoError(t, s.Put(Record{Key: i, Turn: 0, Win: 1, Best: 0x02, Plies: 2}))
	}
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := uint64(1); i <= 100; i++ {
				_, ok, err := s.Lookup(i, 0)
				if err != nil || !ok {
					t.Error("concurrent lookup failed")
					return
				}
			}
		}()
	}
	for g := 0; g < 4; g++ {
		<-done
	}
}
