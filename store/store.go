package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
)

// Store is a single-writer solved-position cache over one file. Reads are
// safe to share; every mutation goes through the store mutex, which is the
// required write serialization for a given physical file. Two Stores (or
// two processes) writing the same path concurrently will corrupt it.
type Store struct {
	mu      sync.RWMutex
	f       *os.File
	path    string
	fmt     format
	offsets map[uint64]int64 // compound (key,turn) hash → record offset
}

// compoundKey hashes (key, turn) into the offset-index key.
func compoundKey(key uint64, turn uint8) uint64 {
	var b [9]byte
	binary.LittleEndian.PutUint64(b[:8], key)
	b[8] = turn
	return xxhash.Sum64(b[:])
}

// Open opens or creates a store file. New files get the v1 header; existing
// files are format-detected, then scanned once to build the in-memory
// (key,turn)→offset index that makes Lookup and upserts O(1).
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	s := &Store{f: f, path: path, offsets: make(map[uint64]int64)}
	if info.Size() == 0 {
		if err := writeHeader(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing store header: %w", err)
		}
		s.fmt = formatV1
		return s, nil
	}
	s.fmt, err = detectFormat(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := s.buildOffsets(); err != nil {
		f.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Str("format", s.fmt.name).
		Int("records", len(s.offsets)).Msg("store-opened")
	return s, nil
}

func (s *Store) Close() error { return s.f.Close() }

// Count returns the number of indexed (plausible) records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.offsets)
}

// Lookup finds the record for a canonical key and turn. A miss is (zero
// record, false, nil), never an error.
func (s *Store) Lookup(key uint64, turn uint8) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	off, ok := s.offsets[compoundKey(key, turn)]
	if !ok {
		return Record{}, false, nil
	}
	rec, err := s.readAt(off)
	if err != nil {
		return Record{}, false, err
	}
	if rec.Key != key || rec.Turn != turn {
		// compound-hash collision; treat as a miss
		return Record{}, false, nil
	}
	return rec, true, nil
}

// Put upserts a record: an existing record for (key, turn) is overwritten in
// place, otherwise the record is appended. Implausible records are rejected
// rather than written.
func (s *Store) Put(rec Record) error {
	if rec.Key == 0 {
		return fmt.Errorf("refusing to store zero key")
	}
	if !rec.Plausible() {
		return fmt.Errorf("refusing to store implausible record: %+v", rec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, s.fmt.recSize)
	rec.encode(s.fmt, buf)
	ck := compoundKey(rec.Key, rec.Turn)
	if off, ok := s.offsets[ck]; ok {
		_, err := s.f.WriteAt(buf, off)
		return err
	}
	off, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := s.f.Write(buf); err != nil {
		return err
	}
	s.offsets[ck] = off
	return nil
}

// Iterate streams every plausible record in file order, reading fixed-size
// chunks. Zero-key records (padding) and implausible records are skipped,
// not reported. The callback returns false to stop early.
func (s *Store) Iterate(fn func(Record) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return iterate(s.f, s.fmt, func(_ int64, rec Record) bool { return fn(rec) })
}

func (s *Store) buildOffsets() error {
	return iterate(s.f, s.fmt, func(off int64, rec Record) bool {
		// later records win, matching upsert-by-overwrite semantics for
		// files that historically accumulated duplicates
		s.offsets[compoundKey(rec.Key, rec.Turn)] = off
		return true
	})
}

func (s *Store) readAt(off int64) (Record, error) {
	buf := make([]byte, s.fmt.recSize)
	if _, err := s.f.ReadAt(buf, off); err != nil {
		return Record{}, err
	}
	return decodeRecord(s.fmt, buf), nil
}

func iterate(f *os.File, fm format, fn func(off int64, rec Record) bool) error {
	chunkRecords := 4096
	buf := make([]byte, fm.recSize*chunkRecords)
	off := fm.headerLen
	for {
		n, err := f.ReadAt(buf, off)
		if n == 0 {
			if err == io.EOF || err == nil {
				return nil
			}
			return err
		}
		full := n - n%fm.recSize
		for i := 0; i+fm.recSize <= full; i += fm.recSize {
			rec := decodeRecord(fm, buf[i:i+fm.recSize])
			if rec.Key == 0 || !rec.Plausible() {
				continue
			}
			if !fn(off+int64(i), rec) {
				return nil
			}
		}
		off += int64(full)
		if err == io.EOF {
			// a trailing partial record is ignored, matching the batch
			// tools' truncate-to-record-multiple recovery
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Dedup rewrites the store at path keeping only the first record per
// (key, turn), emitting a v1-format file. The original is preserved at
// path+".bak". Returns the kept and dropped record counts. The store must
// not be open elsewhere while deduping.
func Dedup(path string) (kept, dropped int, err error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return 0, 0, err
	}
	fm, err := detectFormat(src, info.Size())
	if err != nil {
		return 0, 0, err
	}

	tmpPath := path + ".dedup"
	dst, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, 0, err
	}
	if err := writeHeader(dst); err != nil {
		dst.Close()
		return 0, 0, err
	}
	seen := make(map[uint64]bool)
	buf := make([]byte, formatV1.recSize)
	ierr := iterate(src, fm, func(_ int64, rec Record) bool {
		ck := compoundKey(rec.Key, rec.Turn)
		if seen[ck] {
			dropped++
			return true
		}
		seen[ck] = true
		rec.encode(formatV1, buf)
		if _, werr := dst.Write(buf); werr != nil {
			err = werr
			return false
		}
		kept++
		return true
	})
	if cerr := dst.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if ierr != nil && err == nil {
		err = ierr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, 0, err
	}
	if err := os.Rename(path, path+".bak"); err != nil {
		return 0, 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, 0, err
	}
	log.Info().Str("path", path).Int("kept", kept).Int("dropped", dropped).Msg("store-deduped")
	return kept, dropped, nil
}
