package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// ErrUnknownFormat is returned when a non-empty store file matches none of
// the known record layouts. The reader refuses to guess on such files.
var ErrUnknownFormat = errors.New("store file matches no known record format")

// New files start with this 16-byte header: magic, version, record size,
// reserved. Its length equals the record size so every record stays aligned.
var magic = []byte("CLPSIDB1")

const (
	headerLen      = 16
	currentVersion = 1
)

// format describes one record layout. headerLen is nonzero only for the
// headered v1 layout; pliesOff locates the u16 plies field, which is the
// only field legacy struct packings moved around.
type format struct {
	name      string
	recSize   int
	headerLen int64
	pliesOff  int
}

var (
	formatV1 = format{name: "v1", recSize: 16, headerLen: headerLen, pliesOff: 11}

	// Headerless layouts produced by older writers with differing struct
	// packing. Detection scaffolding only; nothing writes these anymore.
	legacyFormats = []format{
		{name: "legacy16", recSize: 16, pliesOff: 11},
		{name: "legacy24-padded", recSize: 24, pliesOff: 12},
		{name: "legacy24", recSize: 24, pliesOff: 11},
	}
)

func writeHeader(w io.Writer) error {
	buf := make([]byte, headerLen)
	copy(buf, magic)
	buf[8] = currentVersion
	buf[9] = byte(formatV1.recSize)
	_, err := w.Write(buf)
	return err
}

// detectFormat decides how to read an existing store file. Headered files
// are v1. Headerless files go through plausibility scoring: every legacy
// layout whose record size divides the file size is scored on up to 512
// non-zero-key records, and the best scorer wins. A file with scoreable
// records that fit no layout is an error, not a guess; a file with nothing
// but zero-key padding defaults to the v1 record shape.
func detectFormat(f *os.File, size int64) (format, error) {
	if size == 0 {
		return formatV1, nil
	}
	head := make([]byte, headerLen)
	if size >= headerLen {
		if _, err := f.ReadAt(head, 0); err != nil {
			return format{}, err
		}
		if bytes.Equal(head[:8], magic) {
			if head[8] != currentVersion {
				return format{}, fmt.Errorf("%w: unsupported version %d", ErrUnknownFormat, head[8])
			}
			if int(head[9]) != formatV1.recSize {
				return format{}, fmt.Errorf("%w: header record size %d", ErrUnknownFormat, head[9])
			}
			return formatV1, nil
		}
	}

	candidates := make([]format, 0, len(legacyFormats))
	for _, lf := range legacyFormats {
		if size%int64(lf.recSize) == 0 {
			candidates = append(candidates, lf)
		}
	}
	// nothing divides evenly (truncated tail): score them all anyway
	if len(candidates) == 0 {
		candidates = legacyFormats
	}

	best, bestScore, sawNonZero := format{}, -1.0, false
	for _, cand := range candidates {
		score, nonZero, err := scoreFormat(f, size, cand)
		if err != nil {
			return format{}, err
		}
		sawNonZero = sawNonZero || nonZero
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	if !sawNonZero {
		// only zero-key padding: treat as empty, read with the v1 record shape
		return legacyFormats[0], nil
	}
	if bestScore <= 0 {
		return format{}, ErrUnknownFormat
	}
	log.Debug().Str("format", best.name).Float64("score", bestScore).
		Msg("detected-legacy-store-format")
	return best, nil
}

const maxScoreSamples = 512

// scoreFormat returns the fraction of sampled non-zero-key records that pass
// the plausibility filter under this layout, and whether any non-zero keys
// were seen at all.
func scoreFormat(f *os.File, size int64, cand format) (float64, bool, error) {
	nRecords := size / int64(cand.recSize)
	if nRecords == 0 {
		return 0, false, nil
	}
	toCheck := nRecords
	if toCheck > maxScoreSamples {
		toCheck = maxScoreSamples
	}
	buf := make([]byte, toCheck*int64(cand.recSize))
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return 0, false, err
	}
	hits, samples := 0, 0
	for off := 0; off+cand.recSize <= len(buf); off += cand.recSize {
		rec := decodeRecord(cand, buf[off:off+cand.recSize])
		if rec.Key == 0 {
			continue // zero-key padding never counts against a layout
		}
		samples++
		if rec.Plausible() {
			hits++
		}
	}
	if samples == 0 {
		return 0, false, nil
	}
	return float64(hits) / float64(samples), true, nil
}
