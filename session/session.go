// Package session tracks move histories for externally-identified game
// sessions. The tracker is an explicit handle owned by the boundary layer;
// core packages never see it. It exists for logging and end-of-game
// summaries, not for rules or solving.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/lithammer/shortuuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/huynd2210/Collapsi/board"
)

// Move is one recorded half-move.
type Move struct {
	Player int // 1 or 2
	From   board.Coord
	To     board.Coord
	At     time.Time
}

// Summary is the read-only view of a session handed back on query or close.
type Summary struct {
	ID        string
	StartedAt time.Time
	Moves     []string // "P1 (0,0)->(1,0)" per half-move, in order
	MoveCount int
}

type session struct {
	id        string
	startedAt time.Time
	moves     []Move
}

// Tracker maps session IDs to histories. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*session)}
}

// Start opens a new session and returns its ID.
func (t *Tracker) Start() string {
	id := shortuuid.New()
	t.mu.Lock()
	t.sessions[id] = &session{id: id, startedAt: time.Now()}
	t.mu.Unlock()
	log.Debug().Str("session", id).Msg("session-started")
	return id
}

// RecordMove appends a half-move to the session's history. Unknown IDs are
// an error; the boundary layer decides whether that matters.
func (t *Tracker) RecordMove(id string, player int, from, to board.Coord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return fmt.Errorf("unknown session %q", id)
	}
	s.moves = append(s.moves, Move{Player: player, From: from, To: to, At: time.Now()})
	return nil
}

// Summary returns the session's history without closing it.
func (t *Tracker) Summary(id string) (Summary, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return Summary{}, false
	}
	return s.summary(), true
}

// End closes the session, logging and returning its summary.
func (t *Tracker) End(id string) (Summary, bool) {
	t.mu.Lock()
	s, ok := t.sessions[id]
	if ok {
		delete(t.sessions, id)
	}
	t.mu.Unlock()
	if !ok {
		return Summary{}, false
	}
	sum := s.summary()
	log.Info().Str("session", id).Int("moves", sum.MoveCount).
		Dur("duration", time.Since(s.startedAt)).Msg("session-ended")
	return sum, true
}

// Len reports the number of open sessions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (s *session) summary() Summary {
	return Summary{
		ID:        s.id,
		StartedAt: s.startedAt,
		MoveCount: len(s.moves),
		Moves: lo.Map(s.moves, func(m Move, _ int) string {
			return fmt.Sprintf("P%d (%d,%d)->(%d,%d)",
				m.Player, m.From.Row, m.From.Col, m.To.Row, m.To.Col)
		}),
	}
}
