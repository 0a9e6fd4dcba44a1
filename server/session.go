package server

import (
	"errors"

	"nearby.live/geo"
)

// Most recent positions kept per session. The oldest entry is evicted
// once a 21st position arrives.
const maxTrail = 20

var (
	// ErrDuplicateSession means Create was called for an id already in
	// the store. The transport assigns fresh ids per connection so this
	// indicates a logic fault, not a recoverable condition.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrUnknownSession means an update arrived for an id with no live
	// session, e.g. a stray update after disconnect.
	ErrUnknownSession = errors.New("unknown session")
)

// Session is the server-side state for one connected client.
type Session struct {
	// last reported position, nil until the first update
	Current *geo.Position
	// recent positions, oldest first
	Trail []geo.Position
}

// Entry pairs a session id with its last reported position.
type Entry struct {
	ID       string
	Position geo.Position
}

// Sessions maps connection ids to session state. It is owned by the
// Engine and only touched under the engine's lock.
type Sessions struct {
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
	}
}

// Create inserts an empty session for id.
func (s *Sessions) Create(id string) error {
	if _, ok := s.sessions[id]; ok {
		return ErrDuplicateSession
	}
	s.sessions[id] = new(Session)
	return nil
}

// Record sets the current position for id and appends it to the trail,
// evicting the oldest point once the trail is full. The session must
// already exist.
func (s *Sessions) Record(id string, pos geo.Position) error {
	sess, ok := s.sessions[id]
	if !ok {
		return ErrUnknownSession
	}

	sess.Current = &pos
	sess.Trail = append(sess.Trail, pos)
	if len(sess.Trail) > maxTrail {
		sess.Trail = sess.Trail[1:]
	}

	return nil
}

// Remove deletes the session for id. Removing an absent id is not an
// error, to tolerate duplicate disconnect notifications.
func (s *Sessions) Remove(id string) {
	delete(s.sessions, id)
}

// All returns every session with at least one recorded position.
// Sessions that have not reported yet are invisible to the scan.
func (s *Sessions) All() []Entry {
	entries := make([]Entry, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if sess.Current == nil {
			continue
		}
		entries = append(entries, Entry{ID: id, Position: *sess.Current})
	}
	return entries
}

// Trail returns a copy of the session's recent positions, oldest first.
func (s *Sessions) Trail(id string) []geo.Position {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	trail := make([]geo.Position, len(sess.Trail))
	copy(trail, sess.Trail)
	return trail
}

func (s *Sessions) Len() int {
	return len(s.sessions)
}
