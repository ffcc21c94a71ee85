package world

import (
	"slices"
	"time"

	"github.com/ghostrun/ghostnet/internal/protocol"
)

// Session is the server's authoritative record of one joined player.
// Accessed only from the game loop goroutine; no locks needed.
type Session struct {
	ClientID uint64
	Movement protocol.Movement
	Inactive time.Duration // time since the last join or movement update
}

// Sessions is the table of joined players, keyed by client id. It is the
// only owner of Session values; callers get pointers for in-tick use only.
type Sessions struct {
	byID map[uint64]*Session
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[uint64]*Session, 64)}
}

// Join creates a session for clientID. A duplicate join is ignored and
// leaves the existing session untouched. Reports whether a session was created.
func (s *Sessions) Join(clientID uint64, m protocol.Movement) bool {
	if _, ok := s.byID[clientID]; ok {
		return false
	}
	s.byID[clientID] = &Session{ClientID: clientID, Movement: m}
	return true
}

// Move overwrites the movement of a joined player and resets its inactivity
// timer. Movement for an unknown id is dropped and reported as false.
func (s *Sessions) Move(clientID uint64, m protocol.Movement) bool {
	sess, ok := s.byID[clientID]
	if !ok {
		return false
	}
	sess.Movement = m
	sess.Inactive = 0
	return true
}

// Leave removes a session. Reports whether one existed.
func (s *Sessions) Leave(clientID uint64) bool {
	if _, ok := s.byID[clientID]; !ok {
		return false
	}
	delete(s.byID, clientID)
	return true
}

func (s *Sessions) Get(clientID uint64) (*Session, bool) {
	sess, ok := s.byID[clientID]
	return sess, ok
}

func (s *Sessions) Len() int {
	return len(s.byID)
}

// Age adds dt to every inactivity timer and removes the sessions whose timer
// now exceeds timeout. Returns the evicted client ids in ascending order.
func (s *Sessions) Age(dt, timeout time.Duration) []uint64 {
	var evicted []uint64
	for id, sess := range s.byID {
		sess.Inactive += dt
		if sess.Inactive > timeout {
			evicted = append(evicted, id)
		}
	}
	slices.Sort(evicted)
	for _, id := range evicted {
		delete(s.byID, id)
	}
	return evicted
}

// Snapshot lists every session except exclude, ordered by client id.
func (s *Sessions) Snapshot(exclude uint64) protocol.Snapshot {
	snap := make(protocol.Snapshot, 0, len(s.byID))
	for id, sess := range s.byID {
		if id == exclude {
			continue
		}
		snap = append(snap, protocol.PlayerUpdate{ID: id, Movement: sess.Movement})
	}
	slices.SortFunc(snap, func(a, b protocol.PlayerUpdate) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return snap
}
