package net

import (
	"slices"
)

// SessionStore is the game loop's table of live connections, keyed by
// client id. Game loop only; no locking.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session, 64)}
}

func (st *SessionStore) Add(s *Session) {
	st.sessions[s.ID] = s
}

func (st *SessionStore) Remove(id uint64) {
	delete(st.sessions, id)
}

func (st *SessionStore) Get(id uint64) *Session {
	return st.sessions[id]
}

func (st *SessionStore) Count() int {
	return len(st.sessions)
}

// IDs returns every stored id in ascending order, closed sessions included.
func (st *SessionStore) IDs() []uint64 {
	ids := make([]uint64, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ForEach visits sessions in ascending id order.
func (st *SessionStore) ForEach(fn func(*Session)) {
	for _, id := range st.IDs() {
		fn(st.sessions[id])
	}
}

// Clients returns the ids of open connections in ascending order.
func (st *SessionStore) Clients() []uint64 {
	ids := st.IDs()
	open := ids[:0]
	for _, id := range ids {
		if !st.sessions[id].IsClosed() {
			open = append(open, id)
		}
	}
	return open
}

// Send buffers data for one client. Unknown or closed clients are skipped.
func (st *SessionStore) Send(clientID uint64, data []byte) {
	if s := st.sessions[clientID]; s != nil {
		s.Send(data)
	}
}

// Broadcast buffers data for every open connection.
func (st *SessionStore) Broadcast(data []byte) {
	for _, s := range st.sessions {
		s.Send(data)
	}
}

// Disconnect closes a client's connection. The entry stays until the
// input system notices the close and removes it.
func (st *SessionStore) Disconnect(clientID uint64) {
	if s := st.sessions[clientID]; s != nil {
		s.Close()
	}
}

// FlushAll hands every session's buffered output to its writer.
func (st *SessionStore) FlushAll() {
	for _, s := range st.sessions {
		s.FlushOutput()
	}
}
