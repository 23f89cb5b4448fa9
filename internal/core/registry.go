package core

import "sync"

// Registry tracks live sessions, their room memberships and a per-user index.
// A single mutex guards all three maps. Readers always get copies.
//
// Invariants: a room exists only while it has at least one member, and a
// session stays in the user index only while it belongs to at least one room.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	users    map[int64]map[*Session]struct{}
	sessions map[*Session]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		users:    make(map[int64]map[*Session]struct{}),
		sessions: make(map[*Session]map[string]struct{}),
	}
}

// Register adds s to roomID, creating the room if it does not exist.
// Registering the same pair twice is a no-op.
func (r *Registry) Register(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		r.rooms[roomID] = room
	}
	room.Add(s)

	memberships, ok := r.sessions[s]
	if !ok {
		memberships = make(map[string]struct{})
		r.sessions[s] = memberships
	}
	memberships[roomID] = struct{}{}

	conns, ok := r.users[s.Identity.UserID]
	if !ok {
		conns = make(map[*Session]struct{})
		r.users[s.Identity.UserID] = conns
	}
	conns[s] = struct{}{}
}

// Unregister removes s from roomID. Empty rooms are deleted, and a session that
// no longer belongs to any room leaves the user index. Unknown sessions and
// rooms are ignored, so repeated calls are safe.
func (r *Registry) Unregister(s *Session, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[roomID]; ok {
		room.Remove(s)
		if room.Empty() {
			delete(r.rooms, roomID)
		}
	}

	memberships, ok := r.sessions[s]
	if !ok {
		return
	}
	delete(memberships, roomID)
	if len(memberships) > 0 {
		return
	}
	delete(r.sessions, s)

	if conns, ok := r.users[s.Identity.UserID]; ok {
		delete(conns, s)
		if len(conns) == 0 {
			delete(r.users, s.Identity.UserID)
		}
	}
}

// MembersOf returns a point-in-time copy of the sessions in roomID.
func (r *Registry) MembersOf(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return room.snapshot()
}

// ConnectionsOf returns a copy of every live session of userID.
func (r *Registry) ConnectionsOf(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.users[userID]
	out := make([]*Session, 0, len(conns))
	for s := range conns {
		out = append(out, s)
	}
	return out
}

// RoomsOf returns a copy of the rooms s currently belongs to.
func (r *Registry) RoomsOf(s *Session) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberships := r.sessions[s]
	out := make([]string, 0, len(memberships))
	for roomID := range memberships {
		out = append(out, roomID)
	}
	return out
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// CloseAll closes every registered session. Each session's handler performs
// its own cleanup once its receive loop notices the closed transport.
func (r *Registry) CloseAll(code CloseCode, reason string) int {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	for _, s := range all {
		s.Close(code, reason)
	}
	return len(all)
}
