// Package core holds the room directory and the event vocabulary shared by the
// session state machine and the transport adapters.
package core

import (
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Member is one connection's presence in a room.
type Member struct {
	SID      SessionID       `json:"-"`
	Identity domain.Identity `json:"pseudo"`
}

// RoomInfo is a read-only view of a live room.
type RoomInfo struct {
	Name       domain.RoomName `json:"name"`
	UsersCount int             `json:"usersCount"`
}

// Directory is the process-wide table of live rooms. A room is present exactly
// while it has at least one member. Membership is keyed by connection, so two
// connections may share a display name and still count twice.
//
// Directory is safe for concurrent use; every operation is one critical section.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]map[SessionID]domain.Identity
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomName]map[SessionID]domain.Identity)}
}

// Join adds m to room, creating the room if needed, and returns the new size.
// Adding a connection that is already a member leaves the size unchanged.
func (d *Directory) Join(room domain.RoomName, m Member) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, ok := d.rooms[room]
	if !ok {
		members = make(map[SessionID]domain.Identity)
		d.rooms[room] = members
		log.Debug().Str("module", "core.directory").Str("room", string(room)).Msg("room created")
	}
	members[m.SID] = m.Identity
	return len(members)
}

// Leave removes the membership of sid from room. It returns the remaining size
// and true while the room still exists; once the last member is gone the room
// is deleted and ok is false. Unknown rooms and members are a no-op.
func (d *Directory) Leave(room domain.RoomName, sid SessionID) (count int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, exists := d.rooms[room]
	if !exists {
		return 0, false
	}
	if _, member := members[sid]; !member {
		return len(members), true
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(d.rooms, room)
		log.Debug().Str("module", "core.directory").Str("room", string(room)).Msg("room deleted")
		return 0, false
	}
	return len(members), true
}

// Size returns the member count of room, 0 if it does not exist.
func (d *Directory) Size(room domain.RoomName) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms[room])
}

// Exists reports whether room is live.
func (d *Directory) Exists(room domain.RoomName) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[room]
	return ok
}

// Len returns the number of live rooms.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// Members returns a snapshot of room's members ordered by identity.
func (d *Directory) Members(room domain.RoomName) []Member {
	d.mu.RLock()
	members := lo.MapToSlice(d.rooms[room], func(sid SessionID, id domain.Identity) Member {
		return Member{SID: sid, Identity: id}
	})
	d.mu.RUnlock()

	slices.SortFunc(members, func(a, b Member) int {
		if c := strings.Compare(string(a.Identity), string(b.Identity)); c != 0 {
			return c
		}
		return strings.Compare(string(a.SID), string(b.SID))
	})
	return members
}

// Recipients returns the connections currently in room, without except.
func (d *Directory) Recipients(room domain.RoomName, except SessionID) []SessionID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.Filter(lo.Keys(d.rooms[room]), func(sid SessionID, _ int) bool {
		return sid != except
	})
}

// List returns every live room ordered by name.
func (d *Directory) List() []RoomInfo {
	d.mu.RLock()
	out := lo.MapToSlice(d.rooms, func(name domain.RoomName, members map[SessionID]domain.Identity) RoomInfo {
		return RoomInfo{Name: name, UsersCount: len(members)}
	})
	d.mu.RUnlock()

	slices.SortFunc(out, func(a, b RoomInfo) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return out
}
