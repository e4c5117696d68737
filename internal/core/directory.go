package core

import (
	"errors"
	"sync"
)

// ConnID identifies one logical client session. The transport owns the
// connection; the directory only references it.
type ConnID string

// ErrRoomFull is returned by Join when the room is at capacity. It is the
// only domain error; everything else degrades to a no-op.
var ErrRoomFull = errors.New("room is full")

// DefaultCapacity suits paired 1:1 sessions. Group deployments raise it
// through the config.
const DefaultCapacity = 2

type room struct {
	mu      sync.Mutex
	members map[ConnID]struct{}
	deleted bool // set when the last member left; the map entry is stale
}

// Directory is the registry of rooms and their members. Rooms are created
// lazily on the first join and removed the moment they become empty.
//
// Each room carries its own mutex so mutations on unrelated rooms never
// contend; the directory-level lock is only held for map lookups. The
// reverse index (connection to rooms) is mutated inside the same per-room
// critical section as the member set, so the two can never disagree.
type Directory struct {
	capacity int

	mu    sync.RWMutex
	rooms map[string]*room

	rmu     sync.Mutex
	reverse map[ConnID]map[string]struct{}
}

func NewDirectory(capacity int) *Directory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Directory{
		capacity: capacity,
		rooms:    make(map[string]*room),
		reverse:  make(map[ConnID]map[string]struct{}),
	}
}

func (d *Directory) Capacity() int { return d.capacity }

// JoinResult reports the state after a successful Join.
type JoinResult struct {
	// Created is true when this connection became the room's first member.
	Created     bool
	MemberCount int
}

// Join adds conn to the room, creating it if needed. Joining a room the
// connection already occupies is a no-op that reports the current state.
func (d *Directory) Join(roomID string, conn ConnID) (JoinResult, error) {
	for {
		d.mu.Lock()
		r, ok := d.rooms[roomID]
		if !ok {
			r = &room{members: make(map[ConnID]struct{})}
			d.rooms[roomID] = r
		}
		d.mu.Unlock()

		r.mu.Lock()
		if r.deleted {
			// Lost a race with the last leave. Drop the stale entry and
			// start over against a fresh room.
			r.mu.Unlock()
			d.mu.Lock()
			if cur, ok := d.rooms[roomID]; ok && cur == r {
				delete(d.rooms, roomID)
			}
			d.mu.Unlock()
			continue
		}
		if _, member := r.members[conn]; member {
			res := JoinResult{MemberCount: len(r.members)}
			r.mu.Unlock()
			return res, nil
		}
		if len(r.members) >= d.capacity {
			r.mu.Unlock()
			return JoinResult{}, ErrRoomFull
		}
		r.members[conn] = struct{}{}
		d.addReverse(conn, roomID)
		res := JoinResult{
			Created:     len(r.members) == 1,
			MemberCount: len(r.members),
		}
		r.mu.Unlock()
		return res, nil
	}
}

// LeaveResult reports the state after a Leave.
type LeaveResult struct {
	MemberCount int
	RoomDeleted bool
}

// Leave removes conn from the room. Leaving a room the connection is not in,
// or a room that does not exist, is a no-op. The last member's leave deletes
// the room in the same critical section.
func (d *Directory) Leave(roomID string, conn ConnID) LeaveResult {
	d.mu.RLock()
	r, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if !ok {
		return LeaveResult{}
	}

	r.mu.Lock()
	if r.deleted {
		r.mu.Unlock()
		return LeaveResult{}
	}
	if _, member := r.members[conn]; !member {
		res := LeaveResult{MemberCount: len(r.members)}
		r.mu.Unlock()
		return res
	}
	delete(r.members, conn)
	d.dropReverse(conn, roomID)
	res := LeaveResult{MemberCount: len(r.members)}
	if len(r.members) == 0 {
		r.deleted = true
		res.RoomDeleted = true
	}
	r.mu.Unlock()

	if res.RoomDeleted {
		d.mu.Lock()
		if cur, ok := d.rooms[roomID]; ok && cur == r {
			delete(d.rooms, roomID)
		}
		d.mu.Unlock()
	}
	return res
}

// MembersOf returns the current members of a room. An unknown room yields an
// empty slice, never an error.
func (d *Directory) MembersOf(roomID string) []ConnID {
	d.mu.RLock()
	r, ok := d.rooms[roomID]
	d.mu.RUnlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	members := make([]ConnID, 0, len(r.members))
	for id := range r.members {
		members = append(members, id)
	}
	r.mu.Unlock()
	return members
}

// RoomsOf returns every room the connection currently occupies.
func (d *Directory) RoomsOf(conn ConnID) []string {
	d.rmu.Lock()
	defer d.rmu.Unlock()

	set, ok := d.reverse[conn]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(set))
	for id := range set {
		rooms = append(rooms, id)
	}
	return rooms
}

// Snapshot returns room ids mapped to member counts, for diagnostics.
func (d *Directory) Snapshot() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := make(map[string]int, len(d.rooms))
	for id, r := range d.rooms {
		r.mu.Lock()
		if !r.deleted && len(r.members) > 0 {
			snap[id] = len(r.members)
		}
		r.mu.Unlock()
	}
	return snap
}

// addReverse and dropReverse are called with the room's mutex held, which is
// what keeps the two indexes consistent.

func (d *Directory) addReverse(conn ConnID, roomID string) {
	d.rmu.Lock()
	set := d.reverse[conn]
	if set == nil {
		set = make(map[string]struct{})
		d.reverse[conn] = set
	}
	set[roomID] = struct{}{}
	d.rmu.Unlock()
}

func (d *Directory) dropReverse(conn ConnID, roomID string) {
	d.rmu.Lock()
	if set, ok := d.reverse[conn]; ok {
		delete(set, roomID)
		if len(set) == 0 {
			delete(d.reverse, conn)
		}
	}
	d.rmu.Unlock()
}
