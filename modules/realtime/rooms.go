package realtime

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
)

// RoomManager owns the membership index for one room family:
// room key -> user ID -> set of connections. Rooms exist implicitly; a room
// key is present exactly while it has at least one member, and the removal
// cascade runs atomically under the manager's lock so a concurrent broadcast
// never observes an empty user set or an empty room.
type RoomManager struct {
	family Family
	mu     sync.RWMutex
	rooms  map[string]map[int64]map[*Conn]struct{}
}

// NewRoomManager creates an empty membership index for one room family.
func NewRoomManager(family Family) *RoomManager {
	return &RoomManager{
		family: family,
		rooms:  make(map[string]map[int64]map[*Conn]struct{}),
	}
}

// Join inserts the connection under (roomKey, userID). A connection joins at
// most once; repeated calls for the same connection are no-ops.
func (m *RoomManager) Join(c *Conn, roomKey string, userID int64) {
	if !c.setMembership(roomKey, userID) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		room = make(map[int64]map[*Conn]struct{})
		m.rooms[roomKey] = room
	}
	conns, ok := room[userID]
	if !ok {
		conns = make(map[*Conn]struct{})
		room[userID] = conns
	}
	conns[c] = struct{}{}
}

// Leave removes the connection from the index, cascading: drop the
// connection from its user's set, drop the user when the set empties, drop
// the room when its last user goes. Safe to call repeatedly, and a no-op for
// connections that never joined.
func (m *RoomManager) Leave(c *Conn) {
	if !c.Joined() {
		return
	}
	roomKey, userID := c.RoomKey(), c.UserID()

	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return
	}
	conns, ok := room[userID]
	if !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(room, userID)
	}
	if len(room) == 0 {
		delete(m.rooms, roomKey)
	}
}

// Broadcast serializes the event once and sends the identical bytes to every
// live connection in the room, across all of its users, including the
// originator. Closed connections are skipped; delivery is best effort.
func (m *RoomManager) Broadcast(roomKey, eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("[realtime] failed to marshal %s broadcast: %v", eventType, err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return
	}
	for _, conns := range room {
		for c := range conns {
			if err := c.SendRaw(data); err != nil {
				log.Printf("[realtime] dropping %s frame to %s: %v", eventType, c.ID(), err)
			}
		}
	}
}

// ListUsers returns the distinct user IDs currently present in the room, in
// ascending order.
func (m *RoomManager) ListUsers(roomKey string) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomKey]
	if !ok {
		return []int64{}
	}
	users := make([]int64, 0, len(room))
	for userID := range room {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// RoomUsers pairs a room key with the users present in it.
type RoomUsers struct {
	RoomKey string  `json:"boardId"`
	Users   []int64 `json:"users"`
}

// Snapshot returns every room in the family with its present users, sorted
// by room key.
func (m *RoomManager) Snapshot() []RoomUsers {
	m.mu.RLock()
	keys := make([]string, 0, len(m.rooms))
	for key := range m.rooms {
		keys = append(keys, key)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	out := make([]RoomUsers, 0, len(keys))
	for _, key := range keys {
		out = append(out, RoomUsers{RoomKey: key, Users: m.ListUsers(key)})
	}
	return out
}

// RoomCount returns the number of rooms currently present in the index.
func (m *RoomManager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
