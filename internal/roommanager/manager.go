// Package roommanager owns the lifecycle of every Room in the process:
// a default room every player lands in by assignment, plus any
// explicitly created extra rooms.
//
// Grounded on the teacher's server/manager.go (sync.Once singleton,
// GetOrCreateRoom locking pattern), generalized to spec.md §4.9's
// fuller Room Manager surface (assign_player always to the default
// room, create_room/destroy_room for the rest, list_rooms for the
// admin surface).
package roommanager

import (
	"fmt"
	"sync"

	"wormarena/internal/config"
	"wormarena/internal/room"
)

// DefaultRoomID is the one room every player is assigned to absent an
// explicit room selection, per spec.md §4.9.
const DefaultRoomID = "default"

// Manager owns every Room in the process.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
	nowMs func() int64
}

var (
	instance *Manager
	once     sync.Once
)

// Get returns the process-wide singleton Manager, creating and
// starting the default room on first use.
func Get(cfg config.Tunables, nowMs func() int64) *Manager {
	once.Do(func() {
		instance = &Manager{rooms: make(map[string]*room.Room), nowMs: nowMs}
		instance.createLocked(DefaultRoomID, cfg)
	})
	return instance
}

// ResetForTest tears down the process-wide singleton so the next Get
// call builds a fresh Manager. Only ever called from test setup.
func ResetForTest() {
	if instance != nil {
		for _, r := range instance.rooms {
			r.Stop()
		}
	}
	instance = nil
	once = sync.Once{}
}

// Room returns the room by ID, or nil if it does not exist.
func (m *Manager) Room(id string) *room.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[id]
}

// DefaultRoom returns the always-present default room.
func (m *Manager) DefaultRoom() *room.Room {
	return m.Room(DefaultRoomID)
}

// AssignPlayer returns the room a newly connecting player should join,
// given the roomID it requested (empty for "no preference"). Every
// player is assigned to the default room regardless of preference;
// spec.md §4.9 leaves per-player room selection as a non-goal for this
// simulation core, but the join-room message still carries a roomId
// field for forward compatibility.
func (m *Manager) AssignPlayer(requestedRoomID string) *room.Room {
	return m.DefaultRoom()
}

// CreateRoom creates and starts a new room with the given ID and
// config, returning an error if the ID is already in use.
func (m *Manager) CreateRoom(id string, cfg config.Tunables) (*room.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[id]; exists {
		return nil, fmt.Errorf("room %q already exists", id)
	}
	return m.createLocked(id, cfg), nil
}

func (m *Manager) createLocked(id string, cfg config.Tunables) *room.Room {
	r := room.New(id, cfg, m.nowMs)
	m.rooms[id] = r
	r.Start()
	return r
}

// DestroyRoom stops and removes a room. The default room can never be
// destroyed, per spec.md §4.9.
func (m *Manager) DestroyRoom(id string) error {
	if id == DefaultRoomID {
		return fmt.Errorf("cannot destroy the default room")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return fmt.Errorf("room %q does not exist", id)
	}
	r.Stop()
	delete(m.rooms, id)
	return nil
}

// ListRooms returns every room's status snapshot, for the admin
// surface.
func (m *Manager) ListRooms() []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]map[string]any, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Snapshot())
	}
	return out
}
