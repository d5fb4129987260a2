package app

import (
	"errors"
	"sort"

	"github.com/dkeye/classroom/internal/core"
	"github.com/dkeye/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyInRoom = errors.New("connection already in another room")

// RoomManager tracks which connection handles belong to which room.
// Rooms are created on first join and dropped as soon as they are empty.
// Like Registry it is owned and locked by orch.Orchestrator.
type RoomManager struct {
	rooms  map[domain.RoomKey]map[core.ConnID]struct{}
	roomOf map[core.ConnID]domain.RoomKey
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:  make(map[domain.RoomKey]map[core.ConnID]struct{}),
		roomOf: make(map[core.ConnID]domain.RoomKey),
	}
}

// Join adds id to the room, creating the room on first use. Joining the same
// room twice is a no-op; a handle never sits in two rooms.
func (m *RoomManager) Join(key domain.RoomKey, id core.ConnID) error {
	if current, ok := m.roomOf[id]; ok {
		if current == key {
			return nil
		}
		return ErrAlreadyInRoom
	}
	members, ok := m.rooms[key]
	if !ok {
		members = make(map[core.ConnID]struct{})
		m.rooms[key] = members
		log.Debug().Str("module", "app.rooms").Str("room", key.String()).Msg("room created")
	}
	members[id] = struct{}{}
	m.roomOf[id] = key
	return nil
}

// Leave removes id from the room and reports whether the room is now gone.
// Leaving a room the handle is not in is a no-op.
func (m *RoomManager) Leave(key domain.RoomKey, id core.ConnID) (empty bool) {
	members, ok := m.rooms[key]
	if !ok {
		return true
	}
	if _, ok := members[id]; ok {
		delete(members, id)
		delete(m.roomOf, id)
	}
	if len(members) == 0 {
		delete(m.rooms, key)
		log.Debug().Str("module", "app.rooms").Str("room", key.String()).Msg("room dropped")
		return true
	}
	return false
}

func (m *RoomManager) MembersOf(key domain.RoomKey) []core.ConnID {
	members := m.rooms[key]
	out := make([]core.ConnID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

func (m *RoomManager) RoomOf(id core.ConnID) (domain.RoomKey, bool) {
	key, ok := m.roomOf[id]
	return key, ok
}

func (m *RoomManager) MemberCount(key domain.RoomKey) int { return len(m.rooms[key]) }

func (m *RoomManager) Len() int { return len(m.rooms) }

func (m *RoomManager) List() []core.RoomInfo {
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for key, members := range m.rooms {
		out = append(out, core.NewRoomInfo(key, len(members)))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClassID != out[j].ClassID {
			return out[i].ClassID < out[j].ClassID
		}
		return out[i].SectionID < out[j].SectionID
	})
	return out
}
