package orch

import (
	"fmt"
	"sort"

	"github.com/dkeye/classroom/internal/core"
	"github.com/dkeye/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Admit registers a verified connection and joins it to its room as one
// step, then sends the room its new roster. On error nothing is registered.
func (o *Orchestrator) Admit(conn *core.Connection) error {
	key := conn.Room()
	if key.IsZero() {
		return fmt.Errorf("admit %s: %w", conn.ID, domain.ErrDescriptorInvalid)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.registry.Admit(conn); err != nil {
		return fmt.Errorf("admit %s: %w", conn.ID, err)
	}
	if err := o.rooms.Join(key, conn.ID); err != nil {
		o.registry.Remove(conn.ID)
		return fmt.Errorf("join %s: %w", key, err)
	}
	log.Info().Str("module", "app.orch").Str("conn", string(conn.ID)).Str("room", key.String()).Msg("added to room")
	o.notifyPresenceLocked(key)
	return nil
}

// Disconnect releases a connection from the registry and its room. It is
// safe to call for handles that were never admitted or are already gone.
func (o *Orchestrator) Disconnect(id core.ConnID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	conn, ok := o.registry.Remove(id)
	if !ok {
		return false
	}
	key, ok := o.rooms.RoomOf(id)
	if !ok {
		log.Error().Str("module", "app.orch").Str("conn", string(id)).Msg("registered connection had no room")
		return true
	}
	if empty := o.rooms.Leave(key, id); !empty {
		o.notifyPresenceLocked(key)
	}
	log.Info().
		Str("module", "app.orch").
		Str("conn", string(id)).
		Str("participant", conn.ParticipantID).
		Str("room", key.String()).
		Int("remaining", o.rooms.MemberCount(key)).
		Msg("removed from room")
	return true
}

// Roster returns the current presence list of a room.
func (o *Orchestrator) Roster(key domain.RoomKey) []domain.Participant {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rosterLocked(key)
}

func (o *Orchestrator) rosterLocked(key domain.RoomKey) []domain.Participant {
	ids := o.rooms.MembersOf(key)
	out := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		if conn, ok := o.registry.Lookup(id); ok {
			out = append(out, conn.Participant())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectedAt.Before(out[j].ConnectedAt)
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}

func (o *Orchestrator) notifyPresenceLocked(key domain.RoomKey) {
	participants := o.rosterLocked(key)
	if len(participants) == 0 {
		return
	}
	frame, err := encodeFrame(EventPresenceUpdate, PresenceUpdate{
		Participants: participants,
		Total:        len(participants),
		Timestamp:    o.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("encode presence")
		return
	}
	o.broadcastLocked(key, frame, "")
}
