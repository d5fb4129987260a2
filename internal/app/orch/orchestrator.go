// Package orch is the single serialization point for the classroom
// coordinator: every mutation of the connection registry and of room
// membership, and every fan-out that depends on them, happens under one lock.
package orch

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/classroom/internal/app"
	"github.com/dkeye/classroom/internal/core"
	"github.com/dkeye/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Policy app.Policy
	Now    func() time.Time

	mu       sync.Mutex
	registry *app.Registry
	rooms    *app.RoomManager
}

func New(policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Policy:   policy,
		Now:      time.Now,
		registry: app.NewRegistry(),
		rooms:    app.NewRoomManager(),
	}
}

type Stats struct {
	Connections int       `json:"connections"`
	Rooms       int       `json:"rooms"`
	Timestamp   time.Time `json:"timestamp"`
}

func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Stats{
		Connections: o.registry.Len(),
		Rooms:       o.rooms.Len(),
		Timestamp:   o.now(),
	}
}

func (o *Orchestrator) Rooms() []core.RoomInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rooms.List()
}

// BroadcastRoom pushes a server-originated event to every member of a room
// and returns how many connections it was queued for.
func (o *Orchestrator) BroadcastRoom(key domain.RoomKey, event string, payload any) (int, error) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return 0, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.broadcastLocked(key, frame, ""), nil
}

// SendToParticipant delivers an event to every live connection of one
// participant, whatever room they are in.
func (o *Orchestrator) SendToParticipant(participantID, event string, payload any) (int, error) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return 0, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	sent := 0
	for _, conn := range o.registry.ByParticipant(participantID) {
		if o.deliverLocked(conn, frame) {
			sent++
		}
	}
	return sent, nil
}

// CloseAll closes every live transport. Membership is released by the
// regular disconnect path once each connection's pumps exit.
func (o *Orchestrator) CloseAll() {
	o.mu.Lock()
	conns := o.registry.All()
	o.mu.Unlock()
	for _, conn := range conns {
		conn.Signal.Close()
	}
	log.Info().Str("module", "app.orch").Int("connections", len(conns)).Msg("closed all connections")
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

func (o *Orchestrator) broadcastLocked(key domain.RoomKey, frame core.Frame, except core.ConnID) int {
	sent := 0
	for _, id := range o.rooms.MembersOf(key) {
		if id == except {
			continue
		}
		conn, ok := o.registry.Lookup(id)
		if !ok {
			log.Error().Str("module", "app.orch").Str("conn", string(id)).Str("room", key.String()).Msg("room member missing from registry")
			continue
		}
		if o.deliverLocked(conn, frame) {
			sent++
		}
	}
	log.Debug().Str("module", "app.orch").Str("room", key.String()).Int("sent_to", sent).Msg("broadcast result")
	return sent
}

func (o *Orchestrator) deliverLocked(conn *core.Connection, frame core.Frame) bool {
	err := conn.Signal.TrySend(frame)
	if err == nil {
		return true
	}
	if !errors.Is(err, core.ErrBackpressure) || o.Policy == nil {
		return false
	}
	switch o.Policy.OnBackPressure(conn.Room(), conn) {
	case app.KickMember:
		log.Warn().Str("module", "app.orch").Str("conn", string(conn.ID)).Str("participant", conn.ParticipantID).Msg("kicking slow member")
		conn.Signal.Close()
	case app.DropFrame, app.NoAction:
		log.Debug().Str("module", "app.orch").Str("conn", string(conn.ID)).Msg("dropped frame for slow member")
	}
	return false
}
