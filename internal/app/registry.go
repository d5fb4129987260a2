package app

import (
	"errors"
	"sort"

	"github.com/dkeye/classroom/internal/core"
	"github.com/rs/zerolog/log"
)

var (
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrNotFound            = errors.New("not found")
)

// Registry is the canonical mapping from connection handle to the verified
// identity behind it. It is not safe for concurrent use: orch.Orchestrator
// owns it and serializes every call.
type Registry struct {
	conns map[core.ConnID]*core.Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*core.Connection)}
}

func (r *Registry) Admit(conn *core.Connection) error {
	if _, ok := r.conns[conn.ID]; ok {
		return ErrDuplicateConnection
	}
	r.conns[conn.ID] = conn
	log.Info().
		Str("module", "app.registry").
		Str("conn", string(conn.ID)).
		Str("participant", conn.ParticipantID).
		Str("role", string(conn.Role())).
		Msg("admitted connection")
	return nil
}

// Remove is idempotent. It hands back the removed entry so the caller can
// find the affected room without a second lookup.
func (r *Registry) Remove(id core.ConnID) (*core.Connection, bool) {
	conn, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("removed connection")
	return conn, true
}

func (r *Registry) Lookup(id core.ConnID) (*core.Connection, bool) {
	conn, ok := r.conns[id]
	return conn, ok
}

func (r *Registry) Len() int { return len(r.conns) }

// ByParticipant returns every live connection of one participant, oldest first.
func (r *Registry) ByParticipant(participantID string) []*core.Connection {
	var out []*core.Connection
	for _, c := range r.conns {
		if c.ParticipantID == participantID {
			out = append(out, c)
		}
	}
	sortConnections(out)
	return out
}

// All returns a snapshot of every live connection, oldest first.
func (r *Registry) All() []*core.Connection {
	out := make([]*core.Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	sortConnections(out)
	return out
}

func sortConnections(conns []*core.Connection) {
	sort.Slice(conns, func(i, j int) bool {
		if !conns[i].ConnectedAt.Equal(conns[j].ConnectedAt) {
			return conns[i].ConnectedAt.Before(conns[j].ConnectedAt)
		}
		return conns[i].ID < conns[j].ID
	})
}
