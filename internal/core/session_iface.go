package core

import (
	"time"

	"github.com/dkeye/classroom/internal/domain"
)

// ConnID is the opaque handle the transport assigns to a connection.
type ConnID string

// Connection binds a verified participant, its session descriptor and its
// transport endpoint. Session is fixed for the lifetime of the connection.
type Connection struct {
	ID            ConnID
	ParticipantID string
	Session       domain.SessionDescriptor
	ConnectedAt   time.Time
	Signal        SignalConnection
}

func (c *Connection) Room() domain.RoomKey { return c.Session.RoomKey() }

func (c *Connection) Role() domain.Role { return c.Session.Role }

// Participant projects the connection into its presence entry.
func (c *Connection) Participant() domain.Participant {
	return domain.Participant{
		ParticipantID: c.ParticipantID,
		Role:          c.Session.Role,
		ConnectedAt:   c.ConnectedAt,
	}
}
