package domain

import "time"

// Participant is the presence view of one live connection.
// It is derived from the connection registry and never stored on its own.
type Participant struct {
	ParticipantID string    `json:"participantId"`
	Role          Role      `json:"role"`
	ConnectedAt   time.Time `json:"connectedAt"`
}
