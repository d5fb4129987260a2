package orch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/classroom/internal/core"
	"github.com/dkeye/classroom/internal/domain"
)

// Inbound events.
const (
	EventActivateContent  = "activate-content"
	EventActivateSection  = "activate-section"
	EventActivateExercise = "activate-exercise"
	EventSubmitResponse   = "submit-response"
	EventPing             = "ping"
	EventWhoAmI           = "whoami"
)

// Outbound events.
const (
	EventPresenceUpdate   = "presence-update"
	EventContentActivated = "content-activated"
	EventResponseAck      = "response-ack"
	EventPong             = "pong"
)

// Envelope is the wire shape of every frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type PresenceUpdate struct {
	Participants []domain.Participant `json:"participants"`
	Total        int                  `json:"total"`
	Timestamp    time.Time            `json:"timestamp"`
}

type ActivateContent struct {
	ContentID       string          `json:"contentId"`
	ActivationFlags json.RawMessage `json:"activationFlags,omitempty"`
}

type ContentActivated struct {
	ContentID       string          `json:"contentId"`
	ActivationFlags json.RawMessage `json:"activationFlags,omitempty"`
	Kind            string          `json:"kind"`
	Actor           string          `json:"actor"`
	Timestamp       time.Time       `json:"timestamp"`
}

type SubmitResponse struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer,omitempty"`
}

type ResponseAck struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

type Pong struct {
	Timestamp time.Time `json:"timestamp"`
}

type WhoAmI struct {
	ParticipantID string      `json:"participantId"`
	Role          domain.Role `json:"role"`
	ClassID       string      `json:"classId"`
	SectionID     string      `json:"sectionId"`
	ConnectedAt   time.Time   `json:"connectedAt"`
}

func encodeFrame(event string, payload any) (core.Frame, error) {
	env := Envelope{Type: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		env.Payload = raw
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}
