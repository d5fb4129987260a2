package orch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/classroom/internal/app"
	"github.com/dkeye/classroom/internal/core"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadFrame     = errors.New("bad frame")
)

type eventHandler struct {
	// privileged events change room-visible state.
	privileged bool
	handle     func(o *Orchestrator, conn *core.Connection, payload json.RawMessage) error
}

var handlers = map[string]eventHandler{
	EventActivateContent:  {privileged: true, handle: activate("content")},
	EventActivateSection:  {privileged: true, handle: activate("section")},
	EventActivateExercise: {privileged: true, handle: activate("exercise")},
	EventSubmitResponse:   {handle: (*Orchestrator).handleSubmitResponse},
	EventPing:             {handle: (*Orchestrator).handlePing},
	EventWhoAmI:           {handle: (*Orchestrator).handleWhoAmI},
}

// Dispatch routes one inbound frame from connection id. Identity and role
// come from the registry entry, never from the frame. The returned error is
// for logging only; none of them is ever reported to the client.
func (o *Orchestrator) Dispatch(id core.ConnID, data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	h, ok := handlers[env.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	conn, ok := o.registry.Lookup(id)
	if !ok {
		return app.ErrNotFound
	}
	if h.privileged && !conn.Role().Privileged() {
		return ErrUnauthorized
	}
	return h.handle(o, conn, env.Payload)
}

func activate(kind string) func(*Orchestrator, *core.Connection, json.RawMessage) error {
	return func(o *Orchestrator, conn *core.Connection, payload json.RawMessage) error {
		var p ActivateContent
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		p.ContentID = strings.TrimSpace(p.ContentID)
		if p.ContentID == "" {
			return fmt.Errorf("%w: contentId is required", ErrBadFrame)
		}
		frame, err := encodeFrame(EventContentActivated, ContentActivated{
			ContentID:       p.ContentID,
			ActivationFlags: p.ActivationFlags,
			Kind:            kind,
			Actor:           conn.ParticipantID,
			Timestamp:       o.now(),
		})
		if err != nil {
			return err
		}
		sent := o.broadcastLocked(conn.Room(), frame, "")
		log.Info().
			Str("module", "app.orch").
			Str("actor", conn.ParticipantID).
			Str("room", conn.Room().String()).
			Str("content", p.ContentID).
			Str("kind", kind).
			Int("sent_to", sent).
			Msg("content activated")
		return nil
	}
}

func (o *Orchestrator) handleSubmitResponse(conn *core.Connection, payload json.RawMessage) error {
	var p SubmitResponse
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	p.QuestionID = strings.TrimSpace(p.QuestionID)
	if p.QuestionID == "" {
		return fmt.Errorf("%w: questionId is required", ErrBadFrame)
	}
	return o.replyLocked(conn, EventResponseAck, ResponseAck{
		QuestionID: p.QuestionID,
		Answer:     p.Answer,
		Timestamp:  o.now(),
	})
}

func (o *Orchestrator) handlePing(conn *core.Connection, _ json.RawMessage) error {
	return o.replyLocked(conn, EventPong, Pong{Timestamp: o.now()})
}

func (o *Orchestrator) handleWhoAmI(conn *core.Connection, _ json.RawMessage) error {
	return o.replyLocked(conn, EventWhoAmI, WhoAmI{
		ParticipantID: conn.ParticipantID,
		Role:          conn.Role(),
		ClassID:       conn.Session.ClassID,
		SectionID:     conn.Session.SectionID,
		ConnectedAt:   conn.ConnectedAt,
	})
}

func (o *Orchestrator) replyLocked(conn *core.Connection, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	o.deliverLocked(conn, frame)
	return nil
}
