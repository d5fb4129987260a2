// Package domain contains entity without logic, just meta-data
package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

const MaxIDLen = 64

var (
	ErrDescriptorMissing = errors.New("session descriptor missing")
	ErrDescriptorInvalid = errors.New("session descriptor invalid")
	ErrIDTooLong         = errors.New("identifier too long")
	ErrUnknownRole       = errors.New("unknown role")
)

// SessionDescriptor is what a client claims about itself at connect time.
// ParticipantID and Role are cross-checked against the verified credential.
type SessionDescriptor struct {
	ParticipantID string `json:"participantId,omitempty"`
	ClassID       string `json:"classId"`
	SectionID     string `json:"sectionId"`
	Role          Role   `json:"role,omitempty"`
}

// ParseSessionDescriptor decodes a JSON descriptor and validates it.
func ParseSessionDescriptor(raw string) (SessionDescriptor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SessionDescriptor{}, ErrDescriptorMissing
	}
	var d SessionDescriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return SessionDescriptor{}, ErrDescriptorInvalid
	}
	return d.Normalize()
}

// Normalize trims every field, canonicalizes the role and validates the result.
func (d SessionDescriptor) Normalize() (SessionDescriptor, error) {
	d.ParticipantID = strings.TrimSpace(d.ParticipantID)
	d.ClassID = strings.TrimSpace(d.ClassID)
	d.SectionID = strings.TrimSpace(d.SectionID)
	role, err := ParseRole(string(d.Role))
	if err != nil {
		return SessionDescriptor{}, err
	}
	d.Role = role

	if d.ClassID == "" || d.SectionID == "" {
		return SessionDescriptor{}, ErrDescriptorInvalid
	}
	for _, id := range []string{d.ParticipantID, d.ClassID, d.SectionID} {
		if len(id) > MaxIDLen {
			return SessionDescriptor{}, ErrIDTooLong
		}
	}
	return d, nil
}

func (d SessionDescriptor) RoomKey() RoomKey {
	return RoomKey{ClassID: d.ClassID, SectionID: d.SectionID}
}
