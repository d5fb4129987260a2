package domain

import "strings"

// RoomKey identifies a live classroom: one section of one class.
type RoomKey struct {
	ClassID   string `json:"classId"`
	SectionID string `json:"sectionId"`
}

func NewRoomKey(classID, sectionID string) RoomKey {
	return RoomKey{ClassID: strings.TrimSpace(classID), SectionID: strings.TrimSpace(sectionID)}
}

func (k RoomKey) IsZero() bool { return k.ClassID == "" || k.SectionID == "" }

func (k RoomKey) String() string { return k.ClassID + "-" + k.SectionID }
