package core

import (
	"github.com/dkeye/classroom/internal/domain"
)

// RoomInfo is a read-only view for APIs (no transport fields).
type RoomInfo struct {
	ClassID     string `json:"classId"`
	SectionID   string `json:"sectionId"`
	MemberCount int    `json:"memberCount"`
}

func NewRoomInfo(key domain.RoomKey, members int) RoomInfo {
	return RoomInfo{ClassID: key.ClassID, SectionID: key.SectionID, MemberCount: members}
}
