package app

import (
	"fmt"
	"strings"

	"github.com/dkeye/classroom/internal/core"
	"github.com/dkeye/classroom/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomKey, member *core.Connection) BackpressureAction
}

// SimplePolicy kicks slow members; they reconnect and get a fresh roster.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomKey, *core.Connection) BackpressureAction {
	return KickMember
}

// TolerantPolicy drops the frame and keeps the member.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(domain.RoomKey, *core.Connection) BackpressureAction {
	return DropFrame
}

// PolicyFor resolves the backpressure config value: "kick" (default) or "drop".
func PolicyFor(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "kick":
		return SimplePolicy{}, nil
	case "drop":
		return TolerantPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", name)
}
