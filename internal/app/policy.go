package app

import (
	"fmt"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomName, sid core.SessionID) BackpressureAction
}

// SimplePolicy kicks slow members; their disconnect cleanup then runs as usual.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomName, core.SessionID) BackpressureAction {
	return KickMember
}

// DropPolicy keeps slow members and loses the frame.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomName, core.SessionID) BackpressureAction {
	return DropFrame
}

// PolicyFor maps the slow_consumer setting to a Policy.
func PolicyFor(name string) (Policy, error) {
	switch name {
	case "kick", "":
		return SimplePolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown slow consumer policy %q", name)
	}
}
