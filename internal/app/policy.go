package app

import (
	"fmt"

	"github.com/dkeye/devcircle/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send buffer was full during a publish.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.Sink) BackpressureAction
}

// DropPolicy loses the frame for the slow member and keeps it connected.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.RoomService, core.Sink) BackpressureAction {
	return DropFrame
}

// KickPolicy disconnects any member that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(core.RoomService, core.Sink) BackpressureAction {
	return KickMember
}

func PolicyFromName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown slow consumer policy %q", name)
}
