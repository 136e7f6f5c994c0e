package app

import "github.com/dkeye/Chat/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection that could not take a frame.
type Policy interface {
	OnBackPressure(conn core.ConnectionID, ev core.Event) BackpressureAction
}

// SimplePolicy kicks slow consumers; on reconnect they sign in again and get
// a fresh roster.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.ConnectionID, core.Event) BackpressureAction {
	return KickMember
}

// LenientPolicy drops the frame and keeps the connection.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(core.ConnectionID, core.Event) BackpressureAction {
	return DropFrame
}
