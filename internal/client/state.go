package client

import "fmt"

// State is the session lifecycle state
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateNegotiating
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateNegotiating:
		return "Negotiating"
	case StateConnected:
		return "Connected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
