package eventbus

import "github.com/srg/blip/internal/packet"

// EventType names a notification channel
type EventType string

const (
	EventConnect           EventType = "connect"
	EventDisconnect        EventType = "disconnect"
	EventPacketReceived    EventType = "packetreceived"
	EventRawPacketSent     EventType = "rawpacketsent"
	EventRawPacketReceived EventType = "rawpacketreceived"
)

// EventTypes lists every channel in a stable order
var EventTypes = []EventType{
	EventConnect,
	EventDisconnect,
	EventPacketReceived,
	EventRawPacketSent,
	EventRawPacketReceived,
}

// Event is anything published on a Bus
type Event interface {
	Type() EventType
}

// ConnectEvent is published once the session reaches Connected
type ConnectEvent struct {
	DeviceName string
	Address    string
	SessionID  string
	Result     packet.ConnectResult
}

// DisconnectEvent is published once per physical link teardown
type DisconnectEvent struct {
	DeviceName string
	SessionID  string
	// Reason is nil for an explicit disconnect.
	Reason error
	// WasConnected is false when the link dropped before Connected was reached.
	WasConnected bool
}

// PacketReceivedEvent carries one decoded inbound packet
type PacketReceivedEvent struct {
	Packet *packet.Packet
}

// RawPacketSentEvent carries the exact bytes handed to the transport
type RawPacketSentEvent struct {
	Data []byte
}

// RawPacketReceivedEvent carries one notification value before decoding
type RawPacketReceivedEvent struct {
	Data []byte
}

func (ConnectEvent) Type() EventType           { return EventConnect }
func (DisconnectEvent) Type() EventType        { return EventDisconnect }
func (PacketReceivedEvent) Type() EventType    { return EventPacketReceived }
func (RawPacketSentEvent) Type() EventType     { return EventRawPacketSent }
func (RawPacketReceivedEvent) Type() EventType { return EventRawPacketReceived }
