// Package packet holds the protocol message value exchanged with the printer
// and the vendor frame codec.
//
// A Packet is immutable once constructed. Outbound packets carry the set of
// response identifiers that satisfy them; an empty set accepts any reply.
package packet

import (
	"fmt"
	"slices"
	"strings"
)

// Packet is one framed protocol message
type Packet struct {
	command          int
	payload          []byte
	oneWay           bool
	validResponseIDs []ResponseCommandID
}

// Option configures an outbound Packet
type Option func(*Packet)

// OneWay marks a packet for which no reply is ever expected
func OneWay() Option {
	return func(p *Packet) {
		p.oneWay = true
	}
}

// ExpectResponses restricts which inbound packets satisfy the request
func ExpectResponses(ids ...ResponseCommandID) Option {
	return func(p *Packet) {
		for _, id := range ids {
			if !slices.Contains(p.validResponseIDs, id) {
				p.validResponseIDs = append(p.validResponseIDs, id)
			}
		}
	}
}

// New creates an outbound packet. The payload is copied.
func New(cmd RequestCommandID, payload []byte, opts ...Option) *Packet {
	p := &Packet{
		command: int(cmd),
		payload: cloneBytes(payload),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewResponse creates an inbound packet. The payload is copied.
func NewResponse(id ResponseCommandID, payload []byte) *Packet {
	return &Packet{
		command: int(id),
		payload: cloneBytes(payload),
	}
}

var invalid = &Packet{command: int(CmdInvalid), payload: []byte{}, oneWay: true}

// Invalid returns the sentinel packet handed back for one-way sends
func Invalid() *Packet {
	return invalid
}

// IsInvalid reports whether p is the no-response sentinel
func (p *Packet) IsInvalid() bool {
	return p == nil || p.command == int(CmdInvalid)
}

// Command returns the outbound command identifier
func (p *Packet) Command() RequestCommandID {
	return RequestCommandID(p.command)
}

// ResponseID returns the identifier of an inbound packet
func (p *Packet) ResponseID() ResponseCommandID {
	return ResponseCommandID(p.command)
}

// RawCommand returns the command byte as carried on the wire
func (p *Packet) RawCommand() int {
	return p.command
}

// Payload returns a copy of the packet payload
func (p *Packet) Payload() []byte {
	return cloneBytes(p.payload)
}

// Len returns the payload length
func (p *Packet) Len() int {
	return len(p.payload)
}

// OneWay reports whether the packet expects no reply
func (p *Packet) OneWay() bool {
	return p.oneWay
}

// ValidResponseIDs returns a copy of the accepted response identifiers
func (p *Packet) ValidResponseIDs() []ResponseCommandID {
	return slices.Clone(p.validResponseIDs)
}

// Accepts reports whether an inbound packet with the given id satisfies p
func (p *Packet) Accepts(id ResponseCommandID) bool {
	if len(p.validResponseIDs) == 0 {
		return true
	}
	return slices.Contains(p.validResponseIDs, id)
}

// ExpectedNames renders the accepted response identifiers for error messages
func (p *Packet) ExpectedNames() []string {
	names := make([]string, 0, len(p.validResponseIDs))
	for _, id := range p.validResponseIDs {
		names = append(names, id.String())
	}
	return names
}

func (p *Packet) String() string {
	var b strings.Builder
	if p.command < 0 {
		fmt.Fprintf(&b, "Packet{cmd=%d", p.command)
	} else {
		fmt.Fprintf(&b, "Packet{cmd=0x%02x", p.command)
	}
	fmt.Fprintf(&b, " len=%d", len(p.payload))
	if p.oneWay {
		b.WriteString(" oneWay")
	}
	if len(p.validResponseIDs) > 0 {
		fmt.Fprintf(&b, " expect=%v", p.ExpectedNames())
	}
	b.WriteString("}")
	return b.String()
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return slices.Clone(b)
}
