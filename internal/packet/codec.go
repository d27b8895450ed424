package packet

import (
	"errors"
	"fmt"
)

// Codec converts packets to and from wire bytes
type Codec interface {
	Encode(p *Packet) ([]byte, error)
	// Decode parses every frame contained in data.
	Decode(data []byte) ([]*Packet, error)
}

// Frame layout: 0x55 0x55 | cmd | len | payload | checksum | 0xAA 0xAA
const (
	frameHead byte = 0x55
	frameTail byte = 0xaa

	// frameOverhead is head(2) + cmd(1) + len(1) + checksum(1) + tail(2)
	frameOverhead = 7

	// MaxPayloadLen is the largest payload a single length byte can describe
	MaxPayloadLen = 0xff
)

var (
	ErrFrameTooShort  = errors.New("frame too short")
	ErrBadHeader      = errors.New("invalid frame header")
	ErrBadTail        = errors.New("invalid frame tail")
	ErrBadChecksum    = errors.New("frame checksum mismatch")
	ErrPayloadTooLong = fmt.Errorf("payload longer than %d bytes", MaxPayloadLen)
)

// FrameCodec implements the printer's vendor framing
type FrameCodec struct{}

// NewFrameCodec returns the default printer codec
func NewFrameCodec() *FrameCodec {
	return &FrameCodec{}
}

// Encode frames p for the wire
func (FrameCodec) Encode(p *Packet) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("cannot encode nil packet")
	}
	if len(p.payload) > MaxPayloadLen {
		return nil, fmt.Errorf("command %s: %w", p.Command(), ErrPayloadTooLong)
	}

	cmd := byte(p.command)
	size := byte(len(p.payload))

	buf := make([]byte, 0, len(p.payload)+frameOverhead)
	buf = append(buf, frameHead, frameHead, cmd, size)
	buf = append(buf, p.payload...)
	buf = append(buf, checksum(cmd, size, p.payload), frameTail, frameTail)
	return buf, nil
}

// Decode parses one or more back-to-back frames. Either every frame in data
// is valid or an error describing the first bad frame is returned.
func (c FrameCodec) Decode(data []byte) ([]*Packet, error) {
	var packets []*Packet
	offset := 0
	for offset < len(data) {
		p, n, err := c.decodeOne(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("frame at offset %d: %w", offset, err)
		}
		packets = append(packets, p)
		offset += n
	}
	if len(packets) == 0 {
		return nil, ErrFrameTooShort
	}
	return packets, nil
}

func (FrameCodec) decodeOne(data []byte) (*Packet, int, error) {
	if len(data) < frameOverhead {
		return nil, 0, ErrFrameTooShort
	}
	if data[0] != frameHead || data[1] != frameHead {
		return nil, 0, ErrBadHeader
	}

	cmd := data[2]
	size := int(data[3])
	total := size + frameOverhead
	if len(data) < total {
		return nil, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrFrameTooShort, total, len(data))
	}

	payload := data[4 : 4+size]
	if data[4+size] != checksum(cmd, byte(size), payload) {
		return nil, 0, ErrBadChecksum
	}
	if data[total-2] != frameTail || data[total-1] != frameTail {
		return nil, 0, ErrBadTail
	}

	return NewResponse(ResponseCommandID(cmd), payload), total, nil
}

func checksum(cmd, size byte, payload []byte) byte {
	sum := cmd ^ size
	for _, b := range payload {
		sum ^= b
	}
	return sum
}
