package packet

import (
	"errors"
	"fmt"

	"github.com/smallnest/ringbuffer"
)

// DefaultAssemblyCapacity holds a few maximum-size frames
const DefaultAssemblyCapacity = 4 * (MaxPayloadLen + frameOverhead)

// ErrAssemblyOverflow is returned when buffered bytes exceed the assembler capacity
var ErrAssemblyOverflow = errors.New("frame assembly buffer overflow")

// Assembler reassembles frames that arrive split across notifications.
// Bytes that cannot start a frame are discarded and reported; an incomplete
// trailing frame is kept until the next Feed. Not safe for concurrent use.
type Assembler struct {
	codec FrameCodec
	buf   *ringbuffer.RingBuffer
}

func NewAssembler(capacity int) *Assembler {
	if capacity < MaxPayloadLen+frameOverhead {
		capacity = MaxPayloadLen + frameOverhead
	}
	return &Assembler{buf: ringbuffer.New(capacity)}
}

// Feed appends data and returns every complete frame now available. Packets
// decoded before a bad frame are returned together with the error.
func (a *Assembler) Feed(data []byte) ([]*Packet, error) {
	if len(data) > a.buf.Free() {
		buffered := len(a.drain())
		return nil, fmt.Errorf("%w: %d bytes buffered, %d received", ErrAssemblyOverflow, buffered, len(data))
	}
	if _, err := a.buf.Write(data); err != nil {
		a.drain()
		return nil, fmt.Errorf("%w: %w", ErrAssemblyOverflow, err)
	}

	pending := a.drain()
	var (
		packets []*Packet
		errs    []error
	)
	for len(pending) > 0 {
		start := frameStart(pending)
		if start < 0 {
			// A trailing head byte may be the first half of the next header.
			keep := 0
			if pending[len(pending)-1] == frameHead {
				keep = 1
			}
			if dropped := len(pending) - keep; dropped > 0 {
				errs = append(errs, fmt.Errorf("%w: discarded %d bytes", ErrBadHeader, dropped))
			}
			pending = pending[len(pending)-keep:]
			break
		}
		if start > 0 {
			errs = append(errs, fmt.Errorf("%w: discarded %d bytes", ErrBadHeader, start))
			pending = pending[start:]
		}
		if len(pending) < 4 || len(pending) < int(pending[3])+frameOverhead {
			break
		}

		p, n, err := a.codec.decodeOne(pending)
		if err != nil {
			errs = append(errs, err)
			pending = pending[2:]
			continue
		}
		packets = append(packets, p)
		pending = pending[n:]
	}

	if len(pending) > 0 {
		_, _ = a.buf.Write(pending)
	}
	return packets, errors.Join(errs...)
}

// Buffered returns the number of bytes waiting for the rest of a frame
func (a *Assembler) Buffered() int {
	return a.buf.Length()
}

func (a *Assembler) drain() []byte {
	n := a.buf.Length()
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	read, _ := a.buf.TryRead(out)
	return out[:read]
}

func frameStart(data []byte) int {
	for i := 0; i+1 < len(data); i++ {
		if data[i] == frameHead && data[i+1] == frameHead {
			return i
		}
	}
	return -1
}
