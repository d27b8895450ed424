package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/internal/packet"
)

// PendingRequest describes the exchange currently awaiting a response
type PendingRequest struct {
	Request  *packet.Packet
	Started  time.Time
	Deadline time.Time
}

// session is the state of one physical link. It is created by Connect and
// discarded by teardown; nothing survives into the next connect.
type session struct {
	id       string
	name     string
	address  string
	link     device.Link
	endpoint *device.Endpoint

	// ctx is cancelled with device.ErrChannelClosed on teardown
	ctx    context.Context
	cancel context.CancelCauseFunc

	info          *xsync.MapOf[packet.PrinterInfoType, []byte]
	connectResult atomic.Int32
	pending       atomic.Pointer[PendingRequest]

	announced atomic.Bool
	torndown  atomic.Bool

	decodeMu sync.Mutex
	decode   func(data []byte) ([]*packet.Packet, error)
}

func newSession(link device.Link, endpoint *device.Endpoint, codec packet.Codec) *session {
	ctx, cancel := context.WithCancelCause(context.Background())
	s := &session{
		id:       uuid.NewString(),
		name:     link.Name(),
		address:  link.Address(),
		link:     link,
		endpoint: endpoint,
		ctx:      ctx,
		cancel:   cancel,
		info:     xsync.NewMapOf[packet.PrinterInfoType, []byte](),
	}
	s.connectResult.Store(int32(packet.ConnectResultFirmwareErrors))

	// The vendor framing can be reassembled across notifications; other
	// codecs see each notification on its own.
	if _, ok := codec.(*packet.FrameCodec); ok {
		s.decode = packet.NewAssembler(packet.DefaultAssemblyCapacity).Feed
	} else {
		s.decode = codec.Decode
	}
	return s
}

// frames decodes one notification value
func (s *session) frames(data []byte) ([]*packet.Packet, error) {
	s.decodeMu.Lock()
	defer s.decodeMu.Unlock()
	return s.decode(data)
}

func (s *session) result() packet.ConnectResult {
	return packet.ConnectResult(s.connectResult.Load())
}

func (s *session) store(n *NegotiatedInfo) {
	if n == nil {
		return
	}
	s.connectResult.Store(int32(n.Result))
	for k, v := range n.Info {
		s.info.Store(k, append([]byte(nil), v...))
	}
}

func (s *session) infoSnapshot() map[packet.PrinterInfoType][]byte {
	out := make(map[packet.PrinterInfoType][]byte, s.info.Size())
	s.info.Range(func(k packet.PrinterInfoType, v []byte) bool {
		out[k] = append([]byte(nil), v...)
		return true
	})
	return out
}

// closed reports whether the session has been torn down
func (s *session) closed() bool {
	return s.ctx.Err() != nil
}
