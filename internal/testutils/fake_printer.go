package testutils

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/internal/packet"
)

// Profile UUIDs exposed by FakePrinter
const (
	FakeVendorService = "e7810a71-73ae-499d-8c15-faa9aef0c3f2"
	FakeVendorChar    = "bef8d6c9-9c21-4c9e-b632-bd58c1009f9f"
	FakeSIGService    = "1800"
	FakeSIGChar       = "2a00"
)

// Responder produces the packets a FakePrinter answers req with. Returning nil
// leaves the request unanswered.
type Responder func(req *packet.Packet) []*packet.Packet

// FakePrinter is an in-memory device.Link that decodes every write with the
// frame codec and answers through the subscribed notification handler.
type FakePrinter struct {
	name    string
	address string
	codec   packet.FrameCodec

	mu           sync.Mutex
	services     []device.Service
	servicesErr  error
	subscribeErr error
	writeErr     error
	handler      func([]byte)
	responders   map[packet.RequestCommandID]Responder
	info         map[packet.PrinterInfoType][]byte
	writes       [][]byte
	requests     []packet.RequestCommandID
	delay        time.Duration
	synchronous  bool

	closeCount   atomic.Int32
	dropOnce     sync.Once
	disconnected chan struct{}
}

var _ device.Link = (*FakePrinter)(nil)

// NewFakePrinter builds a printer exposing a SIG service followed by the vendor
// service, answering Connect, PrinterInfo and Heartbeat.
func NewFakePrinter(name string) *FakePrinter {
	p := &FakePrinter{
		name:         name,
		address:      "AA:BB:CC:DD:EE:FF",
		responders:   make(map[packet.RequestCommandID]Responder),
		info:         make(map[packet.PrinterInfoType][]byte),
		disconnected: make(chan struct{}),
	}
	p.services = []device.Service{
		&device.StaticService{ID: FakeSIGService, Characteristics: []device.Characteristic{
			&device.StaticCharacteristic{ID: FakeSIGChar, Flags: device.PropRead | device.PropNotify | device.PropWriteWithoutResponse},
		}},
		&device.StaticService{ID: FakeVendorService, Characteristics: []device.Characteristic{
			&device.StaticCharacteristic{ID: FakeVendorChar, Flags: device.PropRead | device.PropNotify | device.PropWriteWithoutResponse},
		}},
	}

	p.On(packet.CmdConnect, Reply(packet.RespConnect, byte(packet.ConnectResultConnectedV3)))
	p.On(packet.CmdPrinterInfo, p.answerInfo)
	p.On(packet.CmdHeartbeat, Reply(packet.RespHeartbeatBasic, 0x00, 0x00, 0x00, 0x04, 0x00))
	return p
}

// Reply returns a Responder answering with a single packet
func Reply(id packet.ResponseCommandID, payload ...byte) Responder {
	return func(*packet.Packet) []*packet.Packet {
		return []*packet.Packet{packet.NewResponse(id, payload)}
	}
}

// Silent never answers
func Silent(*packet.Packet) []*packet.Packet { return nil }

func (p *FakePrinter) answerInfo(req *packet.Packet) []*packet.Packet {
	payload := req.Payload()
	if len(payload) == 0 {
		return []*packet.Packet{packet.NewResponse(packet.RespNotSupported, nil)}
	}
	key := packet.PrinterInfoType(payload[0])

	p.mu.Lock()
	value, ok := p.info[key]
	p.mu.Unlock()
	if !ok {
		return []*packet.Packet{packet.NewResponse(packet.RespNotSupported, nil)}
	}
	return []*packet.Packet{packet.NewResponse(packet.InfoResponseID(key), value)}
}

// On replaces the responder for cmd
func (p *FakePrinter) On(cmd packet.RequestCommandID, r Responder) *FakePrinter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responders[cmd] = r
	return p
}

// WithInfo sets the value answered for a PrinterInfo key
func (p *FakePrinter) WithInfo(key packet.PrinterInfoType, value ...byte) *FakePrinter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info[key] = value
	return p
}

// WithServices replaces the discovered profile
func (p *FakePrinter) WithServices(services ...device.Service) *FakePrinter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.services = services
	return p
}

// WithReplyDelay delays every answer by d
func (p *FakePrinter) WithReplyDelay(d time.Duration) *FakePrinter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

// WithSynchronousReplies delivers answers from inside WriteWithoutResponse,
// before the write returns to the caller.
func (p *FakePrinter) WithSynchronousReplies() *FakePrinter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.synchronous = true
	return p
}

func (p *FakePrinter) FailServices(err error) *FakePrinter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.servicesErr = err
	return p
}

func (p *FakePrinter) FailSubscribe(err error) *FakePrinter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribeErr = err
	return p
}

func (p *FakePrinter) FailWrites(err error) *FakePrinter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
	return p
}

func (p *FakePrinter) Name() string    { return p.name }
func (p *FakePrinter) Address() string { return p.address }

func (p *FakePrinter) Services() ([]device.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.servicesErr != nil {
		return nil, p.servicesErr
	}
	if len(p.services) == 0 {
		return nil, device.ErrNoGattProfile
	}
	return p.services, nil
}

func (p *FakePrinter) Subscribe(char device.Characteristic, handler func(data []byte)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subscribeErr != nil {
		return p.subscribeErr
	}
	if !device.SupportsEndpoint(char) {
		return fmt.Errorf("characteristic %s does not support notifications", char.UUID())
	}
	p.handler = handler
	return nil
}

func (p *FakePrinter) WriteWithoutResponse(_ device.Characteristic, data []byte) error {
	select {
	case <-p.disconnected:
		return device.ErrChannelClosed
	default:
	}

	p.mu.Lock()
	if p.writeErr != nil {
		err := p.writeErr
		p.mu.Unlock()
		return err
	}
	p.writes = append(p.writes, append([]byte(nil), data...))

	frames, err := p.codec.Decode(data)
	if err != nil {
		p.mu.Unlock()
		return nil
	}

	var replies [][]byte
	for _, frame := range frames {
		cmd := packet.RequestCommandID(frame.RawCommand())
		p.requests = append(p.requests, cmd)

		responder, ok := p.responders[cmd]
		if !ok {
			continue
		}
		req := packet.New(cmd, frame.Payload())
		p.mu.Unlock()
		answers := responder(req)
		p.mu.Lock()

		for _, answer := range answers {
			if wire, err := p.codec.Encode(answer); err == nil {
				replies = append(replies, wire)
			}
		}
	}
	delay, synchronous := p.delay, p.synchronous
	p.mu.Unlock()

	if len(replies) == 0 {
		return nil
	}
	if synchronous && delay == 0 {
		for _, r := range replies {
			p.Notify(r)
		}
		return nil
	}
	go func() {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-p.disconnected:
				return
			}
		}
		for _, r := range replies {
			p.Notify(r)
		}
	}()
	return nil
}

// Notify delivers raw bytes as a notification, as if the printer sent them
func (p *FakePrinter) Notify(data []byte) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h(data)
	}
}

// NotifyPacket encodes pkt and delivers it as a notification
func (p *FakePrinter) NotifyPacket(pkt *packet.Packet) {
	wire, err := p.codec.Encode(pkt)
	if err != nil {
		panic(err)
	}
	p.Notify(wire)
}

func (p *FakePrinter) Disconnected() <-chan struct{} {
	return p.disconnected
}

// Drop simulates the printer going away (power off, out of range)
func (p *FakePrinter) Drop() {
	p.dropOnce.Do(func() { close(p.disconnected) })
}

func (p *FakePrinter) Close() error {
	p.closeCount.Add(1)
	p.Drop()
	return nil
}

// CloseCount returns how many times Close was called
func (p *FakePrinter) CloseCount() int {
	return int(p.closeCount.Load())
}

// Writes returns a copy of every byte slice written
func (p *FakePrinter) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.writes))
	copy(out, p.writes)
	return out
}

// Requests returns the command ids decoded from writes, in order
func (p *FakePrinter) Requests() []packet.RequestCommandID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]packet.RequestCommandID(nil), p.requests...)
}
