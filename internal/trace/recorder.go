// Package trace keeps a bounded transcript of the raw bytes exchanged with a
// printer. Old records are overwritten when the buffer is full.
package trace

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hedzr/go-ringbuf/v2/mpmc"
	"github.com/srg/blip/internal/eventbus"
)

// Direction of a traced write or notification
type Direction string

const (
	Sent     Direction = "tx"
	Received Direction = "rx"
)

// MaxCapacity guards against accidental misconfiguration
const MaxCapacity uint32 = 1024 * 1024

// Record is one raw write or notification
type Record struct {
	Time      time.Time `json:"time"`
	Direction Direction `json:"direction"`
	Data      []byte    `json:"data"`
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s %s", r.Time.Format("15:04:05.000"), r.Direction, hex.EncodeToString(r.Data))
}

// Stats counts what passed through a Recorder
type Stats struct {
	Recorded    int64
	Overwritten int64
}

// Recorder collects raw traffic from an event bus into a ring buffer.
// All methods are safe for concurrent use.
type Recorder struct {
	buffer mpmc.RichOverlappedRingBuffer[Record]
	now    func() time.Time

	recorded    atomic.Int64
	overwritten atomic.Int64

	mu   sync.Mutex
	subs []*eventbus.Subscription
}

func NewRecorder(capacity uint32) (*Recorder, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("trace capacity must be > 0")
	}
	if capacity > MaxCapacity {
		return nil, fmt.Errorf("trace capacity %d exceeds maximum %d", capacity, MaxCapacity)
	}
	return &Recorder{
		buffer: mpmc.NewOverlappedRingBuffer[Record](capacity),
		now:    time.Now,
	}, nil
}

// Attach starts recording rawpacketsent and rawpacketreceived events from bus
func (r *Recorder) Attach(bus *eventbus.Bus) {
	sent := eventbus.On(bus, func(ev eventbus.RawPacketSentEvent) {
		r.Add(Sent, ev.Data)
	})
	received := eventbus.On(bus, func(ev eventbus.RawPacketReceivedEvent) {
		r.Add(Received, ev.Data)
	})

	r.mu.Lock()
	r.subs = append(r.subs, sent, received)
	r.mu.Unlock()
}

// Detach stops recording from every attached bus
func (r *Recorder) Detach() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Add records data; the bytes are copied
func (r *Recorder) Add(dir Direction, data []byte) {
	rec := Record{Time: r.now(), Direction: dir, Data: append([]byte(nil), data...)}
	overwrites, err := r.buffer.EnqueueM(rec)
	if err != nil {
		return
	}
	r.recorded.Add(1)
	r.overwritten.Add(int64(overwrites))
}

// Drain removes and returns every buffered record, oldest first
func (r *Recorder) Drain() ([]Record, error) {
	var out []Record
	for !r.buffer.IsEmpty() {
		rec, err := r.buffer.Dequeue()
		if err != nil {
			return out, fmt.Errorf("trace dequeue: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Recorder) Stats() Stats {
	return Stats{
		Recorded:    r.recorded.Load(),
		Overwritten: r.overwritten.Load(),
	}
}
