package testutils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/srg/blip/internal/device"
)

// FakeTransport hands out printers in order, one per Connect call. The last
// printer is handed out again once the queue is exhausted.
type FakeTransport struct {
	mu       sync.Mutex
	printers []*FakePrinter
	next     int
	err      error
	connects atomic.Int32
}

var _ device.Transport = (*FakeTransport)(nil)

func NewFakeTransport(printers ...*FakePrinter) *FakeTransport {
	return &FakeTransport{printers: printers}
}

// FailConnect makes every following Connect return err
func (t *FakeTransport) FailConnect(err error) *FakeTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
	return t
}

func (t *FakeTransport) Connect(ctx context.Context, filter device.NameFilter) (device.Link, error) {
	t.connects.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return nil, t.err
	}
	if len(t.printers) == 0 {
		return nil, &device.NotFoundError{Resource: "printer"}
	}
	i := t.next
	if i >= len(t.printers) {
		i = len(t.printers) - 1
	}
	t.next++

	if p := t.printers[i]; filter == nil || filter(p.Name()) {
		return p, nil
	}
	return nil, &device.NotFoundError{Resource: "printer"}
}

// Connects returns the number of Connect calls
func (t *FakeTransport) Connects() int {
	return int(t.connects.Load())
}

// Printer returns the i-th configured printer
func (t *FakeTransport) Printer(i int) *FakePrinter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.printers[i]
}
