package eventbus

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Handler receives published events
type Handler func(Event)

// Bus is a per-client publish/subscribe registry. Publish delivers
// synchronously, in registration order, to the subscribers registered when
// Publish was called. A panicking handler is logged and skipped.
//
// Handlers run on the publishing goroutine. For inbound traffic that is the
// transport's notification goroutine, so a blocking handler delays matching
// of the pending reply. Handlers must return quickly and hand slow work off.
type Bus struct {
	logger *logrus.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[EventType]*orderedmap.OrderedMap[uint64, Handler]
}

// New creates an empty bus
func New(logger *logrus.Logger) *Bus {
	if logger == nil {
		logger = logrus.New()
	}
	return &Bus{
		logger: logger,
		subs:   make(map[EventType]*orderedmap.OrderedMap[uint64, Handler]),
	}
}

// Subscription is the handle returned by Subscribe and Once
type Subscription struct {
	bus  *Bus
	kind EventType
	id   uint64
	done atomic.Bool
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.done.CompareAndSwap(false, true) {
		return
	}
	s.bus.remove(s.kind, s.id)
}

// Kind returns the channel this subscription listens on
func (s *Subscription) Kind() EventType {
	return s.kind
}

// Subscribe registers h for events of the given kind
func (b *Bus) Subscribe(kind EventType, h Handler) *Subscription {
	if h == nil {
		panic("eventbus: nil handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	m, ok := b.subs[kind]
	if !ok {
		m = orderedmap.New[uint64, Handler]()
		b.subs[kind] = m
	}
	m.Set(b.nextID, h)

	return &Subscription{bus: b, kind: kind, id: b.nextID}
}

// Once registers h for the next event of kind only
func (b *Bus) Once(kind EventType, h Handler) *Subscription {
	var (
		fired atomic.Bool
		sub   *Subscription
		ready = make(chan struct{})
	)
	sub = b.Subscribe(kind, func(ev Event) {
		<-ready
		if !fired.CompareAndSwap(false, true) {
			return
		}
		sub.Unsubscribe()
		h(ev)
	})
	close(ready)
	return sub
}

// On subscribes a handler typed to a concrete event
func On[E Event](b *Bus, fn func(E)) *Subscription {
	var zero E
	return b.Subscribe(zero.Type(), func(ev Event) {
		if typed, ok := ev.(E); ok {
			fn(typed)
		}
	})
}

// Publish delivers ev to the current subscribers of its kind and returns how
// many handlers completed without panicking.
func (b *Bus) Publish(ev Event) int {
	if ev == nil {
		return 0
	}

	handlers := b.snapshot(ev.Type())
	delivered := 0
	for _, h := range handlers {
		if b.deliver(ev, h) {
			delivered++
		}
	}
	return delivered
}

// Count returns the number of subscribers for kind
func (b *Bus) Count(kind EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if m, ok := b.subs[kind]; ok {
		return m.Len()
	}
	return 0
}

// Clear drops every subscription
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[EventType]*orderedmap.OrderedMap[uint64, Handler])
}

func (b *Bus) snapshot(kind EventType) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.subs[kind]
	if !ok || m.Len() == 0 {
		return nil
	}
	handlers := make([]Handler, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		handlers = append(handlers, pair.Value)
	}
	return handlers
}

func (b *Bus) remove(kind EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.subs[kind]; ok {
		m.Delete(id)
		if m.Len() == 0 {
			delete(b.subs, kind)
		}
	}
}

func (b *Bus) deliver(ev Event, h Handler) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			b.logger.WithFields(logrus.Fields{
				"event": ev.Type(),
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Warn("Event handler panicked")
		}
	}()
	h(ev)
	return true
}
