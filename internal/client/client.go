package client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/internal/eventbus"
	"github.com/srg/blip/internal/gate"
	"github.com/srg/blip/internal/groutine"
	"github.com/srg/blip/internal/packet"
)

// ConnectionInfo describes an established session
type ConnectionInfo struct {
	DeviceName string
	Address    string
	SessionID  string
	Result     packet.ConnectResult
}

// Client drives a single printer over a device.Transport. It owns at most one
// session; exchanges are serialized through a FIFO gate so that only one
// request awaits a response at any time.
type Client struct {
	transport device.Transport
	opts      Options
	logger    *logrus.Logger
	codec     packet.Codec
	bus       *eventbus.Bus
	gate      *gate.Gate
	metrics   *metrics

	// connectMu serializes Connect calls
	connectMu sync.Mutex

	mu      sync.RWMutex
	state   State
	session *session
}

var _ Exchanger = (*Client)(nil)

// New creates a disconnected client
func New(transport device.Transport, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.negotiatorSet {
		o.Negotiator = NewInfoNegotiator(o.Logger)
	}

	c := &Client{
		transport: transport,
		opts:      o,
		logger:    o.Logger,
		codec:     o.Codec,
		bus:       eventbus.New(o.Logger),
		gate:      gate.New(),
	}
	c.metrics = newMetrics(o.Registerer, o.MetricsConfig, c.gate.Waiting)
	return c
}

// ----------------------------
// Lifecycle
// ----------------------------

// Connect tears down any current session, then finds a printer, selects its
// data endpoint, enables notifications and negotiates. Negotiation failures
// are logged and only degrade the returned result.
func (c *Client) Connect(ctx context.Context) (*ConnectionInfo, error) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if err := c.Disconnect(); err != nil {
		c.logger.WithField("error", err).Debug("Previous session closed with errors")
	}

	c.mu.Lock()
	c.state = StateConnecting
	c.mu.Unlock()
	c.logger.Info("Connecting to printer...")

	connCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	link, err := c.transport.Connect(connCtx, c.opts.NameFilter)
	cancel()
	if err != nil {
		c.resetState()
		c.metrics.connect("error")
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	sess, err := c.attach(link)
	if err != nil {
		c.metrics.connect("error")
		return nil, err
	}

	c.negotiate(ctx, sess)

	if err := ctx.Err(); err != nil {
		_ = c.teardown(sess, err)
		c.metrics.connect("error")
		return nil, fmt.Errorf("connect cancelled: %w", err)
	}

	if !c.promote(sess) {
		c.metrics.connect("error")
		return nil, fmt.Errorf("link lost during negotiation: %w", device.ErrChannelClosed)
	}

	info := &ConnectionInfo{
		DeviceName: sess.name,
		Address:    sess.address,
		SessionID:  sess.id,
		Result:     sess.result(),
	}

	c.startHeartbeat(sess)
	c.metrics.connect("ok")
	c.logger.WithFields(logrus.Fields{
		"device":  info.DeviceName,
		"address": info.Address,
		"result":  info.Result,
		"session": info.SessionID,
	}).Info("Printer connected")

	c.bus.Publish(eventbus.ConnectEvent{
		DeviceName: info.DeviceName,
		Address:    info.Address,
		SessionID:  info.SessionID,
		Result:     info.Result,
	})
	return info, nil
}

// attach selects the endpoint on link, installs the session and enables
// notifications. On failure the link is closed and the client is Disconnected.
func (c *Client) attach(link device.Link) (*session, error) {
	fail := func(err error) (*session, error) {
		if cerr := link.Close(); cerr != nil {
			c.logger.WithField("error", cerr).Debug("Failed to close link after connect failure")
		}
		c.resetState()
		return nil, err
	}

	services, err := link.Services()
	if err != nil {
		if !errors.Is(err, device.ErrNoGattProfile) {
			err = fmt.Errorf("%w: %w", device.ErrNoGattProfile, err)
		}
		return fail(err)
	}

	endpoint, err := device.SelectEndpoint(services, c.opts.MinServiceUUIDLength)
	if err != nil {
		return fail(err)
	}
	c.logger.WithFields(logrus.Fields{
		"device":   link.Name(),
		"endpoint": endpoint.String(),
	}).Debug("Printer data endpoint selected")

	sess := newSession(link, endpoint, c.codec)

	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()

	if err := link.Subscribe(endpoint.Characteristic, func(data []byte) {
		c.handleNotification(sess, data)
	}); err != nil {
		_ = c.teardown(sess, err)
		return nil, fmt.Errorf("failed to enable notifications: %w", err)
	}

	groutine.Go(sess.ctx, "blip-link-monitor", func(ctx context.Context) {
		select {
		case <-link.Disconnected():
			c.logger.WithField("device", sess.name).Warn("Printer link lost")
			_ = c.teardown(sess, device.ErrChannelClosed)
		case <-ctx.Done():
		}
	})

	c.mu.Lock()
	if c.session == sess {
		c.state = StateNegotiating
	}
	c.mu.Unlock()
	return sess, nil
}

func (c *Client) negotiate(ctx context.Context, sess *session) {
	if c.opts.Negotiator == nil {
		return
	}

	info, err := c.opts.Negotiator.Negotiate(ctx, c)
	sess.store(info)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"device": sess.name,
			"result": sess.result(),
			"error":  err,
		}).Warn("Printer negotiation failed, continuing")
	}
}

// promote moves sess to Connected unless it was torn down meanwhile
func (c *Client) promote(sess *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != sess || sess.closed() {
		return false
	}
	c.state = StateConnected
	sess.announced.Store(true)
	return true
}

// Disconnect closes the current session. Safe to call when not connected.
func (c *Client) Disconnect() error {
	sess := c.current()
	if sess == nil {
		c.resetState()
		return nil
	}
	return c.teardown(sess, nil)
}

// teardown runs once per session, whichever of Disconnect, the link monitor
// or a failed connect gets there first.
func (c *Client) teardown(sess *session, reason error) error {
	if !sess.torndown.CompareAndSwap(false, true) {
		return nil
	}

	sess.cancel(device.ErrChannelClosed)

	c.mu.Lock()
	if c.session == sess {
		c.session = nil
		c.state = StateDisconnected
	}
	announced := sess.announced.Load()
	c.mu.Unlock()

	err := sess.link.Close()
	c.metrics.disconnect()

	fields := logrus.Fields{"device": sess.name, "session": sess.id}
	if reason != nil {
		fields["reason"] = reason
	}
	c.logger.WithFields(fields).Info("Printer disconnected")

	c.bus.Publish(eventbus.DisconnectEvent{
		DeviceName:   sess.name,
		SessionID:    sess.id,
		Reason:       reason,
		WasConnected: announced,
	})
	return err
}

func (c *Client) resetState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		c.state = StateDisconnected
	}
}

func (c *Client) current() *session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// ----------------------------
// Introspection
// ----------------------------

// IsConnected reports whether the session is in the Connected state
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ConnectionInfo returns the current session, or nil when disconnected
func (c *Client) ConnectionInfo() *ConnectionInfo {
	sess := c.current()
	if sess == nil {
		return nil
	}
	return &ConnectionInfo{
		DeviceName: sess.name,
		Address:    sess.address,
		SessionID:  sess.id,
		Result:     sess.result(),
	}
}

// Info returns a copy of the negotiated printer info
func (c *Client) Info() map[packet.PrinterInfoType][]byte {
	sess := c.current()
	if sess == nil {
		return nil
	}
	return sess.infoSnapshot()
}

// Pending returns the exchange awaiting a response, if any
func (c *Client) Pending() *PendingRequest {
	sess := c.current()
	if sess == nil {
		return nil
	}
	return sess.pending.Load()
}

// Bus exposes the client's event bus
func (c *Client) Bus() *eventbus.Bus {
	return c.bus
}

// On subscribes h to kind on the client's bus
func (c *Client) On(kind eventbus.EventType, h eventbus.Handler) *eventbus.Subscription {
	return c.bus.Subscribe(kind, h)
}

// ----------------------------
// Traffic
// ----------------------------

// SendRaw writes data to the printer. Unless force is set the write waits for
// any in-flight exchange to finish.
func (c *Client) SendRaw(ctx context.Context, data []byte, force bool) error {
	if force {
		return c.write(ctx, data)
	}
	return c.gate.Run(ctx, func() error {
		return c.write(ctx, data)
	})
}

// write pauses PacketInterval, then hands data to the link. Callers hold the gate
// unless the write is forced.
func (c *Client) write(ctx context.Context, data []byte) error {
	sess := c.current()
	if sess == nil || sess.closed() {
		return device.ErrChannelClosed
	}

	if d := c.opts.PacketInterval; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		case <-sess.ctx.Done():
			return context.Cause(sess.ctx)
		}
	}

	if sess.closed() {
		return device.ErrChannelClosed
	}
	if err := sess.link.WriteWithoutResponse(sess.endpoint.Characteristic, data); err != nil {
		return fmt.Errorf("write to %s failed: %w", sess.name, err)
	}

	c.metrics.sent(len(data))
	c.logger.WithFields(logrus.Fields{
		"device": sess.name,
		"data":   hex.EncodeToString(data),
	}).Debug("Raw packet sent")

	c.bus.Publish(eventbus.RawPacketSentEvent{Data: append([]byte(nil), data...)})
	return nil
}

// SendPacketWaitResponse encodes p, writes it and waits for the first inbound
// packet p accepts. One-way packets return packet.Invalid() right after the
// write. timeout <= 0 selects the configured default.
func (c *Client) SendPacketWaitResponse(ctx context.Context, p *packet.Packet, timeout time.Duration) (*packet.Packet, error) {
	if p == nil {
		return nil, errors.New("cannot send nil packet")
	}
	if timeout <= 0 {
		timeout = c.opts.ResponseTimeout
	}
	return gate.Do(ctx, c.gate, func() (*packet.Packet, error) {
		return c.exchange(ctx, p, timeout)
	})
}

func (c *Client) exchange(ctx context.Context, p *packet.Packet, timeout time.Duration) (*packet.Packet, error) {
	command := p.Command().String()

	sess := c.current()
	if sess == nil || sess.closed() {
		c.metrics.exchange(command, "closed", 0)
		return nil, fmt.Errorf("%s: %w", command, device.ErrChannelClosed)
	}

	data, err := c.codec.Encode(p)
	if err != nil {
		c.metrics.exchange(command, "error", 0)
		return nil, fmt.Errorf("failed to encode %s: %w", command, err)
	}

	if p.OneWay() {
		if err := c.write(ctx, data); err != nil {
			c.metrics.exchange(command, "error", 0)
			return nil, err
		}
		c.metrics.exchange(command, "oneway", 0)
		return packet.Invalid(), nil
	}

	// The listener is live before the first byte reaches the transport, so a
	// reply delivered during the write is not lost.
	replies := make(chan *packet.Packet, 1)
	sub := eventbus.On(c.bus, func(ev eventbus.PacketReceivedEvent) {
		if ev.Packet == nil || !p.Accepts(ev.Packet.ResponseID()) {
			return
		}
		select {
		case replies <- ev.Packet:
		default:
		}
	})
	defer sub.Unsubscribe()

	if err := c.write(ctx, data); err != nil {
		c.metrics.exchange(command, "error", 0)
		return nil, err
	}

	started := time.Now()
	pending := &PendingRequest{Request: p, Started: started, Deadline: started.Add(timeout)}
	sess.pending.Store(pending)
	defer sess.pending.CompareAndSwap(pending, nil)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-replies:
		return c.matched(command, resp, started), nil
	case <-timer.C:
		select {
		case resp := <-replies:
			return c.matched(command, resp, started), nil
		default:
		}
		c.metrics.exchange(command, "timeout", 0)
		return nil, &device.ResponseTimeoutError{
			Command:  command,
			Expected: p.ExpectedNames(),
			Timeout:  timeout,
		}
	case <-sess.ctx.Done():
		c.metrics.exchange(command, "closed", 0)
		return nil, fmt.Errorf("%s: %w", command, context.Cause(sess.ctx))
	case <-ctx.Done():
		c.metrics.exchange(command, "cancelled", 0)
		return nil, ctx.Err()
	}
}

func (c *Client) matched(command string, resp *packet.Packet, started time.Time) *packet.Packet {
	elapsed := time.Since(started)
	c.metrics.exchange(command, "ok", elapsed)
	c.logger.WithFields(logrus.Fields{
		"command":  command,
		"response": resp.ResponseID(),
		"elapsed":  elapsed,
	}).Debug("Response matched")
	return resp
}

// handleNotification is the inbound path for one notification value
func (c *Client) handleNotification(sess *session, data []byte) {
	if sess.closed() {
		return
	}

	raw := append([]byte(nil), data...)
	c.metrics.received(len(raw))
	c.logger.WithFields(logrus.Fields{
		"device": sess.name,
		"data":   hex.EncodeToString(raw),
	}).Debug("Notification received")

	c.bus.Publish(eventbus.RawPacketReceivedEvent{Data: raw})

	packets, err := sess.frames(raw)
	if err != nil {
		c.metrics.decodeError()
		c.logger.WithFields(logrus.Fields{
			"device":  sess.name,
			"data":    hex.EncodeToString(raw),
			"decoded": len(packets),
			"error":   err,
		}).Warn("Dropping undecodable notification bytes")
	}

	for _, p := range packets {
		if !packet.IsKnownResponse(p.ResponseID()) {
			c.logger.WithFields(logrus.Fields{
				"device":  sess.name,
				"command": p.ResponseID(),
			}).Warn("Unknown response command")
		}
		c.bus.Publish(eventbus.PacketReceivedEvent{Packet: p})
	}
}
