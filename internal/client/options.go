package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/internal/packet"
)

const (
	// DefaultPacketInterval is the pause before every write; printers drop
	// frames that arrive back to back.
	DefaultPacketInterval = 10 * time.Millisecond

	// DefaultResponseTimeout applies when SendPacketWaitResponse is called with timeout <= 0
	DefaultResponseTimeout = time.Second

	// DefaultConnectTimeout bounds scan + dial
	DefaultConnectTimeout = 30 * time.Second
)

// Options configures a Client
type Options struct {
	Logger               *logrus.Logger
	Codec                packet.Codec
	PacketInterval       time.Duration
	ResponseTimeout      time.Duration
	ConnectTimeout       time.Duration
	NameFilter           device.NameFilter
	MinServiceUUIDLength int
	Negotiator           Negotiator
	Registerer           prometheus.Registerer
	MetricsConfig        *MetricsConfig
	// HeartbeatInterval enables periodic heartbeats while connected when > 0.
	HeartbeatInterval time.Duration

	negotiatorSet bool
}

// Option is a functional option for New
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Logger:               logrus.New(),
		Codec:                packet.NewFrameCodec(),
		PacketInterval:       DefaultPacketInterval,
		ResponseTimeout:      DefaultResponseTimeout,
		ConnectTimeout:       DefaultConnectTimeout,
		NameFilter:           device.NamePrefixFilter(device.DefaultNamePrefixes...),
		MinServiceUUIDLength: device.DefaultMinServiceUUIDLength,
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func WithCodec(codec packet.Codec) Option {
	return func(o *Options) {
		if codec != nil {
			o.Codec = codec
		}
	}
}

// WithPacketInterval sets the pause before each write; 0 disables it
func WithPacketInterval(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.PacketInterval = d
		}
	}
}

// WithResponseTimeout sets the default response deadline
func WithResponseTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ResponseTimeout = d
		}
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ConnectTimeout = d
		}
	}
}

func WithNameFilter(filter device.NameFilter) Option {
	return func(o *Options) {
		if filter != nil {
			o.NameFilter = filter
		}
	}
}

func WithMinServiceUUIDLength(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MinServiceUUIDLength = n
		}
	}
}

// WithNegotiator replaces the post-connect handshake; nil disables negotiation
func WithNegotiator(n Negotiator) Option {
	return func(o *Options) {
		o.Negotiator = n
		o.negotiatorSet = true
	}
}

// WithMetrics registers client collectors on reg
func WithMetrics(reg prometheus.Registerer, config *MetricsConfig) Option {
	return func(o *Options) {
		o.Registerer = reg
		o.MetricsConfig = config
	}
}

func WithHeartbeat(interval time.Duration) Option {
	return func(o *Options) {
		o.HeartbeatInterval = interval
	}
}
