package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig names the collectors registered by a client
type MetricsConfig struct {
	Namespace string
	Subsystem string
}

func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Namespace: "blip",
		Subsystem: "client",
	}
}

// metrics is nil-safe: a client without a registerer records nothing
type metrics struct {
	exchanges       *prometheus.CounterVec
	exchangeSeconds *prometheus.HistogramVec
	bytes           *prometheus.CounterVec
	connects        *prometheus.CounterVec
	disconnects     prometheus.Counter
	decodeErrors    prometheus.Counter
	gateWaiting     prometheus.GaugeFunc
}

func newMetrics(reg prometheus.Registerer, config *MetricsConfig, waiting func() int) *metrics {
	if reg == nil {
		return nil
	}
	if config == nil {
		config = DefaultMetricsConfig()
	}

	m := &metrics{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem, Name: "exchanges_total", Help: "Command exchanges by command and result"}, []string{"command", "result"}),
		exchangeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem, Name: "exchange_duration_seconds", Help: "Time from write to matching response",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5}}, []string{"command"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem, Name: "bytes_total", Help: "Raw bytes by direction"}, []string{"direction"}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem, Name: "connects_total", Help: "Connect attempts by result"}, []string{"result"}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem, Name: "disconnects_total", Help: "Physical link teardowns"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem, Name: "decode_errors_total", Help: "Notifications that failed to decode"}),
		gateWaiting: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.Subsystem, Name: "queued_exchanges", Help: "Callers waiting for the command gate"},
			func() float64 { return float64(waiting()) }),
	}

	reg.MustRegister(m.exchanges, m.exchangeSeconds, m.bytes, m.connects, m.disconnects, m.decodeErrors, m.gateWaiting)
	return m
}

func (m *metrics) exchange(command, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(command, result).Inc()
	if result == "ok" {
		m.exchangeSeconds.WithLabelValues(command).Observe(elapsed.Seconds())
	}
}

func (m *metrics) sent(n int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues("tx").Add(float64(n))
}

func (m *metrics) received(n int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues("rx").Add(float64(n))
}

func (m *metrics) connect(result string) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues(result).Inc()
}

func (m *metrics) disconnect() {
	if m == nil {
		return
	}
	m.disconnects.Inc()
}

func (m *metrics) decodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}
