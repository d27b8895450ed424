package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/client"
	"github.com/srg/blip/internal/device"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogLevel             string        `yaml:"log_level" json:"log_level" default:"info"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout" json:"connect_timeout" default:"30s"`
	ScanTimeout          time.Duration `yaml:"scan_timeout" json:"scan_timeout" default:"10s"`
	PacketInterval       time.Duration `yaml:"packet_interval" json:"packet_interval" default:"10ms"`
	ResponseTimeout      time.Duration `yaml:"response_timeout" json:"response_timeout" default:"1s"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval" json:"heartbeat_interval"`
	NamePrefixes         []string      `yaml:"name_prefixes" json:"name_prefixes"`
	MinServiceUUIDLength int           `yaml:"min_service_uuid_length" json:"min_service_uuid_length" default:"5"`
	TraceCapacity        uint32        `yaml:"trace_capacity" json:"trace_capacity" default:"256"`
	MetricsAddr          string        `yaml:"metrics_addr" json:"metrics_addr"`
	OutputFormat         string        `yaml:"output_format" json:"output_format" default:"table"` // table, json
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.NamePrefixes = append([]string(nil), device.DefaultNamePrefixes...)
	return cfg
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var errs []error
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.PacketInterval < 0 {
		errs = append(errs, errors.New("packet_interval must not be negative"))
	}
	if c.ResponseTimeout <= 0 {
		errs = append(errs, errors.New("response_timeout must be positive"))
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("connect_timeout must be positive"))
	}
	if c.MinServiceUUIDLength < 0 {
		errs = append(errs, errors.New("min_service_uuid_length must not be negative"))
	}
	for _, p := range c.NamePrefixes {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("name_prefixes must not contain empty prefixes"))
			break
		}
	}
	switch c.OutputFormat {
	case "table", "json":
	default:
		errs = append(errs, fmt.Errorf("output_format: unknown format %q", c.OutputFormat))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, falling back to Info
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}

// NameFilter builds the advertised-name filter for discovery and connect
func (c *Config) NameFilter() device.NameFilter {
	if len(c.NamePrefixes) == 0 {
		return device.NamePrefixFilter(device.DefaultNamePrefixes...)
	}
	return device.NamePrefixFilter(c.NamePrefixes...)
}

// ClientOptions converts the configuration into client options. reg may be nil
// to disable metrics.
func (c *Config) ClientOptions(logger *logrus.Logger, reg prometheus.Registerer) []client.Option {
	opts := []client.Option{
		client.WithLogger(logger),
		client.WithPacketInterval(c.PacketInterval),
		client.WithResponseTimeout(c.ResponseTimeout),
		client.WithConnectTimeout(c.ConnectTimeout),
		client.WithNameFilter(c.NameFilter()),
		client.WithMinServiceUUIDLength(c.MinServiceUUIDLength),
		client.WithHeartbeat(c.HeartbeatInterval),
	}
	if reg != nil {
		opts = append(opts, client.WithMetrics(reg, nil))
	}
	return opts
}
