package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/client"
	"github.com/srg/blip/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.ScanTimeout)
	assert.Equal(t, client.DefaultPacketInterval, cfg.PacketInterval)
	assert.Equal(t, client.DefaultResponseTimeout, cfg.ResponseTimeout)
	assert.Zero(t, cfg.HeartbeatInterval)
	assert.Equal(t, device.DefaultNamePrefixes, cfg.NamePrefixes)
	assert.Equal(t, device.DefaultMinServiceUUIDLength, cfg.MinServiceUUIDLength)
	assert.Equal(t, uint32(256), cfg.TraceCapacity)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.NoError(t, cfg.Validate())

	cfg.NamePrefixes[0] = "Z"
	assert.Equal(t, "A", device.DefaultNamePrefixes[0], "defaults MUST NOT share the package prefix slice")
}

func TestLoad(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
log_level: debug
packet_interval: 25ms
response_timeout: 2s
heartbeat_interval: 5s
name_prefixes: [B, D]
metrics_addr: 127.0.0.1:9090
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 25*time.Millisecond, cfg.PacketInterval)
		assert.Equal(t, 2*time.Second, cfg.ResponseTimeout)
		assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
		assert.Equal(t, []string{"B", "D"}, cfg.NamePrefixes)
		assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)
		assert.Equal(t, 30*time.Second, cfg.ConnectTimeout, "missing keys MUST keep defaults")
	})

	t.Run("zero packet interval is allowed", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "packet_interval: 0s\n"))
		require.NoError(t, err)
		assert.Zero(t, cfg.PacketInterval)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log_level: [unterminated\n"))
		assert.ErrorContains(t, err, "failed to parse config")
	})

	t.Run("invalid values are all reported", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
log_level: loud
response_timeout: 0s
output_format: xml
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log_level")
		assert.Contains(t, err.Error(), "response_timeout")
		assert.Contains(t, err.Error(), "output_format")
	})
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     logrus.Level
	}{
		{name: "debug", logLevel: "debug", want: logrus.DebugLevel},
		{name: "info", logLevel: "info", want: logrus.InfoLevel},
		{name: "warn", logLevel: "warn", want: logrus.WarnLevel},
		{name: "error", logLevel: "error", want: logrus.ErrorLevel},
		{name: "unknown falls back to info", logLevel: "chatty", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.want, logger.GetLevel())

			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestConfig_NameFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NamePrefixes = []string{"D1"}

	filter := cfg.NameFilter()
	assert.True(t, filter("D110-G123"))
	assert.False(t, filter("B1-H123"))

	cfg.NamePrefixes = nil
	assert.True(t, cfg.NameFilter()("B1-H123"), "empty prefixes MUST fall back to the defaults")
}

func TestConfig_ClientOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = time.Second

	assert.Len(t, cfg.ClientOptions(nil, nil), 7)
	assert.Len(t, cfg.ClientOptions(nil, prometheus.NewRegistry()), 8, "registry MUST add the metrics option")
}
