package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blip/internal/client"
	"github.com/srg/blip/internal/device"
	goble "github.com/srg/blip/internal/device/go-ble"
	"github.com/srg/blip/pkg/config"
)

// Host stack factories; tests swap in fakes.
var (
	transportFactory = func(logger *logrus.Logger) device.Transport {
		return goble.NewTransport(logger)
	}
	scannerFactory = func(logger *logrus.Logger) device.Scanner {
		return goble.NewTransport(logger)
	}
)

// app is the per-command runtime shared by every subcommand
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	registry *prometheus.Registry
	out      io.Writer

	closers []func()
}

// setupApp loads configuration, applies flag overrides, builds the logger and
// starts the metrics endpoint when requested.
func setupApp(cmd *cobra.Command) (*app, error) {
	cfg := config.DefaultConfig()
	fallback := logrus.PanicLevel

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		fallback = cfg.Level()
	}
	if prefixes, _ := cmd.Flags().GetStringSlice("prefix"); len(prefixes) > 0 {
		cfg.NamePrefixes = prefixes
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.MetricsAddr = addr
	}

	logger, err := configureLogger(cmd, "verbose", fallback)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}
	if cfg.MetricsAddr != "" {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		stop, err := startMetricsServer(cfg.MetricsAddr, a.registry, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, stop)
	}
	return a, nil
}

func (a *app) newClient(opts ...client.Option) *client.Client {
	var reg prometheus.Registerer
	if a.registry != nil {
		reg = a.registry
	}
	base := a.cfg.ClientOptions(a.logger, reg)
	return client.New(transportFactory(a.logger), append(base, opts...)...)
}

// connect builds and connects a client; Close disconnects it
func (a *app) connect(ctx context.Context, opts ...client.Option) (*client.Client, *client.ConnectionInfo, error) {
	c := a.newClient(opts...)
	info, err := c.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, func() {
		if err := c.Disconnect(); err != nil {
			a.logger.WithField("error", err).Debug("Disconnect failed")
		}
	})
	return c, info, nil
}

// Close releases everything in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// signalContext is cancelled by Ctrl+C or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func validateFormat(jsonOutput bool, format string) (string, error) {
	if jsonOutput {
		return "json", nil
	}
	switch format {
	case "table", "json":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format '%s': must be one of [table json]", format)
	}
}
