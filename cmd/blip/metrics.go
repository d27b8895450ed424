package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/groutine"
)

// startMetricsServer serves reg on addr under /metrics until the returned stop func runs
func startMetricsServer(addr string, reg *prometheus.Registry, logger *logrus.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}
	return serveMetrics(ln, reg, logger), nil
}

func serveMetrics(ln net.Listener, reg *prometheus.Registry, logger *logrus.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	groutine.Go(context.Background(), "blip-metrics", func(context.Context) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("error", err).Warn("Metrics server stopped")
		}
	})
	logger.WithField("addr", ln.Addr().String()).Info("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
