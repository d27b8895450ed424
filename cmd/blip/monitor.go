package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/blip/internal/client"
	"github.com/srg/blip/internal/eventbus"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Connect and print everything the printer sends",
		Long: `Connect to the nearest printer and print every decoded packet it sends
until Ctrl+C, --duration elapses or the printer disconnects.`,
		Args: cobra.NoArgs,
		RunE: runMonitor,
	}
	cmd.Flags().DurationP("duration", "d", 0, "Stop after this long (0 for until interrupted)")
	cmd.Flags().Bool("raw", false, "Also print raw frames in both directions")
	cmd.Flags().Duration("heartbeat", 0, "Send heartbeats at this interval (default from config)")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	return cmd
}

// monitorPrinter renders bus events; handlers run on notification goroutines
type monitorPrinter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time

	rx, tx, info, warn *color.Color
}

func newMonitorPrinter(out io.Writer, noColor bool) *monitorPrinter {
	p := &monitorPrinter{
		out:  out,
		now:  time.Now,
		rx:   color.New(color.FgGreen),
		tx:   color.New(color.FgCyan),
		info: color.New(color.Bold),
		warn: color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{p.rx, p.tx, p.info, p.warn} {
			c.DisableColor()
		}
	}
	return p
}

func (p *monitorPrinter) line(c *color.Color, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s\n", p.now().Format("15:04:05.000"), c.Sprintf(format, args...))
}

// attach subscribes to bus; the returned func unsubscribes
func (p *monitorPrinter) attach(bus *eventbus.Bus, raw bool) func() {
	subs := []*eventbus.Subscription{
		eventbus.On(bus, func(ev eventbus.PacketReceivedEvent) {
			pkt := ev.Packet
			p.line(p.rx, "<- %s [%s]", pkt.ResponseID(), hex.EncodeToString(pkt.Payload()))
		}),
		eventbus.On(bus, func(ev eventbus.DisconnectEvent) {
			if ev.Reason != nil {
				p.line(p.warn, "disconnected from %s: %v", ev.DeviceName, ev.Reason)
				return
			}
			p.line(p.info, "disconnected from %s", ev.DeviceName)
		}),
	}
	if raw {
		subs = append(subs,
			eventbus.On(bus, func(ev eventbus.RawPacketSentEvent) {
				p.line(p.tx, "tx %s", hex.EncodeToString(ev.Data))
			}),
			eventbus.On(bus, func(ev eventbus.RawPacketReceivedEvent) {
				p.line(p.rx, "rx %s", hex.EncodeToString(ev.Data))
			}),
		)
	}
	return func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	a, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var opts []client.Option
	if hb, _ := cmd.Flags().GetDuration("heartbeat"); hb > 0 {
		opts = append(opts, client.WithHeartbeat(hb))
	}

	c, info, err := a.connect(ctx, opts...)
	if err != nil {
		return err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	raw, _ := cmd.Flags().GetBool("raw")
	p := newMonitorPrinter(a.out, noColor)
	p.line(p.info, "monitoring %s (%s), session %s", info.DeviceName, info.Address, info.SessionID)
	detach := p.attach(c.Bus(), raw)
	defer detach()

	duration, _ := cmd.Flags().GetDuration("duration")
	if duration == 0 {
		duration = -1
	}
	err = holdConnection(ctx, c, duration)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
