package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/blip/internal/client"
	"github.com/srg/blip/internal/eventbus"
)

func newConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to the nearest printer and show the session",
		Long: `Connect to the first printer matching the name prefixes, negotiate and
print the resulting session. With --hold the connection is kept open until
Ctrl+C or the printer goes away.`,
		Args: cobra.NoArgs,
		RunE: runConnect,
	}
	cmd.Flags().Duration("hold", 0, "Keep the connection open for this long (-1 for until interrupted)")
	cmd.Flags().Bool("no-negotiate", false, "Skip the handshake and info queries")
	return cmd
}

func runConnect(cmd *cobra.Command, _ []string) error {
	a, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var opts []client.Option
	if skip, _ := cmd.Flags().GetBool("no-negotiate"); skip {
		opts = append(opts, client.WithNegotiator(nil))
	}

	c, info, err := a.connect(ctx, opts...)
	if err != nil {
		return err
	}
	writeConnectionInfo(a.out, info)

	hold, _ := cmd.Flags().GetDuration("hold")
	if hold == 0 {
		return nil
	}
	return holdConnection(ctx, c, hold)
}

// holdConnection blocks until d elapses, ctx ends or the link drops.
// A negative d waits without a deadline.
func holdConnection(ctx context.Context, c *client.Client, d time.Duration) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	lost := make(chan error, 1)
	sub := eventbus.On(c.Bus(), func(ev eventbus.DisconnectEvent) {
		select {
		case lost <- ev.Reason:
		default:
		}
	})
	defer sub.Unsubscribe()

	if !c.IsConnected() {
		return ErrConnectionLost
	}

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil
		}
		return ctx.Err()
	case reason := <-lost:
		if reason == nil {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrConnectionLost, reason)
	}
}

func writeConnectionInfo(w io.Writer, info *client.ConnectionInfo) {
	fmt.Fprintf(w, "Connected to %s (%s)\n", info.DeviceName, info.Address)
	fmt.Fprintf(w, "  Session: %s\n", info.SessionID)
	fmt.Fprintf(w, "  Result:  %s\n", info.Result)
}
