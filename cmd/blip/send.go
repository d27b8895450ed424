package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/srg/blip/internal/packet"
	"github.com/srg/blip/internal/trace"
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <command> [hex payload...]",
		Short: "Send one command and print the response",
		Long: `Connect to the nearest printer, send a single command and print the first
response it accepts.

The command is a name (PrinterInfo, Heartbeat, ...) or a numeric id (0x40).
The payload is hex; spaces, colons and dashes between bytes are ignored.
With --raw the arguments are written to the printer as-is, unframed.`,
		Example: `  blip send PrinterInfo 08 --expect SerialNumber
  blip send Heartbeat 01
  blip send --oneway PrintClear 01
  blip send --raw 55 55 dc 01 01 dc aa aa`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSend,
	}
	cmd.Flags().StringSliceP("expect", "e", nil, "Accepted response names or ids (default: any)")
	cmd.Flags().Bool("oneway", false, "Do not wait for a response")
	cmd.Flags().DurationP("timeout", "t", 0, "Response timeout (default from config)")
	cmd.Flags().Bool("raw", false, "Write the arguments as raw bytes")
	cmd.Flags().Bool("force", false, "With --raw, write without waiting for an in-flight exchange")
	cmd.Flags().Bool("trace", false, "Print every raw frame exchanged after the command completes")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetBool("raw")
	force, _ := cmd.Flags().GetBool("force")
	if force && !raw {
		return fmt.Errorf("--force requires --raw")
	}

	var (
		req     *packet.Packet
		payload []byte
		err     error
	)
	if raw {
		if payload, err = parseHexPayload(args); err != nil {
			return err
		}
		if len(payload) == 0 {
			return fmt.Errorf("--raw requires at least one byte")
		}
	} else {
		if req, err = buildRequest(cmd, args); err != nil {
			return err
		}
	}

	a, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	c, _, err := a.connect(ctx)
	if err != nil {
		return err
	}

	var rec *trace.Recorder
	if tracing, _ := cmd.Flags().GetBool("trace"); tracing {
		if rec, err = trace.NewRecorder(a.cfg.TraceCapacity); err != nil {
			return err
		}
		rec.Attach(c.Bus())
		defer rec.Detach()
	}

	if raw {
		if err := c.SendRaw(ctx, payload, force); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Sent %d bytes\n", len(payload))
	} else {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		resp, err := c.SendPacketWaitResponse(ctx, req, timeout)
		if err != nil {
			return err
		}
		writeResponse(a.out, req, resp)
	}

	if rec != nil {
		rec.Detach()
		return writeTrace(a.out, rec)
	}
	return nil
}

func buildRequest(cmd *cobra.Command, args []string) (*packet.Packet, error) {
	id, err := packet.ParseRequestCommandID(args[0])
	if err != nil {
		return nil, err
	}
	payload, err := parseHexPayload(args[1:])
	if err != nil {
		return nil, err
	}

	var opts []packet.Option
	if oneWay, _ := cmd.Flags().GetBool("oneway"); oneWay {
		opts = append(opts, packet.OneWay())
	}
	expect, _ := cmd.Flags().GetStringSlice("expect")
	for _, name := range expect {
		resp, err := packet.ParseResponseCommandID(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, packet.ExpectResponses(resp))
	}
	return packet.New(id, payload, opts...), nil
}

// parseHexPayload decodes args as hex. Tokens may be split by spaces, colons
// or dashes and each may carry its own 0x prefix.
func parseHexPayload(args []string) ([]byte, error) {
	var sb strings.Builder
	for _, arg := range args {
		tokens := strings.FieldsFunc(arg, func(r rune) bool {
			return r == ' ' || r == ':' || r == '-'
		})
		for _, tok := range tokens {
			if len(tok) > 2 && (strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X")) {
				tok = tok[2:]
			}
			sb.WriteString(tok)
		}
	}
	if sb.Len() == 0 {
		return nil, nil
	}
	b, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload %q: %w", strings.Join(args, " "), err)
	}
	return b, nil
}

func writeResponse(w io.Writer, req, resp *packet.Packet) {
	if resp.IsInvalid() {
		fmt.Fprintf(w, "-> %s sent (no response expected)\n", req.Command())
		return
	}
	fmt.Fprintf(w, "-> %s\n<- %s [%s]\n", req.Command(), resp.ResponseID(), hex.EncodeToString(resp.Payload()))
	if key, ok := resp.ResponseID().PrinterInfoType(); ok {
		fmt.Fprintf(w, "   %s = %s\n", key, packet.FormatInfo(key, resp.Payload()))
	}
}

func writeTrace(w io.Writer, rec *trace.Recorder) error {
	records, err := rec.Drain()
	if err != nil {
		return err
	}
	stats := rec.Stats()
	fmt.Fprintf(w, "\nTrace (%d frames, %d overwritten):\n", stats.Recorded, stats.Overwritten)
	for _, r := range records {
		fmt.Fprintf(w, "  %s\n", r)
	}
	return nil
}
