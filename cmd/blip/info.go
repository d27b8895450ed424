package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/blip/internal/client"
	"github.com/srg/blip/internal/packet"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Connect and print everything the printer reported",
		Long: `Connect to the nearest printer, run the handshake and the printer info
queries, then print the answered values. Keys the printer does not support
are omitted.`,
		Args: cobra.NoArgs,
		RunE: runInfo,
	}
	cmd.Flags().StringP("format", "f", "", "Output format (table, json)")
	cmd.Flags().Bool("json", false, "Shortcut for --format json")
	return cmd
}

// infoEntry is one negotiated value as rendered by info
type infoEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Raw   string `json:"raw"`
}

type infoReport struct {
	Device    string      `json:"device"`
	Address   string      `json:"address"`
	SessionID string      `json:"sessionId"`
	Result    string      `json:"result"`
	Info      []infoEntry `json:"info"`
}

func runInfo(cmd *cobra.Command, _ []string) error {
	a, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = a.cfg.OutputFormat
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if format, err = validateFormat(jsonOutput, format); err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	c, info, err := a.connect(ctx)
	if err != nil {
		return err
	}

	report := buildInfoReport(info, c.Info())
	if format == "json" {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return writeInfoTable(a.out, report)
}

func buildInfoReport(info *client.ConnectionInfo, values map[packet.PrinterInfoType][]byte) infoReport {
	keys := make([]packet.PrinterInfoType, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	report := infoReport{
		Device:    info.DeviceName,
		Address:   info.Address,
		SessionID: info.SessionID,
		Result:    info.Result.String(),
		Info:      make([]infoEntry, 0, len(keys)),
	}
	for _, k := range keys {
		report.Info = append(report.Info, infoEntry{
			Key:   k.String(),
			Value: packet.FormatInfo(k, values[k]),
			Raw:   hex.EncodeToString(values[k]),
		})
	}
	return report
}

func writeInfoTable(w io.Writer, r infoReport) error {
	fmt.Fprintf(w, "Printer: %s (%s)\n", r.Device, r.Address)
	fmt.Fprintf(w, "Result:  %s\n\n", r.Result)
	if len(r.Info) == 0 {
		_, err := fmt.Fprintln(w, "No printer info reported.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tRAW")
	for _, e := range r.Info {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, e.Value, e.Raw)
	}
	return tw.Flush()
}
