package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/scanner"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for nearby printers",
		Long: `Scan for BLE label printers in the vicinity.

Only devices whose advertised name matches a supported printer family are
listed. Use --prefix to change the accepted families.`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	cmd.Flags().DurationP("duration", "d", 0, "Scan duration (default from config)")
	cmd.Flags().StringP("format", "f", "", "Output format (table, json)")
	cmd.Flags().Bool("json", false, "Shortcut for --format json")
	cmd.Flags().StringSliceP("services", "s", nil, "Only show printers advertising these service UUIDs")
	cmd.Flags().StringSlice("allow", nil, "Only show printers with these addresses")
	cmd.Flags().StringSlice("block", nil, "Hide printers with these addresses")
	cmd.Flags().Bool("all", false, "Include non-connectable advertisements")
	cmd.Flags().Bool("no-duplicates", true, "Filter duplicate advertisements")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
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

	opts := scanner.DefaultScanOptions()
	opts.Duration = a.cfg.ScanTimeout
	if d, _ := cmd.Flags().GetDuration("duration"); d > 0 {
		opts.Duration = d
	}
	opts.NameFilter = a.cfg.NameFilter()
	opts.DuplicateFilter, _ = cmd.Flags().GetBool("no-duplicates")
	opts.IncludeNonConnectable, _ = cmd.Flags().GetBool("all")
	opts.AllowList, _ = cmd.Flags().GetStringSlice("allow")
	opts.BlockList, _ = cmd.Flags().GetStringSlice("block")

	if services, _ := cmd.Flags().GetStringSlice("services"); len(services) > 0 {
		if opts.ServiceUUIDs, err = device.ValidateUUID(services...); err != nil {
			return fmt.Errorf("invalid service UUID: %w", err)
		}
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	s, err := scanner.NewScanner(scannerFactory(a.logger), a.logger)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	printers, err := s.Scan(ctx, opts, func(phase string) {
		a.logger.WithField("phase", phase).Debug("Scan progress")
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if format == "json" {
		return writePrintersJSON(a.out, printers)
	}
	return writePrintersTable(a.out, printers, time.Now())
}

func writePrintersJSON(w io.Writer, printers []scanner.Printer) error {
	if printers == nil {
		printers = []scanner.Printer{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(printers)
}

func writePrintersTable(w io.Writer, printers []scanner.Printer, now time.Time) error {
	if len(printers) == 0 {
		_, err := fmt.Fprintln(w, "No printers found.")
		return err
	}

	fmt.Fprintf(w, "Found %d printer(s):\n\n", len(printers))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADDRESS\tRSSI\tSERVICES\tLAST SEEN")
	for _, p := range printers {
		services := "-"
		if len(p.Services) > 0 {
			short := make([]string, len(p.Services))
			for i, u := range p.Services {
				short[i] = device.ShortenUUID(u)
			}
			services = strings.Join(short, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			p.Name, p.Address, p.RSSI, services, formatAge(now.Sub(p.LastSeen)))
	}
	return tw.Flush()
}

func formatAge(d time.Duration) string {
	if d < time.Second {
		return "now"
	}
	return d.Truncate(time.Second).String() + " ago"
}
