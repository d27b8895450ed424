package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// newRootCmd builds the command tree; tests build a fresh tree per case
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blip",
		Short: "BLE thermal label printer client",
		Long: `Command-line client for BLE thermal label printers that provides:

- Scan and discover nearby printers by advertised name
- Connect, negotiate and show printer information
- Send vendor commands and wait for their responses
- Monitor everything the printer sends

Printer traffic uses the vendor frame format over a single
notify + write-without-response characteristic.`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),
		SilenceUsage: false,
		// main() prints clean errors
		SilenceErrors: true,
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newConnectCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newSendCmd())
	root.AddCommand(newMonitorCmd())

	flags := root.PersistentFlags()
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.String("config", "", "Path to a YAML config file")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")
	flags.StringSlice("prefix", nil, "Accepted printer name prefixes (default: all supported families)")

	root.Flags().BoolP("version", "v", false, "Show version information")
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Ctrl+C is a normal exit
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}
