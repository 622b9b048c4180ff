// Command wisp-log is a tool for viewing and analyzing wisp device log files.
//
// Log files are created by running wisp-device with the -event-log flag.
//
// Usage:
//
//	wisp-log <command> [flags] <file.wlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	wisp-log view device.wlog
//
//	# View only supervisor state changes
//	wisp-log view -source station -category state device.wlog
//
//	# View events after a point in time
//	wisp-log view -since 2026-02-03T09:00:00Z device.wlog
//
//	# Export to JSON lines for jq
//	wisp-log export -format jsonl device.wlog
//
//	# Extract provisioning writes into a new file
//	wisp-log filter -category write -o writes.wlog device.wlog
//
//	# Show statistics
//	wisp-log stats device.wlog
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wisp-protocol/wisp-go/cmd/wisp-log/commands"
)

const usage = `wisp-log - Wisp Device Log Analyzer

Usage:
  wisp-log <command> [flags] <file.wlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "wisp-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `wisp-log view - View log file in human-readable format

Usage:
  wisp-log view [flags] <file.wlog>

Flags:
`)
		fs.PrintDefaults()
	}

	source := fs.String("source", "", "Filter by source (storage, provision, station, indicator, discovery, agent)")
	category := fs.String("category", "", "Filter by category (state, write, presence, error)")
	since := fs.String("since", "", "Only events at or after this time (RFC3339)")
	until := fs.String("until", "", "Only events before this time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	// Build filter
	var filter commands.ViewFilter

	if *source != "" {
		s, err := commands.ParseSourceFlag(*source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Source = &s
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -since format: %v\n", err)
			os.Exit(1)
		}
		filter.Since = &t
	}

	if *until != "" {
		t, err := time.Parse(time.RFC3339, *until)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -until format: %v\n", err)
			os.Exit(1)
		}
		filter.Until = &t
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `wisp-log export - Export log file to JSON or CSV format

Usage:
  wisp-log export [flags] <file.wlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `wisp-log filter - Filter log file and write to new file

Usage:
  wisp-log filter [flags] <file.wlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	device := fs.String("device", "", "Filter by device name")
	source := fs.String("source", "", "Filter by source (storage, provision, station, indicator, discovery, agent)")
	category := fs.String("category", "", "Filter by category (state, write, presence, error)")
	since := fs.String("since", "", "Only events at or after this time (RFC3339)")
	until := fs.String("until", "", "Only events before this time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:   *output,
		Device:   *device,
		Source:   *source,
		Category: *category,
		Since:    *since,
		Until:    *until,
	}

	if err := commands.RunFilter(path, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `wisp-log stats - Show statistics about the log file

Usage:
  wisp-log stats <file.wlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
