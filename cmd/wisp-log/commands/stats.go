package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wisp-protocol/wisp-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsBySource   map[log.Source]int
	EventsByCategory map[log.Category]int

	// LinkTransitions counts link state changes keyed "OLD -> NEW".
	LinkTransitions map[string]int

	// ClientSessions counts provisioning client connects.
	ClientSessions int

	Writes         int
	RejectedWrites int
	Errors         int

	// Devices counts events per device name.
	Devices map[string]int

	TimeRange struct {
		Start time.Time
		End   time.Time
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsBySource:   make(map[log.Source]int),
		EventsByCategory: make(map[log.Category]int),
		LinkTransitions:  make(map[string]int),
		Devices:          make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsBySource[event.Source]++
		stats.EventsByCategory[event.Category]++
		if event.Device != "" {
			stats.Devices[event.Device]++
		}

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Count link transitions and client sessions
		if sc := event.StateChange; sc != nil {
			switch sc.Entity {
			case log.StateEntityLink:
				key := sc.NewState
				if sc.OldState != "" {
					key = sc.OldState + " -> " + sc.NewState
				}
				stats.LinkTransitions[key]++
			case log.StateEntityClient:
				if sc.NewState == "PRESENT" {
					stats.ClientSessions++
				}
			}
		}

		// Count writes
		if we := event.Write; we != nil {
			stats.Writes++
			if we.Rejected {
				stats.RejectedWrites++
			}
		}

		// Count errors
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Wisp Device Log Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by source
	fmt.Fprintln(w, "Events by Source:")
	for _, source := range []log.Source{
		log.SourceStorage, log.SourceProvision, log.SourceStation,
		log.SourceIndicator, log.SourceDiscovery, log.SourceAgent,
	} {
		if count := stats.EventsBySource[source]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", source.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by category
	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{
		log.CategoryState, log.CategoryWrite, log.CategoryPresence, log.CategoryError,
	} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Link transitions
	if len(stats.LinkTransitions) > 0 {
		fmt.Fprintln(w, "Link Transitions:")
		keys := make([]string, 0, len(stats.LinkTransitions))
		for key := range stats.LinkTransitions {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "  %-28s %d\n", key, stats.LinkTransitions[key])
		}
		fmt.Fprintln(w)
	}

	// Provisioning activity
	if stats.ClientSessions > 0 || stats.Writes > 0 {
		fmt.Fprintf(w, "Client Sessions: %d\n", stats.ClientSessions)
		fmt.Fprintf(w, "Writes: %d", stats.Writes)
		if stats.RejectedWrites > 0 {
			fmt.Fprintf(w, " (%d rejected)", stats.RejectedWrites)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w)
	}

	// Devices
	fmt.Fprintf(w, "Devices: %d\n", len(stats.Devices))
	if len(stats.Devices) > 0 {
		names := make([]string, 0, len(stats.Devices))
		for name := range stats.Devices {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  [%s] %d events\n", name, stats.Devices[name])
		}
	}

	// Errors
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
