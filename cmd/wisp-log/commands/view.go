// Package commands implements the wisp-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wisp-protocol/wisp-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Source   *log.Source
	Category *log.Category
	Since    *time.Time
	Until    *time.Time
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		Source:    filter.Source,
		Category:  filter.Category,
		TimeStart: filter.Since,
		TimeEnd:   filter.Until,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [device] SOURCE Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Write != nil:
		typeLabel = "Write"
		if event.Write.Rejected {
			typeLabel = "Rejected"
		}
	case event.Presence != nil:
		typeLabel = "Presence"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	if event.Device != "" {
		fmt.Fprintf(w, "%s [%s] %-9s %s\n", ts, event.Device, event.Source, typeLabel)
	} else {
		fmt.Fprintf(w, "%s %-9s %s\n", ts, event.Source, typeLabel)
	}

	// Type-specific details
	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Write != nil:
		formatWriteDetails(w, event.Write)
	case event.Presence != nil:
		formatPresenceDetails(w, event.Presence)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s: %s -> %s\n", sc.Entity, sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  %s: -> %s\n", sc.Entity, sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
	if sc.Address != "" {
		fmt.Fprintf(w, "  Address: %s\n", sc.Address)
	}
}

// formatWriteDetails writes provisioning write details.
func formatWriteDetails(w io.Writer, we *log.WriteEvent) {
	fmt.Fprintf(w, "  Attribute: %s\n", we.Attribute)
	fmt.Fprintf(w, "  Size: %d bytes\n", we.Size)
	if we.Rejected {
		fmt.Fprintf(w, "  Rejected: %s\n", we.Reason)
	}
}

// formatPresenceDetails writes LAN presence details.
func formatPresenceDetails(w io.Writer, pe *log.PresenceEvent) {
	fmt.Fprintf(w, "  Instance: %s\n", pe.Instance)
	if pe.Announced {
		fmt.Fprintln(w, "  Announced")
	} else {
		fmt.Fprintln(w, "  Withdrawn")
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Op != "" {
		fmt.Fprintf(w, "  Op: %s\n", err.Op)
	}
}

// ParseSourceFlag parses a source string from a command-line flag
// (case-insensitive).
func ParseSourceFlag(s string) (log.Source, error) {
	switch strings.ToLower(s) {
	case "storage":
		return log.SourceStorage, nil
	case "provision":
		return log.SourceProvision, nil
	case "station":
		return log.SourceStation, nil
	case "indicator":
		return log.SourceIndicator, nil
	case "discovery":
		return log.SourceDiscovery, nil
	case "agent":
		return log.SourceAgent, nil
	default:
		return 0, fmt.Errorf("invalid source: %s (must be storage, provision, station, indicator, discovery, or agent)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryState, nil
	case "write":
		return log.CategoryWrite, nil
	case "presence":
		return log.CategoryPresence, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be state, write, presence, or error)", s)
	}
}
