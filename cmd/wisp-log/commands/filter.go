package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/wisp-protocol/wisp-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output   string
	Device   string
	Source   string
	Category string
	Since    string
	Until    string
}

// RunFilter filters the log file and writes matching events to a new file.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	// Build filter
	filter := log.Filter{
		Device: opts.Device,
	}

	if opts.Source != "" {
		s, err := ParseSourceFlag(opts.Source)
		if err != nil {
			return err
		}
		filter.Source = &s
	}

	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return err
		}
		filter.Category = &c
	}

	if opts.Since != "" {
		t, err := time.Parse(time.RFC3339, opts.Since)
		if err != nil {
			return fmt.Errorf("invalid since format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.Until != "" {
		t, err := time.Parse(time.RFC3339, opts.Until)
		if err != nil {
			return fmt.Errorf("invalid until format: %w", err)
		}
		filter.TimeEnd = &t
	}

	// Open input
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Create file logger to write filtered events
	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, opts.Output)
	return nil
}
