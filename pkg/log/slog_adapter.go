package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes device events to an slog.Logger.
// Useful for development when you want to see events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("source", event.Source.String()),
		slog.String("category", event.Category.String()),
	}

	if event.Device != "" {
		attrs = append(attrs, slog.String("device", event.Device))
	}

	// Add type-specific attributes
	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
		if event.StateChange.Address != "" {
			attrs = append(attrs, slog.String("address", event.StateChange.Address))
		}
	case event.Write != nil:
		attrs = append(attrs,
			slog.String("attribute", event.Write.Attribute),
			slog.Int("size", event.Write.Size),
		)
		if event.Write.Rejected {
			attrs = append(attrs, slog.Bool("rejected", true))
			if event.Write.Reason != "" {
				attrs = append(attrs, slog.String("reason", event.Write.Reason))
			}
		}
	case event.Presence != nil:
		attrs = append(attrs,
			slog.String("instance", event.Presence.Instance),
			slog.Bool("announced", event.Presence.Announced),
		)
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Op != "" {
			attrs = append(attrs, slog.String("error_op", event.Error.Op))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
