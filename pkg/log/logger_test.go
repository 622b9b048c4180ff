package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDiscards(t *testing.T) {
	var logger NoopLogger

	// Must not panic, including with an empty event.
	logger.Log(Event{})
	logger.Log(Event{
		Timestamp: time.Now(),
		Source:    SourceAgent,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityLink,
			NewState: "IDLE",
		},
	})
}

type captureLogger struct {
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.events = append(c.events, event)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	multi := NewMultiLogger(a, b)

	event := Event{
		Timestamp: time.Now(),
		Source:    SourceDiscovery,
		Category:  CategoryPresence,
		Presence:  &PresenceEvent{Instance: "lamp-01", Announced: true},
	}
	multi.Log(event)

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("fan-out counts: a=%d b=%d, want 1 each", len(a.events), len(b.events))
	}
	if a.events[0].Presence == nil || a.events[0].Presence.Instance != "lamp-01" {
		t.Errorf("first logger got %+v", a.events[0])
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	multi := NewMultiLogger()
	multi.Log(Event{Timestamp: time.Now()}) // must not panic
}
