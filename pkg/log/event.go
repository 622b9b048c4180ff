package log

import "time"

// Event represents a device log event from any source.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Device is the device name the event originated from.
	Device string `cbor:"2,keyasint,omitempty"`

	// Source identifies the component that produced the event.
	Source Source `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (exactly one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"` // Link/client transitions
	Write       *WriteEvent       `cbor:"11,keyasint,omitempty"` // Provisioning attribute writes
	Presence    *PresenceEvent    `cbor:"12,keyasint,omitempty"` // LAN announcement changes
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors from any source
}

// Source identifies the component that produced an event.
type Source uint8

const (
	// SourceStorage is the credential store.
	SourceStorage Source = 0
	// SourceProvision is the provisioning surface.
	SourceProvision Source = 1
	// SourceStation is the connection supervisor.
	SourceStation Source = 2
	// SourceIndicator is the status indicator.
	SourceIndicator Source = 3
	// SourceDiscovery is the LAN presence announcer.
	SourceDiscovery Source = 4
	// SourceAgent is the orchestration layer.
	SourceAgent Source = 5
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceStorage:
		return "STORAGE"
	case SourceProvision:
		return "PROVISION"
	case SourceStation:
		return "STATION"
	case SourceIndicator:
		return "INDICATOR"
	case SourceDiscovery:
		return "DISCOVERY"
	case SourceAgent:
		return "AGENT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategoryWrite indicates a provisioning attribute write.
	CategoryWrite Category = 1
	// CategoryPresence indicates a LAN presence change.
	CategoryPresence Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryWrite:
		return "WRITE"
	case CategoryPresence:
		return "PRESENCE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityLink indicates a network link state change.
	StateEntityLink StateEntity = 0
	// StateEntityClient indicates a provisioning client came or went.
	StateEntityClient StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityLink:
		return "LINK"
	case StateEntityClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures link and client-presence transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`

	// Address is the assigned network address, set when a link comes up.
	Address string `cbor:"5,keyasint,omitempty"`
}

// WriteEvent captures a provisioning attribute write. The value itself is
// never recorded, only its size.
type WriteEvent struct {
	// Attribute is the written attribute's name.
	Attribute string `cbor:"1,keyasint"`

	// Size is the value size in bytes.
	Size int `cbor:"2,keyasint"`

	// Rejected indicates the write failed validation.
	Rejected bool `cbor:"3,keyasint,omitempty"`

	// Reason describes why the write was rejected.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// PresenceEvent captures the LAN announcement being raised or withdrawn.
type PresenceEvent struct {
	// Instance is the announced instance name.
	Instance string `cbor:"1,keyasint"`

	// Announced is true when the announcement was raised, false when
	// withdrawn.
	Announced bool `cbor:"2,keyasint"`
}

// ErrorEventData captures errors from any source.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Op describes what operation was being performed.
	Op string `cbor:"2,keyasint,omitempty"`
}
