package agent

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/wisp-protocol/wisp-go/pkg/creds"
	"github.com/wisp-protocol/wisp-go/pkg/discovery"
	"github.com/wisp-protocol/wisp-go/pkg/indicator"
	"github.com/wisp-protocol/wisp-go/pkg/log"
	"github.com/wisp-protocol/wisp-go/pkg/provision"
	"github.com/wisp-protocol/wisp-go/pkg/state"
	"github.com/wisp-protocol/wisp-go/pkg/station"
)

// Agent errors.
var (
	ErrNotStarted     = errors.New("agent not started")
	ErrAlreadyStarted = errors.New("agent already started")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingDep     = errors.New("missing dependency")
)

// AgentState represents the agent lifecycle state.
type AgentState uint8

const (
	// StateIdle - agent created but not started.
	StateIdle AgentState = iota

	// StateStarting - agent is starting up.
	StateStarting

	// StateRunning - agent is running normally.
	StateRunning

	// StateStopping - agent is shutting down.
	StateStopping

	// StateStopped - agent has stopped.
	StateStopped
)

// String returns the state name.
func (s AgentState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config configures an Agent.
type Config struct {
	// DeviceName is the user-facing device name. Required. It seeds the
	// readable network-name surface and names the LAN announcement.
	DeviceName string

	// Serial is the device serial number. Required when presence is
	// enabled; it goes into the announcement TXT records.
	Serial string

	// Model is the device model name.
	Model string

	// Firmware is the firmware version.
	Firmware string

	// LED names the sysfs LED backing the status indicator. Used only
	// when no Output dependency is provided; "sim" or empty selects the
	// in-memory output.
	LED string

	// StoragePath is the credential store file. Used only when no
	// Storage dependency is provided.
	StoragePath string

	// Station holds the supervisor timing parameters.
	Station station.Config

	// Indicator holds the status indicator timing parameters.
	Indicator indicator.Config

	// EnablePresence announces the device on the LAN while the link is
	// up. Requires an Advertiser dependency to take effect.
	EnablePresence bool

	// PresencePort is the application port named in the announcement.
	// Zero falls back to the discovery default.
	PresencePort int

	// Debug is the optional logger for debug output.
	// If nil, debug logging is disabled.
	Debug *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LED:            "sim",
		StoragePath:    "wisp-device.creds",
		Station:        station.DefaultConfig(),
		Indicator:      indicator.DefaultConfig(),
		EnablePresence: true,
		PresencePort:   discovery.DefaultPort,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if err := discovery.ValidateInstanceName(c.DeviceName); err != nil {
		return fmt.Errorf("%w: device name: %v", ErrInvalidConfig, err)
	}
	if c.EnablePresence && c.Serial == "" {
		return fmt.Errorf("%w: serial required when presence is enabled", ErrInvalidConfig)
	}
	if c.PresencePort < 0 || c.PresencePort > 65535 {
		return fmt.Errorf("%w: presence port %d out of range", ErrInvalidConfig, c.PresencePort)
	}
	if err := c.Station.Validate(); err != nil {
		return fmt.Errorf("%w: station: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Deps carries the hardware and infrastructure seams an Agent runs over.
type Deps struct {
	// Peripheral is the provisioning radio stack. Required.
	Peripheral provision.Peripheral

	// Radio is the network interface the supervisor drives. Required.
	Radio station.Radio

	// Output is the status light. If nil, one is built from Config.LED.
	Output indicator.Output

	// Advertiser publishes the LAN announcement.
	// If nil, presence is disabled.
	Advertiser discovery.Advertiser

	// Storage backs the credential store. If nil, a file store is opened
	// at Config.StoragePath.
	Storage creds.Storage

	// Logger receives structured device events. If nil, events are
	// discarded.
	Logger log.Logger
}

// validate checks the required seams are present.
func (d *Deps) validate() error {
	if d.Peripheral == nil {
		return fmt.Errorf("%w: peripheral", ErrMissingDep)
	}
	if d.Radio == nil {
		return fmt.Errorf("%w: radio", ErrMissingDep)
	}
	return nil
}

// Event types for agent callbacks.
type EventType uint8

const (
	// EventClientConnected - a provisioning client connected.
	EventClientConnected EventType = iota

	// EventClientDisconnected - the provisioning client went away.
	EventClientDisconnected

	// EventCredentialsUpdated - a credential field was written and stored.
	EventCredentialsUpdated

	// EventWriteRejected - a provisioning write failed validation.
	EventWriteRejected

	// EventLinkChanged - the network link changed state.
	EventLinkChanged

	// EventAddressAssigned - the link came up with a network address.
	EventAddressAssigned

	// EventPresenceAnnounced - the LAN announcement was raised.
	EventPresenceAnnounced

	// EventPresenceWithdrawn - the LAN announcement was withdrawn.
	EventPresenceWithdrawn

	// EventStorageError - the credential store failed to persist a write.
	EventStorageError
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventClientConnected:
		return "CLIENT_CONNECTED"
	case EventClientDisconnected:
		return "CLIENT_DISCONNECTED"
	case EventCredentialsUpdated:
		return "CREDENTIALS_UPDATED"
	case EventWriteRejected:
		return "WRITE_REJECTED"
	case EventLinkChanged:
		return "LINK_CHANGED"
	case EventAddressAssigned:
		return "ADDRESS_ASSIGNED"
	case EventPresenceAnnounced:
		return "PRESENCE_ANNOUNCED"
	case EventPresenceWithdrawn:
		return "PRESENCE_WITHDRAWN"
	case EventStorageError:
		return "STORAGE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event represents an agent event. Only the fields relevant to the event
// type are set. Credential values never appear in events, only field
// identities and sizes.
type Event struct {
	// Type is the event type.
	Type EventType

	// Field is the credential field (for credential events).
	Field creds.Field

	// Attribute is the written attribute's name (for write events).
	Attribute string

	// Size is the value size in bytes (for write events).
	Size int

	// OldLink and NewLink are the transition endpoints (for link events).
	OldLink state.Link
	NewLink state.Link

	// Reason describes the transition (for link events).
	Reason string

	// Address is the assigned network address (for address events).
	Address string

	// Instance is the announced instance name (for presence events).
	Instance string

	// Err is set if the event reports an error.
	Err error
}

// EventHandler handles agent events. Handlers run synchronously on the
// goroutine that produced the event, in registration order; they should
// return quickly.
type EventHandler func(Event)

// Snapshot is a point-in-time view of the device for consoles and
// diagnostics. Configured fields report presence only, never values.
type Snapshot struct {
	// Link is the current link state.
	Link state.Link

	// ClientPresent reports whether a provisioning client is connected.
	ClientPresent bool

	// Address is the assigned network address, empty unless connected.
	Address string

	// NameConfigured reports whether a network name is stored.
	NameConfigured bool

	// SecretConfigured reports whether a network secret is stored.
	SecretConfigured bool

	// Announced reports whether the LAN announcement is live.
	Announced bool

	// Attempts is the number of join attempts since boot.
	Attempts int
}
