package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wisp-protocol/wisp-go/pkg/creds"
	"github.com/wisp-protocol/wisp-go/pkg/discovery"
	"github.com/wisp-protocol/wisp-go/pkg/indicator"
	"github.com/wisp-protocol/wisp-go/pkg/log"
	"github.com/wisp-protocol/wisp-go/pkg/provision"
	"github.com/wisp-protocol/wisp-go/pkg/state"
	"github.com/wisp-protocol/wisp-go/pkg/station"
)

// Agent orchestrates a wisp device: it owns the credential store, the
// provisioning surface, the connection supervisor, the status indicator,
// and the LAN presence, wiring their callbacks into one event stream.
type Agent struct {
	mu sync.RWMutex

	cfg   Config
	deps  Deps
	state AgentState

	// Built at Start
	storage    creds.Storage
	ownStorage bool
	store      *creds.Store
	shared     *state.Shared
	service    provision.Service
	prov       *provision.Provisioner
	supervisor *station.Supervisor
	indicator  *indicator.Indicator
	presence   *discovery.Presence

	// Event handlers
	eventHandlers []EventHandler

	// Structured event capture
	logger log.Logger

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an agent over the given dependencies. The store, supervisor,
// and provisioner are built at Start.
func New(cfg Config, deps Deps) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	return &Agent{
		cfg:    cfg,
		deps:   deps,
		state:  StateIdle,
		logger: logger,
	}, nil
}

// State returns the current agent state.
func (a *Agent) State() AgentState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// OnEvent registers an event handler. Handlers run synchronously in
// registration order on the goroutine that produced the event.
func (a *Agent) OnEvent(handler EventHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eventHandlers = append(a.eventHandlers, handler)
}

// Start brings the device up: load credentials, seed the shared state,
// start the provisioning surface (advertising begins), then run the
// supervisor and indicator. A device booting with configured credentials
// starts connecting on the first supervisor cycle.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateIdle && a.state != StateStopped {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.state = StateStarting
	a.mu.Unlock()

	storage, owned, err := a.openStorage()
	if err != nil {
		a.setState(StateIdle)
		return err
	}

	store := creds.NewStore(storage)
	credentials, err := store.Load()
	if err != nil {
		if owned {
			_ = closeFileStorage(storage)
		}
		a.setState(StateIdle)
		return err
	}

	shared := state.New()
	shared.SetCredentials(credentials)

	a.debugLog("credentials loaded",
		"nameConfigured", credentials.NetworkName != "",
		"secretConfigured", credentials.NetworkSecret != "")

	service := provision.ProvisioningService()
	prov := provision.New(service, a.deps.Peripheral, store, shared)
	supervisor := station.NewSupervisor(a.cfg.Station, a.deps.Radio, shared)
	prov.SetKicker(supervisor)
	ind := indicator.New(a.cfg.Indicator, shared, a.output())

	var presence *discovery.Presence
	if a.cfg.EnablePresence && a.deps.Advertiser != nil {
		presence = discovery.NewPresence(a.deps.Advertiser)
	}

	a.mu.Lock()
	a.storage = storage
	a.ownStorage = owned
	a.store = store
	a.shared = shared
	a.service = service
	a.prov = prov
	a.supervisor = supervisor
	a.indicator = ind
	a.presence = presence
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.mu.Unlock()

	a.wireCallbacks()

	if err := a.prov.Start(a.ctx); err != nil {
		if owned {
			_ = closeFileStorage(storage)
		}
		a.setState(StateIdle)
		return err
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.supervisor.Run(a.ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.indicator.Run(a.ctx)
	}()

	a.setState(StateRunning)
	a.debugLog("agent started", "device", a.cfg.DeviceName)
	return nil
}

// Stop shuts the device down: withdraw the announcement, stop the
// provisioning surface, and wait for the supervisor and indicator to
// finish. Stopping an agent that is not running is a no-op.
func (a *Agent) Stop() error {
	a.mu.Lock()
	if a.state != StateRunning {
		a.mu.Unlock()
		return nil
	}
	a.state = StateStopping
	a.mu.Unlock()

	a.cancel()
	a.withdrawPresence("shutdown")

	if err := a.prov.Stop(); err != nil && !errors.Is(err, provision.ErrNotRunning) {
		a.recordError(log.SourceProvision, "stop", err)
	}

	a.wg.Wait()

	if a.ownStorage {
		if err := closeFileStorage(a.storage); err != nil {
			a.recordError(log.SourceStorage, "close", err)
		}
		a.ownStorage = false
	}

	a.setState(StateStopped)
	a.debugLog("agent stopped", "device", a.cfg.DeviceName)
	return nil
}

// Snapshot returns a point-in-time view of the device.
func (a *Agent) Snapshot() Snapshot {
	a.mu.RLock()
	shared := a.shared
	supervisor := a.supervisor
	presence := a.presence
	a.mu.RUnlock()

	if shared == nil {
		return Snapshot{}
	}

	snap := shared.Snapshot()
	out := Snapshot{
		Link:             snap.Link,
		ClientPresent:    snap.ClientPresent,
		Address:          snap.Address,
		NameConfigured:   snap.Credentials.NetworkName != "",
		SecretConfigured: snap.Credentials.NetworkSecret != "",
	}
	if supervisor != nil {
		out.Attempts = supervisor.Attempts()
	}
	if presence != nil {
		out.Announced = presence.Announced()
	}
	return out
}

// Kick asks the supervisor to re-evaluate the credentials now. Exposed for
// the console; provisioning writes kick automatically.
func (a *Agent) Kick() {
	a.mu.RLock()
	supervisor := a.supervisor
	a.mu.RUnlock()

	if supervisor != nil {
		supervisor.Kick()
	}
}

// openStorage resolves the credential storage seam. The second return
// value reports whether the agent owns the storage and must close it.
func (a *Agent) openStorage() (creds.Storage, bool, error) {
	if a.deps.Storage != nil {
		return a.deps.Storage, false, nil
	}

	fs, err := creds.OpenFileStorage(a.cfg.StoragePath)
	if err != nil {
		return nil, false, err
	}
	return fs, true, nil
}

// closeFileStorage closes file-backed storage; other storage kinds have
// nothing to close.
func closeFileStorage(s creds.Storage) error {
	if fs, ok := s.(*creds.FileStorage); ok {
		return fs.Close()
	}
	return nil
}

// output resolves the indicator output seam.
func (a *Agent) output() indicator.Output {
	if a.deps.Output != nil {
		return a.deps.Output
	}
	if a.cfg.LED != "" && a.cfg.LED != "sim" {
		return indicator.NewSysfsLED(a.cfg.LED)
	}
	return indicator.NewSimOutput()
}

// wireCallbacks hooks the component callbacks into the event log and the
// agent event stream. Called once, before the goroutines start.
func (a *Agent) wireCallbacks() {
	a.prov.OnClientChange(func(present bool) {
		oldState, newState := "PRESENT", "ABSENT"
		if present {
			oldState, newState = "ABSENT", "PRESENT"
		}
		a.record(log.Event{
			Source:   log.SourceProvision,
			Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityClient,
				OldState: oldState,
				NewState: newState,
			},
		})

		if present {
			a.emit(Event{Type: EventClientConnected})
		} else {
			a.emit(Event{Type: EventClientDisconnected})
		}
	})

	a.prov.OnCredentialsUpdated(func(field creds.Field, size int) {
		a.record(log.Event{
			Source:   log.SourceProvision,
			Category: log.CategoryWrite,
			Write: &log.WriteEvent{
				Attribute: field.String(),
				Size:      size,
			},
		})
		a.emit(Event{Type: EventCredentialsUpdated, Field: field, Attribute: field.String(), Size: size})
	})

	a.prov.OnWriteRejected(func(attr uuid.UUID, size int, reason error) {
		name := a.attributeName(attr)
		a.record(log.Event{
			Source:   log.SourceProvision,
			Category: log.CategoryWrite,
			Write: &log.WriteEvent{
				Attribute: name,
				Size:      size,
				Rejected:  true,
				Reason:    reason.Error(),
			},
		})
		a.emit(Event{Type: EventWriteRejected, Attribute: name, Size: size, Err: reason})
	})

	a.prov.OnError(func(op string, err error) {
		source := log.SourceProvision
		if errors.Is(err, creds.ErrCommitFailed) {
			source = log.SourceStorage
		}
		a.recordError(source, op, err)

		if errors.Is(err, creds.ErrCommitFailed) {
			a.emit(Event{Type: EventStorageError, Err: err})
		}
	})

	a.supervisor.OnTransition(func(old, new state.Link, reason string) {
		addr := a.shared.Address()

		sc := &log.StateChangeEvent{
			Entity:   log.StateEntityLink,
			OldState: old.String(),
			NewState: new.String(),
			Reason:   reason,
		}
		if new == state.LinkConnected {
			sc.Address = addr
		}
		a.record(log.Event{
			Source:      log.SourceStation,
			Category:    log.CategoryState,
			StateChange: sc,
		})

		a.emit(Event{Type: EventLinkChanged, OldLink: old, NewLink: new, Reason: reason})

		if new == state.LinkConnected {
			a.emit(Event{Type: EventAddressAssigned, Address: addr})
			a.announcePresence()
		} else if old == state.LinkConnected {
			a.withdrawPresence(reason)
		}
	})

	a.indicator.OnError(func(err error) {
		a.recordError(log.SourceIndicator, "set", err)
	})
}

// attributeName resolves an attribute UUID to its short name.
func (a *Agent) attributeName(attr uuid.UUID) string {
	if att, ok := a.service.Attribute(attr); ok {
		return att.Name
	}
	return attr.String()
}

// presenceInfo builds the LAN announcement from the device identity.
func (a *Agent) presenceInfo() *discovery.Info {
	return &discovery.Info{
		InstanceName: a.cfg.DeviceName,
		Serial:       a.cfg.Serial,
		Model:        a.cfg.Model,
		Firmware:     a.cfg.Firmware,
		Port:         a.cfg.PresencePort,
	}
}

// announcePresence raises the LAN announcement. Failures are logged and
// retried on the next link-up.
func (a *Agent) announcePresence() {
	if a.presence == nil {
		return
	}

	info := a.presenceInfo()
	if err := a.presence.Announce(info); err != nil {
		a.recordError(log.SourceDiscovery, "announce", err)
		return
	}

	a.record(log.Event{
		Source:   log.SourceDiscovery,
		Category: log.CategoryPresence,
		Presence: &log.PresenceEvent{Instance: info.InstanceName, Announced: true},
	})
	a.emit(Event{Type: EventPresenceAnnounced, Instance: info.InstanceName})
}

// withdrawPresence removes the LAN announcement if it is live.
func (a *Agent) withdrawPresence(reason string) {
	if a.presence == nil || !a.presence.Announced() {
		return
	}

	instance := a.cfg.DeviceName
	if info := a.presence.Info(); info != nil {
		instance = info.InstanceName
	}

	if err := a.presence.Withdraw(); err != nil {
		a.recordError(log.SourceDiscovery, "withdraw", err)
		return
	}

	a.record(log.Event{
		Source:   log.SourceDiscovery,
		Category: log.CategoryPresence,
		Presence: &log.PresenceEvent{Instance: instance, Announced: false},
	})
	a.emit(Event{Type: EventPresenceWithdrawn, Instance: instance, Reason: reason})
}

// emit dispatches an event to all handlers, synchronously and in
// registration order.
func (a *Agent) emit(event Event) {
	a.mu.RLock()
	handlers := a.eventHandlers
	a.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// record timestamps and logs a structured event.
func (a *Agent) record(event log.Event) {
	event.Timestamp = time.Now()
	event.Device = a.cfg.DeviceName
	a.logger.Log(event)
}

// recordError logs an error event.
func (a *Agent) recordError(source log.Source, op string, err error) {
	a.record(log.Event{
		Source:   source,
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Message: err.Error(), Op: op},
	})
}

func (a *Agent) setState(s AgentState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *Agent) debugLog(msg string, args ...any) {
	if a.cfg.Debug != nil {
		a.cfg.Debug.Debug(msg, args...)
	}
}
