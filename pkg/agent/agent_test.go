package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wisp-protocol/wisp-go/pkg/creds"
	"github.com/wisp-protocol/wisp-go/pkg/discovery/mocks"
	"github.com/wisp-protocol/wisp-go/pkg/indicator"
	"github.com/wisp-protocol/wisp-go/pkg/log"
	"github.com/wisp-protocol/wisp-go/pkg/provision"
	"github.com/wisp-protocol/wisp-go/pkg/state"
	"github.com/wisp-protocol/wisp-go/pkg/station"
)

// eventRecorder captures agent events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) handle(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *eventRecorder) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *eventRecorder) first(t EventType) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Type == t {
			return e, true
		}
	}
	return Event{}, false
}

// logRecorder captures structured log events.
type logRecorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *logRecorder) Log(event log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *logRecorder) all() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]log.Event(nil), r.events...)
}

// testConfig returns a config with fast supervision timing.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DeviceName = "Test Device"
	cfg.Serial = "WSP-TEST"
	cfg.Model = "Wisp Mini"
	cfg.Firmware = "1.0.0"
	cfg.EnablePresence = false
	cfg.Station = station.Config{
		JoinTimeout:    500 * time.Millisecond,
		Cooldown:       200 * time.Millisecond,
		HealthInterval: station.MinHealthInterval,
		PollInterval:   10 * time.Millisecond,
		IdleInterval:   10 * time.Millisecond,
	}
	cfg.Indicator = indicator.Config{
		PollInterval: 10 * time.Millisecond,
	}
	return cfg
}

type testDevice struct {
	agent      *Agent
	peripheral *provision.SimPeripheral
	radio      *station.SimRadio
	storage    *creds.MemStorage
	output     *indicator.SimOutput
	events     *eventRecorder
	logs       *logRecorder
}

// newTestDevice builds a started agent over sims and in-memory storage.
func newTestDevice(t *testing.T, cfg Config, mutate func(*Deps)) *testDevice {
	t.Helper()

	d := &testDevice{
		peripheral: provision.NewSimPeripheral(),
		radio:      station.NewSimRadio(),
		storage:    creds.NewMemStorage(),
		output:     indicator.NewSimOutput(),
		events:     &eventRecorder{},
		logs:       &logRecorder{},
	}

	deps := Deps{
		Peripheral: d.peripheral,
		Radio:      d.radio,
		Output:     d.output,
		Storage:    d.storage,
		Logger:     d.logs,
	}
	if mutate != nil {
		mutate(&deps)
	}

	a, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d.agent = a
	a.OnEvent(d.events.handle)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop() })

	return d
}

// waitFor polls until cond holds or the deadline expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestAgentStartStop(t *testing.T) {
	d := newTestDevice(t, testConfig(), nil)

	if got := d.agent.State(); got != StateRunning {
		t.Fatalf("state after Start = %s, want RUNNING", got)
	}
	if !d.peripheral.Advertising() {
		t.Error("peripheral should be advertising after Start")
	}

	if err := d.agent.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if got := d.agent.State(); got != StateStopped {
		t.Fatalf("state after Stop = %s, want STOPPED", got)
	}

	// Stop is idempotent.
	if err := d.agent.Stop(); err != nil {
		t.Fatalf("second Stop = %v, want nil", err)
	}
}

func TestAgentStartTwice(t *testing.T) {
	d := newTestDevice(t, testConfig(), nil)

	if err := d.agent.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestAgentUnconfiguredBootStaysIdle(t *testing.T) {
	d := newTestDevice(t, testConfig(), nil)

	// Give the supervisor a few idle cycles.
	time.Sleep(50 * time.Millisecond)

	snap := d.agent.Snapshot()
	if snap.Link != state.LinkIdle {
		t.Errorf("link = %s, want IDLE", snap.Link)
	}
	if snap.NameConfigured || snap.SecretConfigured {
		t.Error("fresh device should have no configured credentials")
	}
	if d.radio.Joins() != 0 {
		t.Errorf("joins = %d, want 0 without credentials", d.radio.Joins())
	}
}

func TestAgentBootWithStoredCredentials(t *testing.T) {
	storage := creds.NewMemStorage()
	store := creds.NewStore(storage)
	if _, err := store.Load(); err != nil {
		t.Fatalf("priming store: %v", err)
	}
	if err := store.Save(creds.FieldNetworkName, "homenet"); err != nil {
		t.Fatalf("saving name: %v", err)
	}
	if err := store.Save(creds.FieldNetworkSecret, "hunter2hunter2"); err != nil {
		t.Fatalf("saving secret: %v", err)
	}

	d := newTestDevice(t, testConfig(), func(deps *Deps) {
		deps.Storage = storage
	})
	addr := d.radio.AddNetwork("homenet", "hunter2hunter2")

	waitFor(t, "link connected", func() bool {
		return d.agent.Snapshot().Link == state.LinkConnected
	})

	snap := d.agent.Snapshot()
	if snap.Address != addr {
		t.Errorf("address = %q, want %q", snap.Address, addr)
	}
	if !snap.NameConfigured || !snap.SecretConfigured {
		t.Error("stored credentials should be reported configured")
	}

	if got, ok := d.events.first(EventAddressAssigned); !ok || got.Address != addr {
		t.Errorf("address event = %+v ok=%v, want address %q", got, ok, addr)
	}
}

func TestAgentProvisioningFlow(t *testing.T) {
	d := newTestDevice(t, testConfig(), nil)
	addr := d.radio.AddNetwork("homenet", "hunter2hunter2")

	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("ConnectClient failed: %v", err)
	}
	waitFor(t, "client connected event", func() bool {
		return d.events.count(EventClientConnected) == 1
	})

	if err := d.peripheral.WriteAttr(provision.AttrNetworkName, []byte("homenet")); err != nil {
		t.Fatalf("writing name: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkSecret, []byte("hunter2hunter2")); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	waitFor(t, "credential events", func() bool {
		return d.events.count(EventCredentialsUpdated) == 2
	})
	waitFor(t, "link connected", func() bool {
		return d.agent.Snapshot().Link == state.LinkConnected
	})

	if got := d.agent.Snapshot().Address; got != addr {
		t.Errorf("address = %q, want %q", got, addr)
	}

	if err := d.peripheral.DisconnectClient(); err != nil {
		t.Fatalf("DisconnectClient failed: %v", err)
	}
	waitFor(t, "client disconnected event", func() bool {
		return d.events.count(EventClientDisconnected) == 1
	})

	// Credential fields arrive in write order.
	var fields []creds.Field
	for _, e := range d.events.all() {
		if e.Type == EventCredentialsUpdated {
			fields = append(fields, e.Field)
		}
	}
	if len(fields) != 2 || fields[0] != creds.FieldNetworkName || fields[1] != creds.FieldNetworkSecret {
		t.Errorf("credential fields = %v, want [name secret]", fields)
	}
}

func TestAgentWriteRejected(t *testing.T) {
	d := newTestDevice(t, testConfig(), nil)

	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("ConnectClient failed: %v", err)
	}

	long := strings.Repeat("x", 64)
	err := d.peripheral.WriteAttr(provision.AttrNetworkName, []byte(long))
	if !errors.Is(err, provision.ErrValueTooLong) {
		t.Fatalf("oversize write = %v, want ErrValueTooLong", err)
	}

	waitFor(t, "write rejected event", func() bool {
		return d.events.count(EventWriteRejected) == 1
	})

	got, _ := d.events.first(EventWriteRejected)
	if got.Attribute != "network-name" {
		t.Errorf("rejected attribute = %q, want network-name", got.Attribute)
	}
	if got.Size != 64 {
		t.Errorf("rejected size = %d, want 64", got.Size)
	}
	if !errors.Is(got.Err, provision.ErrValueTooLong) {
		t.Errorf("rejected reason = %v, want ErrValueTooLong", got.Err)
	}

	// Nothing reached the store.
	if d.storage.Commits() != 0 {
		t.Errorf("commits = %d, want 0 after rejected write", d.storage.Commits())
	}
}

func TestAgentStorageError(t *testing.T) {
	d := newTestDevice(t, testConfig(), nil)
	d.storage.FailCommit = errors.New("flash wear")

	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("ConnectClient failed: %v", err)
	}

	err := d.peripheral.WriteAttr(provision.AttrNetworkName, []byte("homenet"))
	if !errors.Is(err, creds.ErrCommitFailed) {
		t.Fatalf("write with failing commit = %v, want ErrCommitFailed", err)
	}

	waitFor(t, "storage error event", func() bool {
		return d.events.count(EventStorageError) == 1
	})

	got, _ := d.events.first(EventStorageError)
	if !errors.Is(got.Err, creds.ErrCommitFailed) {
		t.Errorf("storage error = %v, want ErrCommitFailed", got.Err)
	}
}

func TestAgentPresenceLifecycle(t *testing.T) {
	advertiser := mocks.NewMockAdvertiser(t)
	advertiser.EXPECT().Announce(mock.Anything).Return(nil).Once()
	advertiser.EXPECT().Withdraw().Return(nil).Once()

	cfg := testConfig()
	cfg.EnablePresence = true
	cfg.PresencePort = 8442

	d := newTestDevice(t, cfg, func(deps *Deps) {
		deps.Advertiser = advertiser
	})
	d.radio.AddNetwork("homenet", "hunter2hunter2")

	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("ConnectClient failed: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkName, []byte("homenet")); err != nil {
		t.Fatalf("writing name: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkSecret, []byte("hunter2hunter2")); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	waitFor(t, "presence announced", func() bool {
		return d.events.count(EventPresenceAnnounced) == 1
	})

	got, _ := d.events.first(EventPresenceAnnounced)
	if got.Instance != "Test Device" {
		t.Errorf("announced instance = %q, want device name", got.Instance)
	}
	if !d.agent.Snapshot().Announced {
		t.Error("snapshot should report announced")
	}

	// Drop the link and kick: the supervisor leaves CONNECTED and the
	// announcement comes down.
	d.radio.Drop()
	d.agent.Kick()

	waitFor(t, "presence withdrawn", func() bool {
		return d.events.count(EventPresenceWithdrawn) == 1
	})
	if d.agent.Snapshot().Announced {
		t.Error("snapshot should report withdrawn")
	}
}

func TestAgentPresenceDisabledWithoutAdvertiser(t *testing.T) {
	cfg := testConfig()
	cfg.EnablePresence = true

	// No advertiser dep: presence stays off, connecting must still work.
	d := newTestDevice(t, cfg, nil)
	d.radio.AddNetwork("homenet", "hunter2hunter2")

	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("ConnectClient failed: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkName, []byte("homenet")); err != nil {
		t.Fatalf("writing name: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkSecret, []byte("hunter2hunter2")); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	waitFor(t, "link connected", func() bool {
		return d.agent.Snapshot().Link == state.LinkConnected
	})

	if d.events.count(EventPresenceAnnounced) != 0 {
		t.Error("presence events should not fire without an advertiser")
	}
	if d.agent.Snapshot().Announced {
		t.Error("snapshot should not report announced")
	}
}

func TestAgentEventLogRecords(t *testing.T) {
	d := newTestDevice(t, testConfig(), nil)
	d.radio.AddNetwork("homenet", "hunter2hunter2")

	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("ConnectClient failed: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkName, []byte("homenet")); err != nil {
		t.Fatalf("writing name: %v", err)
	}

	waitFor(t, "write log record", func() bool {
		for _, e := range d.logs.all() {
			if e.Category == log.CategoryWrite {
				return true
			}
		}
		return false
	})

	for _, e := range d.logs.all() {
		if e.Device != "Test Device" {
			t.Errorf("log event device = %q, want Test Device", e.Device)
		}
		if e.Timestamp.IsZero() {
			t.Error("log event missing timestamp")
		}
		if e.Category == log.CategoryWrite {
			if e.Write == nil {
				t.Fatal("write event missing payload")
			}
			if e.Write.Attribute != "network-name" {
				t.Errorf("write attribute = %q, want network-name", e.Write.Attribute)
			}
			if e.Write.Size != len("homenet") {
				t.Errorf("write size = %d, want %d", e.Write.Size, len("homenet"))
			}
		}
	}
}

func TestAgentSnapshotBeforeStart(t *testing.T) {
	a, err := New(testConfig(), Deps{
		Peripheral: provision.NewSimPeripheral(),
		Radio:      station.NewSimRadio(),
		Storage:    creds.NewMemStorage(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	snap := a.Snapshot()
	if snap != (Snapshot{}) {
		t.Errorf("snapshot before Start = %+v, want zero", snap)
	}
	if got := a.State(); got != StateIdle {
		t.Errorf("state before Start = %s, want IDLE", got)
	}
}

func TestAgentConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing device name", func(c *Config) { c.DeviceName = "" }},
		{"device name too long", func(c *Config) { c.DeviceName = strings.Repeat("x", 64) }},
		{"presence without serial", func(c *Config) { c.EnablePresence = true; c.Serial = "" }},
		{"port out of range", func(c *Config) { c.PresencePort = 70000 }},
		{"bad health interval", func(c *Config) { c.Station.HealthInterval = time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestAgentMissingDeps(t *testing.T) {
	cfg := testConfig()

	if _, err := New(cfg, Deps{Radio: station.NewSimRadio()}); !errors.Is(err, ErrMissingDep) {
		t.Errorf("New without peripheral = %v, want ErrMissingDep", err)
	}
	if _, err := New(cfg, Deps{Peripheral: provision.NewSimPeripheral()}); !errors.Is(err, ErrMissingDep) {
		t.Errorf("New without radio = %v, want ErrMissingDep", err)
	}
}
