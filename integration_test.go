package wisp_test

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wisp-protocol/wisp-go/pkg/agent"
	"github.com/wisp-protocol/wisp-go/pkg/creds"
	"github.com/wisp-protocol/wisp-go/pkg/discovery"
	"github.com/wisp-protocol/wisp-go/pkg/indicator"
	"github.com/wisp-protocol/wisp-go/pkg/log"
	"github.com/wisp-protocol/wisp-go/pkg/provision"
	"github.com/wisp-protocol/wisp-go/pkg/state"
	"github.com/wisp-protocol/wisp-go/pkg/station"
)

// TestE2E_FactoryBoot tests that a device booting over empty storage idles
// on the provisioning surface: advertising, slow blink, no join attempts.
func TestE2E_FactoryBoot(t *testing.T) {
	d := startDevice(t, fastConfig(), nil)

	// Give the supervisor a few idle cycles.
	time.Sleep(100 * time.Millisecond)

	snap := d.agent.Snapshot()
	if snap.Link != state.LinkIdle {
		t.Errorf("Link = %s, want IDLE", snap.Link)
	}
	if snap.NameConfigured || snap.SecretConfigured {
		t.Error("Factory-fresh device should have no configured credentials")
	}
	if !d.peripheral.Advertising() {
		t.Error("Device should be advertising for provisioning clients")
	}
	if d.radio.Joins() != 0 {
		t.Errorf("Joins = %d, want 0 without credentials", d.radio.Joins())
	}
	if d.storage.Commits() != 0 {
		t.Errorf("Commits = %d, want 0 on a fresh boot", d.storage.Commits())
	}

	// No link and no client: the indicator keeps blinking slowly.
	if got := indicator.PatternFor(snap.Link, snap.ClientPresent); got != indicator.BlinkSlow {
		t.Errorf("Pattern = %s, want BLINK_SLOW", got)
	}
	before := d.output.Transitions()
	time.Sleep(400 * time.Millisecond)
	if after := d.output.Transitions(); after <= before {
		t.Errorf("Indicator stopped blinking: transitions %d -> %d", before, after)
	}
}

// TestE2E_ProvisioningFlow walks the full provisioning path: a client
// connects, writes both credentials, the device joins the network, and the
// stored credentials reconnect it after a reboot with no client around.
func TestE2E_ProvisioningFlow(t *testing.T) {
	cfg := fastConfig()
	d := startDevice(t, cfg, nil)
	addr := d.radio.AddNetwork("homenet", "supersecret")

	// Client connects: the session claims the advertiser and the indicator
	// switches to the fast blink.
	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("Failed to connect client: %v", err)
	}
	if d.peripheral.Advertising() {
		t.Error("Advertising should pause while a client is connected")
	}
	waitFor(t, time.Second, "client present", func() bool {
		return d.agent.Snapshot().ClientPresent
	})
	snap := d.agent.Snapshot()
	if got := indicator.PatternFor(snap.Link, snap.ClientPresent); got != indicator.BlinkFast {
		t.Errorf("Pattern with client = %s, want BLINK_FAST", got)
	}

	// Both writes land in storage and wake the supervisor.
	if err := d.peripheral.WriteAttr(provision.AttrNetworkName, []byte("homenet")); err != nil {
		t.Fatalf("Failed to write network name: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkSecret, []byte("supersecret")); err != nil {
		t.Fatalf("Failed to write network secret: %v", err)
	}
	if got := d.storage.Commits(); got != 2 {
		t.Errorf("Commits = %d, want 2 after both writes", got)
	}

	waitFor(t, 3*time.Second, "link connected", func() bool {
		return d.agent.Snapshot().Link == state.LinkConnected
	})

	snap = d.agent.Snapshot()
	if snap.Address != addr {
		t.Errorf("Address = %q, want %q", snap.Address, addr)
	}
	if !snap.NameConfigured || !snap.SecretConfigured {
		t.Error("Snapshot should report both credentials configured")
	}
	waitFor(t, time.Second, "steady indicator", func() bool {
		return d.output.Level()
	})

	// Client done: advertising resumes, the link stays up.
	if err := d.peripheral.DisconnectClient(); err != nil {
		t.Fatalf("Failed to disconnect client: %v", err)
	}
	waitFor(t, time.Second, "advertising resumed", func() bool {
		return d.peripheral.Advertising()
	})
	if got := d.agent.Snapshot().Link; got != state.LinkConnected {
		t.Errorf("Link after client left = %s, want CONNECTED", got)
	}

	joinsBefore := d.radio.Joins()

	// Reboot: a fresh agent over the same storage and radio reconnects on
	// its own.
	if err := d.agent.Stop(); err != nil {
		t.Fatalf("Failed to stop agent: %v", err)
	}

	reboot, err := agent.New(cfg, agent.Deps{
		Peripheral: provision.NewSimPeripheral(),
		Radio:      d.radio,
		Output:     indicator.NewSimOutput(),
		Storage:    d.storage,
	})
	if err != nil {
		t.Fatalf("Failed to create rebooted agent: %v", err)
	}
	if err := reboot.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start rebooted agent: %v", err)
	}
	defer reboot.Stop()

	waitFor(t, 3*time.Second, "reconnect after reboot", func() bool {
		return reboot.Snapshot().Link == state.LinkConnected
	})
	if got := reboot.Snapshot().Address; got != addr {
		t.Errorf("Address after reboot = %q, want %q", got, addr)
	}
	if d.radio.Joins() <= joinsBefore {
		t.Error("Reboot should have started a fresh join attempt")
	}

	t.Logf("Provisioning flow successful - connected at %s, credentials survived reboot", addr)
}

// TestE2E_ClientAbandon tests a client that connects and leaves without
// writing anything: advertising resumes and nothing else changes.
func TestE2E_ClientAbandon(t *testing.T) {
	d := startDevice(t, fastConfig(), nil)

	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("Failed to connect client: %v", err)
	}
	waitFor(t, time.Second, "client present", func() bool {
		return d.agent.Snapshot().ClientPresent
	})
	if d.peripheral.Advertising() {
		t.Error("Advertising should pause during the session")
	}
	snap := d.agent.Snapshot()
	if got := indicator.PatternFor(snap.Link, snap.ClientPresent); got != indicator.BlinkFast {
		t.Errorf("Pattern with client = %s, want BLINK_FAST", got)
	}

	if err := d.peripheral.DisconnectClient(); err != nil {
		t.Fatalf("Failed to disconnect client: %v", err)
	}
	waitFor(t, time.Second, "advertising resumed", func() bool {
		return d.peripheral.Advertising()
	})

	snap = d.agent.Snapshot()
	if snap.Link != state.LinkIdle {
		t.Errorf("Link = %s, want IDLE untouched", snap.Link)
	}
	if snap.NameConfigured || snap.SecretConfigured {
		t.Error("No credentials should be stored after an abandoned session")
	}
	if d.radio.Joins() != 0 {
		t.Errorf("Joins = %d, want 0", d.radio.Joins())
	}
	if d.storage.Commits() != 0 {
		t.Errorf("Commits = %d, want 0", d.storage.Commits())
	}
	if got := d.peripheral.AdvertisingStarts(); got != 2 {
		t.Errorf("Advertising starts = %d, want 2 (boot and resume)", got)
	}
	if got := indicator.PatternFor(snap.Link, snap.ClientPresent); got != indicator.BlinkSlow {
		t.Errorf("Pattern after abandon = %s, want BLINK_SLOW", got)
	}
}

// TestE2E_ReprovisionDuringBackoff tests that fresh credentials written
// while the device waits out a failed attempt trigger an immediate retry
// instead of running out the cooldown.
func TestE2E_ReprovisionDuringBackoff(t *testing.T) {
	cfg := fastConfig()
	cfg.Station.JoinTimeout = 300 * time.Millisecond
	// Long enough that waiting it out would fail the test.
	cfg.Station.Cooldown = 10 * time.Second

	// Boot with stored credentials for a network that is not there.
	storage := creds.NewMemStorage()
	store := creds.NewStore(storage)
	if _, err := store.Load(); err != nil {
		t.Fatalf("Failed to prime store: %v", err)
	}
	if err := store.Save(creds.FieldNetworkName, "oldnet"); err != nil {
		t.Fatalf("Failed to save name: %v", err)
	}
	if err := store.Save(creds.FieldNetworkSecret, "oldsecret"); err != nil {
		t.Fatalf("Failed to save secret: %v", err)
	}

	d := startDevice(t, cfg, func(deps *agent.Deps) {
		deps.Storage = storage
	})
	rec := &linkRecorder{}
	d.agent.OnEvent(rec.handle)

	addr := d.radio.AddNetwork("homenet", "supersecret")

	waitFor(t, 3*time.Second, "backoff after failed attempt", func() bool {
		return d.agent.Snapshot().Link == state.LinkBackoff
	})

	// Re-provision mid-cooldown.
	start := time.Now()
	provisionDevice(t, d, "homenet", "supersecret")

	waitFor(t, 5*time.Second, "reconnect with fresh credentials", func() bool {
		return d.agent.Snapshot().Link == state.LinkConnected
	})
	elapsed := time.Since(start)
	if elapsed >= cfg.Station.Cooldown {
		t.Errorf("Reconnect took %v, should not wait out the %v cooldown", elapsed, cfg.Station.Cooldown)
	}

	if got := d.agent.Snapshot().Address; got != addr {
		t.Errorf("Address = %q, want %q", got, addr)
	}

	// The backoff was cut short by the credential write.
	cut := false
	for _, e := range rec.all() {
		if e.from == state.LinkBackoff && e.to == state.LinkConnecting && e.reason == "credentials updated" {
			cut = true
		}
	}
	if !cut {
		t.Error("Expected a credentials-updated transition out of backoff")
	}

	t.Logf("Re-provision successful - reconnected in %v with %v cooldown pending", elapsed, cfg.Station.Cooldown)
}

// TestE2E_OutageRecovery drives the device through a network outage: the
// health check notices the dead link, retry attempts time out into the
// fixed cooldown, and the device reconnects once the network returns.
func TestE2E_OutageRecovery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := fastConfig()
	d := startDevice(t, cfg, nil)
	addr := d.radio.AddNetwork("homenet", "supersecret")

	rec := &linkRecorder{}
	d.agent.OnEvent(rec.handle)

	provisionDevice(t, d, "homenet", "supersecret")
	waitFor(t, 3*time.Second, "initial connect", func() bool {
		return d.agent.Snapshot().Link == state.LinkConnected
	})

	// Take the network down. Nothing reacts until the next health check.
	d.radio.SetJoinable("homenet", false)
	d.radio.Drop()
	outageAt := time.Now()

	waitFor(t, cfg.Station.HealthInterval+5*time.Second, "health check to notice", func() bool {
		return d.agent.Snapshot().Link != state.LinkConnected
	})
	noticed := time.Since(outageAt)
	if noticed > cfg.Station.HealthInterval+2*time.Second {
		t.Errorf("Outage noticed after %v, want within one health interval (%v)", noticed, cfg.Station.HealthInterval)
	}

	// Attempts now cycle CONNECTING -> BACKOFF on the join timeout. Let a
	// couple complete.
	waitFor(t, 10*time.Second, "retry cycles", func() bool {
		count := 0
		for _, e := range rec.all() {
			if e.to == state.LinkBackoff {
				count++
			}
		}
		return count >= 2
	})

	// The pause between attempts is the fixed cooldown.
	var inBackoff, outBackoff time.Time
	for _, e := range rec.all() {
		if e.to == state.LinkBackoff && inBackoff.IsZero() {
			inBackoff = e.at
		} else if e.from == state.LinkBackoff && !inBackoff.IsZero() && outBackoff.IsZero() {
			outBackoff = e.at
		}
	}
	if inBackoff.IsZero() || outBackoff.IsZero() {
		t.Fatal("Missing backoff transitions")
	}
	pause := outBackoff.Sub(inBackoff)
	if pause < cfg.Station.Cooldown || pause > cfg.Station.Cooldown+time.Second {
		t.Errorf("Backoff pause = %v, want ~%v", pause, cfg.Station.Cooldown)
	}

	// The health check reported the loss.
	sawLinkLost := false
	for _, e := range rec.all() {
		if e.from == state.LinkConnected && e.reason == "link lost" {
			sawLinkLost = true
		}
	}
	if !sawLinkLost {
		t.Error("Expected a link-lost transition from the health check")
	}

	// Network returns: the next attempt lands.
	d.radio.SetJoinable("homenet", true)
	waitFor(t, 5*time.Second, "reconnect", func() bool {
		snap := d.agent.Snapshot()
		return snap.Link == state.LinkConnected && snap.Address == addr
	})

	t.Logf("Outage recovery successful - noticed in %v, backoff pause %v, reconnected at %s",
		noticed.Round(time.Millisecond), pause.Round(time.Millisecond), addr)
}

// TestE2E_EventLog runs a provisioning session against a device recording to
// a CBOR event log, then reads the file back through the filter API.
func TestE2E_EventLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "device.wlog")
	fileLogger, err := log.NewFileLogger(logPath)
	if err != nil {
		t.Fatalf("Failed to create event log: %v", err)
	}

	cfg := fastConfig()
	d := startDevice(t, cfg, func(deps *agent.Deps) {
		deps.Logger = fileLogger
	})
	addr := d.radio.AddNetwork("homenet", "supersecret")

	provisionDevice(t, d, "homenet", "supersecret")
	waitFor(t, 3*time.Second, "link connected", func() bool {
		return d.agent.Snapshot().Link == state.LinkConnected
	})

	if err := d.agent.Stop(); err != nil {
		t.Fatalf("Failed to stop agent: %v", err)
	}
	if err := fileLogger.Close(); err != nil {
		t.Fatalf("Failed to close event log: %v", err)
	}

	// The supervisor's transitions come back in order.
	src := log.SourceStation
	reader, err := log.NewFilteredReader(logPath, log.Filter{Source: &src})
	if err != nil {
		t.Fatalf("Failed to open event log: %v", err)
	}

	var transitions []*log.StateChangeEvent
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read event: %v", err)
		}
		if event.Device != cfg.DeviceName {
			t.Errorf("Event device = %q, want %q", event.Device, cfg.DeviceName)
		}
		if event.StateChange == nil {
			t.Fatalf("Station event missing state change: %+v", event)
		}
		transitions = append(transitions, event.StateChange)
	}
	reader.Close()

	if len(transitions) < 2 {
		t.Fatalf("Transitions = %d, want at least 2", len(transitions))
	}
	first := transitions[0]
	if first.OldState != "IDLE" || first.NewState != "CONNECTING" {
		t.Errorf("First transition = %s -> %s, want IDLE -> CONNECTING", first.OldState, first.NewState)
	}
	last := transitions[len(transitions)-1]
	if last.NewState != "CONNECTED" {
		t.Errorf("Last transition = %s -> %s, want -> CONNECTED", last.OldState, last.NewState)
	}
	if last.Address != addr {
		t.Errorf("Connected transition address = %q, want %q", last.Address, addr)
	}

	// Write records carry attribute names and sizes, never values.
	cat := log.CategoryWrite
	writeReader, err := log.NewFilteredReader(logPath, log.Filter{Category: &cat})
	if err != nil {
		t.Fatalf("Failed to open event log: %v", err)
	}
	defer writeReader.Close()

	writes := 0
	for {
		event, err := writeReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read event: %v", err)
		}
		if event.Write == nil {
			t.Fatalf("Write event missing payload: %+v", event)
		}
		switch event.Write.Attribute {
		case "network-name":
			if event.Write.Size != len("homenet") {
				t.Errorf("Name write size = %d, want %d", event.Write.Size, len("homenet"))
			}
		case "network-secret":
			if event.Write.Size != len("supersecret") {
				t.Errorf("Secret write size = %d, want %d", event.Write.Size, len("supersecret"))
			}
		default:
			t.Errorf("Unexpected write attribute %q", event.Write.Attribute)
		}
		writes++
	}
	if writes != 2 {
		t.Errorf("Writes = %d, want 2", writes)
	}

	t.Logf("Event log pipeline successful - %d transitions, %d writes recorded", len(transitions), writes)
}

// TestE2E_Presence announces the device over real mDNS once the link comes
// up and withdraws the announcement at shutdown.
func TestE2E_Presence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	advertiser, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	if err != nil {
		t.Fatalf("Failed to create advertiser: %v", err)
	}

	cfg := fastConfig()
	cfg.EnablePresence = true
	cfg.PresencePort = discovery.DefaultPort

	d := startDevice(t, cfg, func(deps *agent.Deps) {
		deps.Advertiser = advertiser
	})
	d.radio.AddNetwork("homenet", "supersecret")

	var mu sync.Mutex
	var announced, withdrawn []string
	d.agent.OnEvent(func(e agent.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch e.Type {
		case agent.EventPresenceAnnounced:
			announced = append(announced, e.Instance)
		case agent.EventPresenceWithdrawn:
			withdrawn = append(withdrawn, e.Instance)
		}
	})

	provisionDevice(t, d, "homenet", "supersecret")
	waitFor(t, 5*time.Second, "presence announced", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(announced) > 0
	})

	if !d.agent.Snapshot().Announced {
		t.Error("Snapshot should report the announcement live")
	}
	mu.Lock()
	if len(announced) != 1 || announced[0] != cfg.DeviceName {
		t.Errorf("Announced instances = %v, want [%s]", announced, cfg.DeviceName)
	}
	mu.Unlock()

	// Shutdown withdraws the announcement.
	if err := d.agent.Stop(); err != nil {
		t.Fatalf("Failed to stop agent: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(withdrawn) != 1 {
		t.Errorf("Withdrawn count = %d, want 1", len(withdrawn))
	}

	t.Logf("Presence lifecycle successful - announced and withdrew %q", cfg.DeviceName)
}

// Helper functions

// testDevice bundles a started agent with its simulated hardware.
type testDevice struct {
	agent      *agent.Agent
	peripheral *provision.SimPeripheral
	radio      *station.SimRadio
	storage    *creds.MemStorage
	output     *indicator.SimOutput
}

// fastConfig returns an agent config with supervision timing scaled down for
// tests. The health interval stays at the operator minimum; outage tests
// account for it.
func fastConfig() agent.Config {
	cfg := agent.DefaultConfig()
	cfg.DeviceName = "E2E Device"
	cfg.Serial = "WSP-E2E-001"
	cfg.Model = "Wisp Reference Device"
	cfg.Firmware = "1.0.0"
	cfg.EnablePresence = false
	cfg.Station = station.Config{
		JoinTimeout:    500 * time.Millisecond,
		Cooldown:       300 * time.Millisecond,
		HealthInterval: station.MinHealthInterval,
		PollInterval:   10 * time.Millisecond,
		IdleInterval:   10 * time.Millisecond,
	}
	cfg.Indicator = indicator.Config{
		PollInterval: 10 * time.Millisecond,
		FastPeriod:   80 * time.Millisecond,
		SlowPeriod:   240 * time.Millisecond,
	}
	return cfg
}

// startDevice builds and starts an agent over simulated hardware. mutate may
// swap dependencies before the agent is created. The agent is stopped when
// the test ends.
func startDevice(t *testing.T, cfg agent.Config, mutate func(*agent.Deps)) *testDevice {
	t.Helper()

	d := &testDevice{
		peripheral: provision.NewSimPeripheral(),
		radio:      station.NewSimRadio(),
		storage:    creds.NewMemStorage(),
		output:     indicator.NewSimOutput(),
	}

	deps := agent.Deps{
		Peripheral: d.peripheral,
		Radio:      d.radio,
		Output:     d.output,
		Storage:    d.storage,
	}
	if mutate != nil {
		mutate(&deps)
	}

	dev, err := agent.New(cfg, deps)
	if err != nil {
		t.Fatalf("Failed to create agent: %v", err)
	}
	d.agent = dev

	if err := dev.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start agent: %v", err)
	}
	t.Cleanup(func() { _ = dev.Stop() })

	return d
}

// provisionDevice runs a provisioning session against the device: connect a
// client, write both credentials, disconnect.
func provisionDevice(t *testing.T, d *testDevice, name, secret string) {
	t.Helper()

	if err := d.peripheral.ConnectClient(); err != nil {
		t.Fatalf("Failed to connect client: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkName, []byte(name)); err != nil {
		t.Fatalf("Failed to write network name: %v", err)
	}
	if err := d.peripheral.WriteAttr(provision.AttrNetworkSecret, []byte(secret)); err != nil {
		t.Fatalf("Failed to write network secret: %v", err)
	}
	if err := d.peripheral.DisconnectClient(); err != nil {
		t.Fatalf("Failed to disconnect client: %v", err)
	}
}

// waitFor polls until cond holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timeout waiting for %s", what)
}

// linkEvent is one observed link transition and when it arrived.
type linkEvent struct {
	from, to state.Link
	reason   string
	at       time.Time
}

// linkRecorder captures link transitions from the agent event stream.
type linkRecorder struct {
	mu     sync.Mutex
	events []linkEvent
}

func (r *linkRecorder) handle(e agent.Event) {
	if e.Type != agent.EventLinkChanged {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, linkEvent{
		from:   e.OldLink,
		to:     e.NewLink,
		reason: e.Reason,
		at:     time.Now(),
	})
}

func (r *linkRecorder) all() []linkEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]linkEvent(nil), r.events...)
}
