package station

import (
	"context"
	"testing"
	"time"
)

func TestSimRadioJoinAndResolve(t *testing.T) {
	radio := NewSimRadio()
	addr := radio.AddNetwork("home", "hunter2")

	if radio.Connected() {
		t.Fatal("connected before any join")
	}

	if err := radio.Join(context.Background(), "home", "hunter2"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !radio.Connected() {
		t.Fatal("zero-latency join did not resolve")
	}
	if got := radio.Address(); got != addr {
		t.Errorf("address = %q, want %q", got, addr)
	}
}

func TestSimRadioWrongSecretNeverConnects(t *testing.T) {
	radio := NewSimRadio()
	radio.AddNetwork("home", "hunter2")

	if err := radio.Join(context.Background(), "home", "wrong"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if radio.Connected() {
		t.Error("join with a wrong secret resolved")
	}
	if radio.Address() != "" {
		t.Errorf("address = %q, want empty", radio.Address())
	}
}

func TestSimRadioUnknownNetworkNeverConnects(t *testing.T) {
	radio := NewSimRadio()

	if err := radio.Join(context.Background(), "nowhere", "x"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if radio.Connected() {
		t.Error("join against an unknown network resolved")
	}
}

func TestSimRadioLatency(t *testing.T) {
	radio := NewSimRadio()
	radio.AddNetwork("slow", "pw")
	radio.SetLatency("slow", 50*time.Millisecond)

	if err := radio.Join(context.Background(), "slow", "pw"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if radio.Connected() {
		t.Error("join resolved before the network's latency elapsed")
	}

	time.Sleep(70 * time.Millisecond)
	if !radio.Connected() {
		t.Error("join did not resolve after the latency elapsed")
	}
}

func TestSimRadioDrop(t *testing.T) {
	radio := NewSimRadio()
	radio.AddNetwork("home", "hunter2")

	if err := radio.Join(context.Background(), "home", "hunter2"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !radio.Connected() {
		t.Fatal("join did not resolve")
	}

	radio.Drop()
	if radio.Connected() {
		t.Error("still connected after Drop")
	}
	if radio.Address() != "" {
		t.Errorf("address = %q after Drop, want empty", radio.Address())
	}

	// A drop also discards any pending attempt: without a fresh Join the
	// radio must stay down.
	time.Sleep(20 * time.Millisecond)
	if radio.Connected() {
		t.Error("radio reconnected without a new join")
	}
}

func TestSimRadioSetJoinable(t *testing.T) {
	radio := NewSimRadio()
	radio.AddNetwork("home", "hunter2")
	radio.SetJoinable("home", false)

	if err := radio.Join(context.Background(), "home", "hunter2"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if radio.Connected() {
		t.Error("join resolved against an unreachable network")
	}

	// Flipping reachability back lets the pending attempt resolve.
	radio.SetJoinable("home", true)
	if !radio.Connected() {
		t.Error("pending attempt did not resolve after the network returned")
	}
}

func TestSimRadioJoinReplacesLink(t *testing.T) {
	radio := NewSimRadio()
	radio.AddNetwork("one", "a")
	two := radio.AddNetwork("two", "b")

	if err := radio.Join(context.Background(), "one", "a"); err != nil {
		t.Fatalf("Join one: %v", err)
	}
	if !radio.Connected() {
		t.Fatal("first join did not resolve")
	}

	if err := radio.Join(context.Background(), "two", "b"); err != nil {
		t.Fatalf("Join two: %v", err)
	}
	if !radio.Connected() {
		t.Fatal("second join did not resolve")
	}
	if got := radio.Address(); got != two {
		t.Errorf("address = %q, want %q", got, two)
	}
	if radio.Joins() != 2 {
		t.Errorf("Joins() = %d, want 2", radio.Joins())
	}
}
