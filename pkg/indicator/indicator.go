package indicator

import (
	"context"
	"sync"
	"time"

	"github.com/wisp-protocol/wisp-go/pkg/state"
)

// Pattern is what the LED should display.
type Pattern uint8

const (
	// SteadyOn indicates an established network link.
	SteadyOn Pattern = iota

	// BlinkFast indicates no link while a provisioning client is connected.
	BlinkFast

	// BlinkSlow indicates no link and no provisioning client.
	BlinkSlow
)

// String returns a human-readable pattern name.
func (p Pattern) String() string {
	switch p {
	case SteadyOn:
		return "STEADY_ON"
	case BlinkFast:
		return "BLINK_FAST"
	case BlinkSlow:
		return "BLINK_SLOW"
	default:
		return "UNKNOWN"
	}
}

// PatternFor derives the display pattern from the link state and client
// presence. An established link always shows steady on, regardless of any
// connected client.
func PatternFor(link state.Link, clientPresent bool) Pattern {
	if link == state.LinkConnected {
		return SteadyOn
	}
	if clientPresent {
		return BlinkFast
	}
	return BlinkSlow
}

// Output is the hardware seam: one binary light.
type Output interface {
	Set(on bool) error
}

// Indicator timing defaults.
const (
	// DefaultPollInterval is how often the shared state is re-read.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultFastPeriod is the full cycle length of the fast blink.
	DefaultFastPeriod = 300 * time.Millisecond

	// DefaultSlowPeriod is the full cycle length of the slow blink.
	DefaultSlowPeriod = 2000 * time.Millisecond
)

// Config holds the indicator timing parameters.
type Config struct {
	PollInterval time.Duration
	FastPeriod   time.Duration
	SlowPeriod   time.Duration
}

// DefaultConfig returns the default indicator timing.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		FastPeriod:   DefaultFastPeriod,
		SlowPeriod:   DefaultSlowPeriod,
	}
}

// Indicator runs the LED poll loop.
type Indicator struct {
	mu sync.RWMutex

	cfg    Config
	shared *state.Shared
	out    Output

	// Last level written, -1 before the first write.
	last int8

	onError func(error)
}

// New creates an indicator over the given shared state and output.
// Non-positive config fields fall back to the defaults.
func New(cfg Config, shared *state.Shared, out Output) *Indicator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = DefaultFastPeriod
	}
	if cfg.SlowPeriod <= 0 {
		cfg.SlowPeriod = DefaultSlowPeriod
	}

	return &Indicator{
		cfg:    cfg,
		shared: shared,
		out:    out,
		last:   -1,
	}
}

// OnError registers a callback for output write failures. Failures do not
// stop the loop; the write is retried on the next poll.
func (i *Indicator) OnError(fn func(error)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onError = fn
}

// Run polls until ctx is cancelled. Call it on its own goroutine.
func (i *Indicator) Run(ctx context.Context) {
	ticker := time.NewTicker(i.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.refresh(time.Now())
		}
	}
}

// refresh reads the shared state and drives the output for the given time.
func (i *Indicator) refresh(now time.Time) {
	snap := i.shared.Snapshot()
	pattern := PatternFor(snap.Link, snap.ClientPresent)

	on := i.level(pattern, now)
	want := int8(0)
	if on {
		want = 1
	}
	if i.last == want {
		return
	}

	if err := i.out.Set(on); err != nil {
		i.mu.RLock()
		fn := i.onError
		i.mu.RUnlock()
		if fn != nil {
			fn(err)
		}
		// Leave last untouched so the next poll retries.
		return
	}
	i.last = want
}

// level returns whether the output should be lit at time now.
func (i *Indicator) level(p Pattern, now time.Time) bool {
	switch p {
	case SteadyOn:
		return true
	case BlinkFast:
		return blinkPhase(now, i.cfg.FastPeriod)
	default:
		return blinkPhase(now, i.cfg.SlowPeriod)
	}
}

// blinkPhase is a wall-clock square wave: lit for the first half of each
// period. Deriving the phase from the clock instead of loop state keeps
// pattern switches visible within one poll.
func blinkPhase(now time.Time, period time.Duration) bool {
	half := int64(period / 2)
	return (now.UnixNano()/half)%2 == 0
}
