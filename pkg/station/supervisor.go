package station

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wisp-protocol/wisp-go/pkg/state"
)

// Supervision timing defaults.
const (
	// DefaultJoinTimeout is how long a join attempt may run before the
	// supervisor gives up on it.
	DefaultJoinTimeout = 10 * time.Second

	// DefaultCooldown is the fixed wait between failed attempts.
	DefaultCooldown = 20 * time.Second

	// DefaultHealthInterval is how often an established link is re-checked.
	DefaultHealthInterval = 10 * time.Second

	// DefaultPollInterval is how often a running attempt polls the radio.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultIdleInterval is how often the idle state re-checks for
	// configured credentials.
	DefaultIdleInterval = 500 * time.Millisecond
)

// Operator-facing bounds for the health interval.
const (
	MinHealthInterval = 10 * time.Second
	MaxHealthInterval = 30 * time.Second
)

// Config holds the supervisor timing parameters.
type Config struct {
	// JoinTimeout bounds a single join attempt.
	JoinTimeout time.Duration

	// Cooldown is the fixed wait after a failed attempt. It does not grow
	// across consecutive failures.
	Cooldown time.Duration

	// HealthInterval is the wait between link health checks.
	HealthInterval time.Duration

	// PollInterval is the wait between radio polls during an attempt.
	PollInterval time.Duration

	// IdleInterval is the wait between credential checks while idle.
	IdleInterval time.Duration
}

// DefaultConfig returns the default supervision timing.
func DefaultConfig() Config {
	return Config{
		JoinTimeout:    DefaultJoinTimeout,
		Cooldown:       DefaultCooldown,
		HealthInterval: DefaultHealthInterval,
		PollInterval:   DefaultPollInterval,
		IdleInterval:   DefaultIdleInterval,
	}
}

// Validate checks the configuration against the operator-facing bounds.
// The supervisor itself accepts any positive durations; this is for
// validating deployment configuration.
func (c Config) Validate() error {
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("join timeout must be positive, got %v", c.JoinTimeout)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be positive, got %v", c.Cooldown)
	}
	if c.HealthInterval < MinHealthInterval || c.HealthInterval > MaxHealthInterval {
		return fmt.Errorf("health interval must be between %v and %v, got %v",
			MinHealthInterval, MaxHealthInterval, c.HealthInterval)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.PollInterval > c.JoinTimeout {
		return fmt.Errorf("poll interval %v exceeds join timeout %v", c.PollInterval, c.JoinTimeout)
	}
	if c.IdleInterval <= 0 {
		return fmt.Errorf("idle interval must be positive, got %v", c.IdleInterval)
	}
	return nil
}

// TransitionFunc is called on every link state transition. Callbacks run on
// the supervisor goroutine and should return quickly.
type TransitionFunc func(old, new state.Link, reason string)

// Supervisor drives the link state machine. It owns the link field of the
// shared state; nothing else writes it.
type Supervisor struct {
	mu sync.RWMutex

	cfg    Config
	radio  Radio
	shared *state.Shared

	// Coalescing re-trigger, capacity 1.
	kickCh chan struct{}

	// Join attempts since boot, for logging and the console.
	attempts int

	onTransition TransitionFunc
}

// NewSupervisor creates a supervisor over the given radio and shared state.
// Non-positive config fields fall back to the defaults.
func NewSupervisor(cfg Config, radio Radio, shared *state.Shared) *Supervisor {
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultJoinTimeout
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = DefaultHealthInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = DefaultIdleInterval
	}

	return &Supervisor{
		cfg:    cfg,
		radio:  radio,
		shared: shared,
		kickCh: make(chan struct{}, 1),
	}
}

// OnTransition registers the transition callback. Set it before Run.
func (s *Supervisor) OnTransition(fn TransitionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTransition = fn
}

// Kick asks the supervisor to re-evaluate the credentials now, from any
// state. It never blocks; kicks arriving while one is already pending
// coalesce.
func (s *Supervisor) Kick() {
	select {
	case s.kickCh <- struct{}{}:
	default:
		// Already pending
	}
}

// Attempts returns the number of join attempts since boot.
func (s *Supervisor) Attempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts
}

// Run executes the state machine until ctx is cancelled. Call it on its own
// goroutine. The first cycle promotes IDLE to CONNECTING when credentials
// are already configured at boot.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		switch s.shared.Link() {
		case state.LinkIdle:
			if s.shared.Credentials().Configured() {
				s.transition(state.LinkConnecting, "credentials configured")
				continue
			}
			if _, ok := s.wait(ctx, s.cfg.IdleInterval); !ok {
				return
			}

		case state.LinkConnecting:
			s.connect(ctx)

		case state.LinkConnected:
			kicked, ok := s.wait(ctx, s.cfg.HealthInterval)
			if !ok {
				return
			}
			if kicked {
				s.transition(state.LinkConnecting, "credentials updated")
				continue
			}
			if !s.radio.Connected() {
				s.shared.SetAddress("")
				s.transition(state.LinkConnecting, "link lost")
			}

		case state.LinkBackoff:
			kicked, ok := s.wait(ctx, s.cfg.Cooldown)
			if !ok {
				return
			}
			if kicked {
				s.transition(state.LinkConnecting, "credentials updated")
			} else {
				s.transition(state.LinkConnecting, "cooldown elapsed")
			}
		}
	}
}

// connect runs a single join attempt: start the radio's association, then
// poll for the outcome until success, timeout, a kick, or cancellation.
func (s *Supervisor) connect(ctx context.Context) {
	creds := s.shared.Credentials()
	if !creds.Configured() {
		s.transition(state.LinkIdle, "no credentials configured")
		return
	}

	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()

	if err := s.radio.Join(ctx, creds.NetworkName, creds.NetworkSecret); err != nil {
		s.transition(state.LinkBackoff, fmt.Sprintf("join start failed: %v", err))
		return
	}

	deadline := time.NewTimer(s.cfg.JoinTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.kickCh:
			// Fresh credentials: abandon this attempt and start over.
			s.transition(state.LinkConnecting, "credentials updated")
			return

		case <-deadline.C:
			s.transition(state.LinkBackoff, "join timeout")
			return

		case <-poll.C:
			if s.radio.Connected() {
				s.shared.SetAddress(s.radio.Address())
				s.transition(state.LinkConnected, "join succeeded")
				return
			}
		}
	}
}

// wait sleeps for d, returning early on a kick or cancellation. The second
// return value is false when ctx was cancelled.
func (s *Supervisor) wait(ctx context.Context, d time.Duration) (kicked, ok bool) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false, false
	case <-s.kickCh:
		return true, true
	case <-t.C:
		return false, true
	}
}

// transition publishes the new link state and fires the callback outside
// any lock.
func (s *Supervisor) transition(to state.Link, reason string) {
	old := s.shared.SetLink(to)

	s.mu.RLock()
	fn := s.onTransition
	s.mu.RUnlock()

	if fn != nil {
		fn(old, to, reason)
	}
}
