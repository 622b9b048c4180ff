package provision

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wisp-protocol/wisp-go/pkg/creds"
	"github.com/wisp-protocol/wisp-go/pkg/state"
)

// Provisioning errors.
var (
	ErrValueTooLong     = errors.New("attribute value too long")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrNotRunning       = errors.New("provisioner not running")
	ErrAlreadyStarted   = errors.New("provisioner already started")
)

// Kicker re-triggers connection evaluation after a credential write.
// The station supervisor implements it.
type Kicker interface {
	Kick()
}

// eventQueueSize bounds the number of peripheral events waiting to be
// processed.
const eventQueueSize = 16

type eventKind uint8

const (
	eventConnect eventKind = iota
	eventDisconnect
	eventWrite
)

type event struct {
	kind  eventKind
	attr  uuid.UUID
	value []byte
	reply chan error
}

// Provisioner owns the provisioning peripheral. Peripheral events are
// serialized through an internal queue goroutine and processed in arrival
// order, so radio-stack callbacks never race each other. Write events block
// the calling driver until processed; their outcome is the write response.
//
// Callbacks fire from the queue goroutine and must not call Stop.
type Provisioner struct {
	mu sync.RWMutex

	svc        Service
	peripheral Peripheral
	store      *creds.Store
	shared     *state.Shared
	kicker     Kicker

	running bool
	events  chan event
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	onClientChange       func(present bool)
	onCredentialsUpdated func(field creds.Field, size int)
	onWriteRejected      func(attr uuid.UUID, size int, reason error)
	onError              func(op string, err error)
}

// Compile-time interface satisfaction check.
var _ Handler = (*Provisioner)(nil)

// New creates a provisioner exposing svc through the given peripheral.
// Accepted writes persist through store and update shared. Call SetKicker
// to wire the connection supervisor's re-trigger.
func New(svc Service, peripheral Peripheral, store *creds.Store, shared *state.Shared) *Provisioner {
	return &Provisioner{
		svc:        svc,
		peripheral: peripheral,
		store:      store,
		shared:     shared,
	}
}

// SetKicker wires the connection supervisor. Each accepted credential write
// calls Kick once.
func (p *Provisioner) SetKicker(k Kicker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kicker = k
}

// OnClientChange sets the callback for client presence changes.
func (p *Provisioner) OnClientChange(fn func(present bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClientChange = fn
}

// OnCredentialsUpdated sets the callback for accepted credential writes.
// Only the field and value size are reported, never the value.
func (p *Provisioner) OnCredentialsUpdated(fn func(field creds.Field, size int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onCredentialsUpdated = fn
}

// OnWriteRejected sets the callback for writes rejected by validation.
func (p *Provisioner) OnWriteRejected(fn func(attr uuid.UUID, size int, reason error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onWriteRejected = fn
}

// OnError sets the callback for storage commit and peripheral failures.
func (p *Provisioner) OnError(fn func(op string, err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

// Running reports whether the provisioner has been started and not stopped.
func (p *Provisioner) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Start configures the peripheral, seeds the readable network name with the
// stored value, begins advertising, and starts the event queue. The context
// bounds the queue's lifetime alongside Stop.
func (p *Provisioner) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.events = make(chan event, eventQueueSize)
	p.done = make(chan struct{})
	p.running = true
	runCtx, events, done := p.ctx, p.events, p.done
	p.mu.Unlock()

	if err := p.peripheral.Configure(p.svc, p); err != nil {
		p.Stop()
		return fmt.Errorf("configuring peripheral: %w", err)
	}

	p.wg.Add(1)
	go p.processEvents(runCtx, events, done)

	// Seed before advertising so the first client reads the stored name.
	name := p.store.Credentials().NetworkName
	if err := p.peripheral.SetValue(AttrNetworkName, []byte(name)); err != nil {
		p.Stop()
		return fmt.Errorf("seeding network name: %w", err)
	}

	if err := p.peripheral.Advertise(); err != nil {
		p.Stop()
		return fmt.Errorf("starting advertising: %w", err)
	}

	return nil
}

// Stop stops advertising, drains the event queue, and closes the
// peripheral. Stopping a provisioner that is not running is a no-op.
func (p *Provisioner) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	done := p.done
	cancel := p.cancel
	p.mu.Unlock()

	close(done)
	p.wg.Wait()
	cancel()

	var firstErr error
	if err := p.peripheral.StopAdvertising(); err != nil {
		firstErr = err
	}
	if err := p.peripheral.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// HandleConnect implements Handler.
func (p *Provisioner) HandleConnect() {
	p.enqueue(event{kind: eventConnect})
}

// HandleDisconnect implements Handler.
func (p *Provisioner) HandleDisconnect() {
	p.enqueue(event{kind: eventDisconnect})
}

// HandleWrite implements Handler. It blocks until the queue has processed
// the write and returns the outcome as the write response.
func (p *Provisioner) HandleWrite(attr uuid.UUID, value []byte) error {
	p.mu.RLock()
	running := p.running
	events, done, ctx := p.events, p.done, p.ctx
	p.mu.RUnlock()
	if !running {
		return ErrNotRunning
	}

	// The driver may reuse its buffer once we return.
	buf := make([]byte, len(value))
	copy(buf, value)
	ev := event{kind: eventWrite, attr: attr, value: buf, reply: make(chan error, 1)}

	select {
	case events <- ev:
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ErrNotRunning
	}

	select {
	case err := <-ev.reply:
		return err
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ErrNotRunning
	}
}

// enqueue submits a connect or disconnect event. Events arriving while the
// provisioner is not running are dropped.
func (p *Provisioner) enqueue(ev event) {
	p.mu.RLock()
	running := p.running
	events, done, ctx := p.events, p.done, p.ctx
	p.mu.RUnlock()
	if !running {
		return
	}

	select {
	case events <- ev:
	case <-done:
	case <-ctx.Done():
	}
}

// processEvents is the queue goroutine. It exits when Stop closes done,
// draining events that arrived first, or when the start context is
// cancelled.
func (p *Provisioner) processEvents(ctx context.Context, events chan event, done chan struct{}) {
	defer p.wg.Done()

	for {
		select {
		case ev := <-events:
			p.handle(ev)
		case <-done:
			for {
				select {
				case ev := <-events:
					p.handle(ev)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Provisioner) handle(ev event) {
	switch ev.kind {
	case eventConnect:
		if was := p.shared.SetClientPresent(true); !was {
			p.notifyClient(true)
		}

	case eventDisconnect:
		if was := p.shared.SetClientPresent(false); was {
			// Stay provisionable: resume advertising for the next client.
			if err := p.peripheral.Advertise(); err != nil {
				p.notifyError("advertise", err)
			}
			p.notifyClient(false)
		}

	case eventWrite:
		ev.reply <- p.applyWrite(ev.attr, ev.value)
	}
}

// applyWrite validates and applies a single attribute write. Validation
// failures never reach the store.
func (p *Provisioner) applyWrite(attr uuid.UUID, value []byte) error {
	a, ok := p.svc.Attribute(attr)
	if !ok || !a.Writable {
		err := fmt.Errorf("%w: %s", ErrUnknownAttribute, attr)
		p.notifyRejected(attr, len(value), err)
		return err
	}
	if len(value) > a.MaxLen {
		err := fmt.Errorf("%w: %s: %d bytes exceeds %d", ErrValueTooLong, a.Name, len(value), a.MaxLen)
		p.notifyRejected(attr, len(value), err)
		return err
	}

	var field creds.Field
	switch attr {
	case AttrNetworkName:
		field = creds.FieldNetworkName
	case AttrNetworkSecret:
		field = creds.FieldNetworkSecret
	default:
		err := fmt.Errorf("%w: %s", ErrUnknownAttribute, attr)
		p.notifyRejected(attr, len(value), err)
		return err
	}

	if err := p.store.Save(field, string(value)); err != nil {
		p.notifyError("save "+a.Name, err)
		return err
	}

	switch field {
	case creds.FieldNetworkName:
		p.shared.SetNetworkName(string(value))
		if err := p.peripheral.SetValue(AttrNetworkName, value); err != nil {
			p.notifyError("refresh "+a.Name, err)
		}
	case creds.FieldNetworkSecret:
		p.shared.SetNetworkSecret(string(value))
	}

	p.mu.RLock()
	kicker := p.kicker
	p.mu.RUnlock()
	if kicker != nil {
		kicker.Kick()
	}

	p.notifyCredentials(field, len(value))
	return nil
}

func (p *Provisioner) notifyClient(present bool) {
	p.mu.RLock()
	fn := p.onClientChange
	p.mu.RUnlock()
	if fn != nil {
		fn(present)
	}
}

func (p *Provisioner) notifyCredentials(field creds.Field, size int) {
	p.mu.RLock()
	fn := p.onCredentialsUpdated
	p.mu.RUnlock()
	if fn != nil {
		fn(field, size)
	}
}

func (p *Provisioner) notifyRejected(attr uuid.UUID, size int, reason error) {
	p.mu.RLock()
	fn := p.onWriteRejected
	p.mu.RUnlock()
	if fn != nil {
		fn(attr, size, reason)
	}
}

func (p *Provisioner) notifyError(op string, err error) {
	p.mu.RLock()
	fn := p.onError
	p.mu.RUnlock()
	if fn != nil {
		fn(op, err)
	}
}
