package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FlowState is the lifecycle of one popup authorization attempt. A waiter
// starts waiting and makes exactly one transition out of it.
type FlowState int

const (
	FlowWaiting FlowState = iota
	FlowSuccess
	FlowError
	FlowTimeout
)

func (s FlowState) String() string {
	switch s {
	case FlowWaiting:
		return "waiting"
	case FlowSuccess:
		return "success"
	case FlowError:
		return "error"
	case FlowTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// DefaultFlowTimeout bounds how long the opener waits for either completion
// signal before giving up.
const DefaultFlowTimeout = 30 * time.Second

// Waiter races the completion signals of one popup flow: the callback
// settling it, the opener reporting the popup closed, and the timeout. The
// first one wins; all later settles are no-ops.
type Waiter struct {
	mu        sync.Mutex
	state     FlowState
	detail    string
	settledAt time.Time
	done      chan struct{}
	timer     *time.Timer
}

func newWaiter(timeout time.Duration) *Waiter {
	w := &Waiter{done: make(chan struct{})}
	w.timer = time.AfterFunc(timeout, func() {
		w.Settle(FlowTimeout, "no completion signal within timeout")
	})
	return w
}

// Settle attempts the single transition out of waiting. It reports whether
// this call won; losers see false and change nothing. Settling always
// disarms the timer, so a timeout cannot fire after a real outcome.
func (w *Waiter) Settle(state FlowState, detail string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != FlowWaiting {
		return false
	}
	w.state = state
	w.detail = detail
	w.settledAt = time.Now()
	w.timer.Stop()
	close(w.done)
	return true
}

// Done is closed once the waiter settles.
func (w *Waiter) Done() <-chan struct{} {
	return w.done
}

// Result returns the current state and its detail message.
func (w *Waiter) Result() (FlowState, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, w.detail
}

func (w *Waiter) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state != FlowWaiting
}

// Broker is the registry of in-flight popup flows, keyed by flow ID.
type Broker struct {
	mu      sync.Mutex
	flows   map[string]*Waiter
	timeout time.Duration
}

// NewBroker builds a registry. A non-positive timeout falls back to the
// default 30s ceiling.
func NewBroker(timeout time.Duration) *Broker {
	if timeout <= 0 {
		timeout = DefaultFlowTimeout
	}
	return &Broker{flows: make(map[string]*Waiter), timeout: timeout}
}

// Begin registers a new flow and returns its ID. Settled flows nobody waited
// on are pruned opportunistically here.
func (b *Broker) Begin() string {
	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	for fid, w := range b.flows {
		if w.settled() {
			w.mu.Lock()
			stale := time.Since(w.settledAt) > time.Minute
			w.mu.Unlock()
			if stale {
				delete(b.flows, fid)
			}
		}
	}
	b.flows[id] = newWaiter(b.timeout)
	return id
}

// Lookup returns the waiter for a flow ID.
func (b *Broker) Lookup(id string) (*Waiter, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.flows[id]
	return w, ok
}

// Complete settles a flow from the callback. Unknown IDs are ignored; the
// callback still has its own success page regardless.
func (b *Broker) Complete(id string, ok bool, detail string) {
	w, found := b.Lookup(id)
	if !found {
		return
	}
	if ok {
		w.Settle(FlowSuccess, detail)
	} else {
		w.Settle(FlowError, detail)
	}
}

// MarkClosed settles a flow from the opener's popup-closed poll. If the
// callback already settled, this is a no-op; the settle outcome is advisory
// either way, since the waiter's consumer re-checks auth status after
// settlement.
func (b *Broker) MarkClosed(id string) {
	if w, ok := b.Lookup(id); ok {
		w.Settle(FlowError, "popup closed before completing authorization")
	}
}

// Wait blocks until the flow settles or ctx is done, then removes the flow
// from the registry. The returned state is advisory; callers must perform
// their own status re-check rather than trusting it alone.
func (b *Broker) Wait(ctx context.Context, id string) (FlowState, string, error) {
	w, ok := b.Lookup(id)
	if !ok {
		return FlowError, "unknown flow", nil
	}

	select {
	case <-w.Done():
	case <-ctx.Done():
		return FlowWaiting, "", ctx.Err()
	}

	b.mu.Lock()
	delete(b.flows, id)
	b.mu.Unlock()

	state, detail := w.Result()
	return state, detail, nil
}
