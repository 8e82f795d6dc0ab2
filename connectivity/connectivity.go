package connectivity

import (
	"context"
	"sync"
	"time"
)

// State of the most recent station connection attempt.
type State int

const (
	Idle State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Failed:
		return "FAILED"
	default:
		return "INVALID STATE"
	}
}

type Reporter interface {
	CurrentState() State
	WaitForStateChange(context.Context, State) bool
}

var _ Reporter = (*Tracker)(nil)

// Tracker holds the connection state and wakes up waiters on every change.
type Tracker struct {
	mu      sync.Mutex
	state   State
	since   time.Time
	changed chan struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		state:   Idle,
		changed: make(chan struct{}),
	}
}

func (t *Tracker) CurrentState() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Snapshot returns the current state and the time it was entered.
func (t *Tracker) Snapshot() (State, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state, t.since
}

// Set moves the tracker into state at time at and returns the previous state.
// Entering the current state again only refreshes the time.
func (t *Tracker) Set(state State, at time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous := t.state
	t.state = state
	t.since = at

	if previous != state {
		close(t.changed)
		t.changed = make(chan struct{})
	}

	return previous
}

// CompareAndSet moves the tracker from state from into state to. It reports
// whether the transition happened.
func (t *Tracker) CompareAndSet(from State, to State, at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != from {
		return false
	}

	t.state = to
	t.since = at

	if from != to {
		close(t.changed)
		t.changed = make(chan struct{})
	}

	return true
}

// WaitForStateChange blocks until the tracker is in a state other than
// state. It returns false if ctx is done first.
func (t *Tracker) WaitForStateChange(ctx context.Context, state State) bool {
	for {
		t.mu.Lock()
		current := t.state
		changed := t.changed
		t.mu.Unlock()

		if current != state {
			return true
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return false
		}
	}
}
