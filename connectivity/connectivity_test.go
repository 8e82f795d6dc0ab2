package connectivity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "CONNECTING", Connecting.String())
	assert.Equal(t, "CONNECTED", Connected.String())
	assert.Equal(t, "FAILED", Failed.String())
	assert.Equal(t, "INVALID STATE", State(42).String())
}

func TestTrackerStartsIdle(t *testing.T) {
	tracker := NewTracker()

	state, since := tracker.Snapshot()
	assert.Equal(t, Idle, state)
	assert.True(t, since.IsZero())
}

func TestTrackerSet(t *testing.T) {
	tracker := NewTracker()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	previous := tracker.Set(Connecting, at)
	assert.Equal(t, Idle, previous)

	state, since := tracker.Snapshot()
	assert.Equal(t, Connecting, state)
	assert.Equal(t, at, since)
}

func TestTrackerCompareAndSet(t *testing.T) {
	tracker := NewTracker()
	at := time.Now()

	assert.False(t, tracker.CompareAndSet(Connecting, Failed, at))
	assert.Equal(t, Idle, tracker.CurrentState())

	tracker.Set(Connecting, at)
	assert.True(t, tracker.CompareAndSet(Connecting, Failed, at))
	assert.Equal(t, Failed, tracker.CurrentState())
}

func TestWaitForStateChangeReturnsImmediately(t *testing.T) {
	tracker := NewTracker()
	tracker.Set(Connected, time.Now())

	assert.True(t, tracker.WaitForStateChange(context.Background(), Idle))
}

func TestWaitForStateChangeWakesUp(t *testing.T) {
	tracker := NewTracker()

	done := make(chan bool)
	go func() {
		done <- tracker.WaitForStateChange(context.Background(), Idle)
	}()

	tracker.Set(Connecting, time.Now())

	select {
	case changed := <-done:
		assert.True(t, changed)
	case <-time.After(time.Second):
		require.Fail(t, "waiter was not woken up")
	}
}

func TestWaitForStateChangeHonorsContext(t *testing.T) {
	tracker := NewTracker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.False(t, tracker.WaitForStateChange(ctx, Idle))
}
