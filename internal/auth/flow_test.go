package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaiterSingleTransition(t *testing.T) {
	w := newWaiter(time.Minute)

	assert.True(t, w.Settle(FlowSuccess, "ok"))
	assert.False(t, w.Settle(FlowError, "too late"))

	state, detail := w.Result()
	assert.Equal(t, FlowSuccess, state)
	assert.Equal(t, "ok", detail)
}

func TestWaiterTimeoutSettlesExactlyOnce(t *testing.T) {
	w := newWaiter(20 * time.Millisecond)

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("waiter never settled")
	}

	state, _ := w.Result()
	assert.Equal(t, FlowTimeout, state)
	// A late completion signal is a no-op.
	assert.False(t, w.Settle(FlowSuccess, "late"))
	state, _ = w.Result()
	assert.Equal(t, FlowTimeout, state)
}

func TestWaiterSettleDisarmsTimer(t *testing.T) {
	w := newWaiter(30 * time.Millisecond)
	require.True(t, w.Settle(FlowSuccess, "ok"))

	time.Sleep(60 * time.Millisecond)
	state, _ := w.Result()
	assert.Equal(t, FlowSuccess, state, "timeout must not override a settled flow")
}

func TestWaiterConcurrentSettlersOneWinner(t *testing.T) {
	w := newWaiter(time.Minute)

	var wg sync.WaitGroup
	wins := make(chan FlowState, 10)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Settle(FlowSuccess, "") {
				wins <- FlowSuccess
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Settle(FlowError, "") {
				wins <- FlowError
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one settle call may win")
}

func TestBrokerCompleteThenWait(t *testing.T) {
	b := NewBroker(time.Minute)
	id := b.Begin()

	go func() {
		time.Sleep(10 * time.Millisecond)
		b.Complete(id, true, "authorized")
	}()

	state, detail, err := b.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, FlowSuccess, state)
	assert.Equal(t, "authorized", detail)

	// The flow is removed once waited on.
	_, ok := b.Lookup(id)
	assert.False(t, ok)
}

func TestBrokerMarkClosedLosesToCallback(t *testing.T) {
	b := NewBroker(time.Minute)
	id := b.Begin()

	b.Complete(id, true, "authorized")
	b.MarkClosed(id)

	state, _, err := b.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, FlowSuccess, state)
}

func TestBrokerMarkClosedFirst(t *testing.T) {
	b := NewBroker(time.Minute)
	id := b.Begin()

	b.MarkClosed(id)
	state, _, err := b.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, FlowError, state)
}

func TestBrokerTimeoutResolvesWaitOnce(t *testing.T) {
	b := NewBroker(25 * time.Millisecond)
	id := b.Begin()

	done := make(chan FlowState, 2)
	go func() {
		state, _, _ := b.Wait(context.Background(), id)
		done <- state
	}()

	select {
	case state := <-done:
		assert.Equal(t, FlowTimeout, state)
	case <-time.After(time.Second):
		t.Fatal("wait hung past the flow timeout")
	}

	select {
	case <-done:
		t.Fatal("wait resolved twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerWaitUnknownFlow(t *testing.T) {
	b := NewBroker(time.Minute)
	state, detail, err := b.Wait(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, FlowError, state)
	assert.Equal(t, "unknown flow", detail)
}

func TestBrokerWaitContextCancelled(t *testing.T) {
	b := NewBroker(time.Minute)
	id := b.Begin()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := b.Wait(ctx, id)
	assert.Error(t, err)
}
