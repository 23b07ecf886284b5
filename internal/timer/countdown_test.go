package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fast = 5 * time.Millisecond

func newFast(seconds int, onTick func(int), onExpire func()) *Countdown {
	c := New(seconds, onTick, onExpire)
	c.interval = fast
	return c
}

func TestCountdown_ExpiresOnce(t *testing.T) {
	var expired atomic.Int32
	ticks := make(chan int, 10)
	c := newFast(3, func(r int) { ticks <- r }, func() { expired.Add(1) })

	c.Start()
	c.Start()

	require.Eventually(t, func() bool { return expired.Load() == 1 }, time.Second, fast)
	assert.Equal(t, 0, c.Remaining())
	assert.False(t, c.Running())
	assert.Equal(t, 3, len(ticks))
	assert.Equal(t, 2, <-ticks)
	assert.Equal(t, 1, <-ticks)
	assert.Equal(t, 0, <-ticks)

	// Starting at zero does nothing.
	c.Start()
	time.Sleep(5 * fast)
	assert.Equal(t, int32(1), expired.Load())
}

func TestCountdown_PauseKeepsRemaining(t *testing.T) {
	c := newFast(1000, nil, nil)
	c.Start()
	require.Eventually(t, func() bool { return c.Remaining() < 1000 }, time.Second, fast)

	c.Pause()
	assert.False(t, c.Running())
	paused := c.Remaining()
	time.Sleep(5 * fast)
	assert.Equal(t, paused, c.Remaining())

	c.Start()
	require.Eventually(t, func() bool { return c.Remaining() < paused }, time.Second, fast)
	c.Stop()
}

func TestCountdown_ResetRestoresInitial(t *testing.T) {
	c := newFast(1000, nil, nil)
	c.Start()
	require.Eventually(t, func() bool { return c.Remaining() < 1000 }, time.Second, fast)

	c.Reset()
	assert.False(t, c.Running())
	assert.Equal(t, 1000, c.Remaining())
}

func TestCountdown_ResetAfterExpiryCanExpireAgain(t *testing.T) {
	var expired atomic.Int32
	c := newFast(1, nil, func() { expired.Add(1) })

	c.Start()
	require.Eventually(t, func() bool { return expired.Load() == 1 }, time.Second, fast)
	c.Reset()
	c.Start()
	require.Eventually(t, func() bool { return expired.Load() == 2 }, time.Second, fast)
}

func TestNewFromStart(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 600, NewFromStart(10, nil, now, nil, nil).Remaining())

	started := now.Add(-90 * time.Second)
	assert.Equal(t, 510, NewFromStart(10, &started, now, nil, nil).Remaining())

	longAgo := now.Add(-time.Hour)
	assert.Equal(t, 0, NewFromStart(10, &longAgo, now, nil, nil).Remaining())

	future := now.Add(time.Minute)
	assert.Equal(t, 600, NewFromStart(10, &future, now, nil, nil).Remaining())
}
