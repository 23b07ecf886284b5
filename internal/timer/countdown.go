package timer

import (
	"sync"
	"time"
)

// Countdown counts remaining seconds down to zero. It is owned by a single
// battle view and is not shared between participants.
type Countdown struct {
	sync.Mutex
	initial   int
	remaining int
	interval  time.Duration
	stop      chan struct{}
	expired   bool

	onTick   func(remaining int)
	onExpire func()
}

func New(seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	if onTick == nil {
		onTick = func(int) {}
	}
	if onExpire == nil {
		onExpire = func() {}
	}
	return &Countdown{
		initial:   seconds,
		remaining: seconds,
		interval:  time.Second,
		onTick:    onTick,
		onExpire:  onExpire,
	}
}

// NewFromStart seeds the countdown from a battle's duration in minutes and the
// moment it started. A battle that has not started gets its full duration.
func NewFromStart(durationMinutes int, startedAt *time.Time, now time.Time, onTick func(int), onExpire func()) *Countdown {
	total := durationMinutes * 60
	c := New(total, onTick, onExpire)
	if startedAt == nil {
		return c
	}
	left := total - int(now.Sub(*startedAt)/time.Second)
	if left < 0 {
		left = 0
	}
	if left > total {
		left = total
	}
	c.remaining = left
	return c
}

func (c *Countdown) Start() {
	c.Lock()
	defer c.Unlock()

	if c.stop != nil || c.remaining == 0 {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	go c.run(stop)
}

func (c *Countdown) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.Lock()
		// Pause or Reset may have replaced this run while we waited for the lock.
		if c.stop != stop {
			c.Unlock()
			return
		}
		c.remaining--
		remaining := c.remaining
		fire := false
		if remaining <= 0 {
			c.remaining = 0
			remaining = 0
			c.stop = nil
			if !c.expired {
				c.expired = true
				fire = true
			}
		}
		c.Unlock()

		c.onTick(remaining)
		if remaining == 0 {
			if fire {
				c.onExpire()
			}
			return
		}
	}
}

// Pause halts the countdown and keeps the remaining time.
func (c *Countdown) Pause() {
	c.Lock()
	defer c.Unlock()
	c.halt()
}

// Reset stops the countdown and restores the initial time.
func (c *Countdown) Reset() {
	c.Lock()
	defer c.Unlock()
	c.halt()
	c.remaining = c.initial
	c.expired = false
}

// Stop is Pause under the name used by teardown paths.
func (c *Countdown) Stop() {
	c.Pause()
}

func (c *Countdown) halt() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Countdown) Remaining() int {
	c.Lock()
	defer c.Unlock()
	return c.remaining
}

func (c *Countdown) Running() bool {
	c.Lock()
	defer c.Unlock()
	return c.stop != nil
}
