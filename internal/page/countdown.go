package page

import (
	"strconv"
	"sync"
	"time"

	"camclassify/internal/clock"
)

type CountdownState int

const (
	CountdownIdle CountdownState = iota
	CountdownCounting
	CountdownCapturing
)

const countdownFrom = 3

type countdownView interface {
	SetCaptureEnabled(enabled bool)
	SetCountdown(text string)
}

// Countdown shows 3, 2, 1 one step apart, then runs capture.
type Countdown struct {
	clock   clock.Clock
	step    time.Duration
	view    countdownView
	capture func()

	mu        sync.Mutex
	state     CountdownState
	remaining int
	timer     clock.Timer
}

func NewCountdown(c clock.Clock, step time.Duration, view countdownView, capture func()) *Countdown {
	return &Countdown{clock: c, step: step, view: view, capture: capture}
}

// Trigger starts the sequence. It reports false when one is already running.
func (c *Countdown) Trigger() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CountdownIdle {
		return false
	}

	c.state = CountdownCounting
	c.remaining = countdownFrom
	c.view.SetCaptureEnabled(false)
	c.view.SetCountdown(strconv.Itoa(c.remaining))
	c.timer = c.clock.AfterFunc(c.step, c.tick)

	return true
}

func (c *Countdown) tick() {
	c.mu.Lock()
	if c.state != CountdownCounting {
		c.mu.Unlock()
		return
	}

	c.remaining--
	if c.remaining > 0 {
		c.view.SetCountdown(strconv.Itoa(c.remaining))
		c.timer = c.clock.AfterFunc(c.step, c.tick)
		c.mu.Unlock()
		return
	}

	c.state = CountdownCapturing
	c.timer = nil
	c.mu.Unlock()

	c.capture()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.SetCountdown("")
	c.view.SetCaptureEnabled(true)
	c.state = CountdownIdle
}

// Cancel abandons a sequence that has not reached capture yet.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != CountdownCounting {
		return
	}

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = CountdownIdle
	c.view.SetCountdown("")
	c.view.SetCaptureEnabled(true)
}

func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
