package wordwolf

import (
	"fmt"
	"time"
)

// Ticker delivers the discussion countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type clockTicker struct {
	t *time.Ticker
}

// NewClockTicker returns a Ticker backed by time.Ticker.
func NewClockTicker(d time.Duration) Ticker {
	return &clockTicker{t: time.NewTicker(d)}
}

func (c *clockTicker) C() <-chan time.Time {
	return c.t.C
}

func (c *clockTicker) Stop() {
	c.t.Stop()
}

// FormatClock renders seconds as zero-padded MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Progress is remaining as a percentage of initial.
func Progress(remaining, initial int) float64 {
	if initial <= 0 {
		return 0
	}
	return float64(remaining) / float64(initial) * 100
}

// TickC returns the channel of the running countdown, or nil outside the
// discussion. Receiving from a nil channel blocks, so callers can select on
// it unconditionally.
func (c *Controller) TickC() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C()
}

// Tick advances the countdown by one second. It reports whether the state
// changed; ticks outside a running discussion are ignored.
func (c *Controller) Tick() bool {
	if c.state.Phase != PhaseDiscussion || !c.state.TimerRunning {
		return false
	}

	c.state.RemainingTime--
	if c.state.RemainingTime <= 0 {
		c.state.RemainingTime = 0
		c.enterVoting()
	}

	return true
}

// ToggleTimer pauses or resumes the countdown.
func (c *Controller) ToggleTimer() error {
	if err := c.expect(PhaseDiscussion); err != nil {
		return err
	}
	c.state.TimerRunning = !c.state.TimerRunning
	return nil
}

// AddTime extends the discussion by a minute.
func (c *Controller) AddTime() error {
	if err := c.expect(PhaseDiscussion); err != nil {
		return err
	}
	c.state.RemainingTime += AddTimeSeconds
	c.state.InitialTime += AddTimeSeconds
	return nil
}

// EndDiscussion moves straight to voting.
func (c *Controller) EndDiscussion() error {
	if err := c.expect(PhaseDiscussion); err != nil {
		return err
	}
	c.enterVoting()
	return nil
}

func (c *Controller) startDiscussion() {
	c.stopTicker()

	c.state.Phase = PhaseDiscussion
	c.state.RemainingTime = c.state.TimeLimit * 60
	c.state.InitialTime = c.state.RemainingTime
	c.state.TimerRunning = true

	c.ticker = c.newTicker(time.Second)
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}
