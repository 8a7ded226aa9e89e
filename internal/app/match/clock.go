package match

import (
	"sync"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/jonboulle/clockwork"
)

// clock holds the remaining time of both sides. It is only touched from
// the match goroutine.
type clock struct {
	initial    time.Duration
	remaining  [2]time.Duration
	decrements [2]int
}

func newClock(allotment time.Duration) *clock {
	return &clock{
		initial:   allotment,
		remaining: [2]time.Duration{allotment, allotment},
	}
}

func (c *clock) decrement(color entities.Color, step time.Duration) time.Duration {
	c.remaining[color] -= step
	c.decrements[color]++
	return c.remaining[color]
}

func (c *clock) remainingFor(color entities.Color) time.Duration {
	return c.remaining[color]
}

func (c *clock) decrementsFor(color entities.Color) int {
	return c.decrements[color]
}

// ticker drives the decrement and poll activities of a live match. Both
// start together and stop together exactly once.
type ticker struct {
	decrement clockwork.Ticker
	poll      clockwork.Ticker
	stopOnce  sync.Once
}

func startTicker(source clockwork.Clock, decrement, poll time.Duration) *ticker {
	return &ticker{
		decrement: source.NewTicker(decrement),
		poll:      source.NewTicker(poll),
	}
}

// decrementC returns nil for a match that is not live, which blocks the
// select case forever.
func (t *ticker) decrementC() <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.decrement.Chan()
}

func (t *ticker) pollC() <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.poll.Chan()
}

func (t *ticker) stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() {
		t.decrement.Stop()
		t.poll.Stop()
	})
}
