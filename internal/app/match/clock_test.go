package match

import (
	"testing"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestClockDecrementConservesTime(t *testing.T) {
	c := newClock(time.Second)
	step := 10 * time.Millisecond

	for i := 0; i < 7; i++ {
		c.decrement(entities.White, step)
	}
	c.decrement(entities.Black, step)

	for _, color := range []entities.Color{entities.White, entities.Black} {
		got := c.remainingFor(color) + time.Duration(c.decrementsFor(color))*step
		assert.Equal(t, time.Second, got, color.String())
	}
	assert.Equal(t, 930*time.Millisecond, c.remainingFor(entities.White))
}

func TestNilTickerIsInert(t *testing.T) {
	var tk *ticker
	assert.Nil(t, tk.decrementC())
	assert.Nil(t, tk.pollC())
	assert.NotPanics(t, tk.stop)
}

func TestTickerStopsOnce(t *testing.T) {
	tk := startTicker(clockwork.NewFakeClock(), time.Millisecond, time.Millisecond)
	tk.stop()
	assert.NotPanics(t, tk.stop)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{MatchDuration: time.Minute}.withDefaults()
	assert.Equal(t, time.Minute, cfg.MatchDuration)
	assert.Equal(t, DefaultConfig().DecrementInterval, cfg.DecrementInterval)
	assert.Equal(t, DefaultConfig().PersistTimeout, cfg.PersistTimeout)
	assert.Equal(t, time.Duration(0), cfg.ExpiryFloor)
}
