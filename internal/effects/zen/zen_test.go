package zen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect/effecttest"
)

func active(e *Effect) int {
	n := 0
	for _, t := range e.Slots() {
		if t.Active {
			n++
		}
	}
	return n
}

func TestLevelIsTriangular(t *testing.T) {
	start := time.Unix(0, 0)
	tw := Twinkle{Active: true, Started: start, Duration: 2 * time.Second, Peak: 0.6}
	for _, v := range []struct {
		At   time.Duration
		Want float64
	}{
		{0, 0},
		{500 * time.Millisecond, 0.3},
		{time.Second, 0.6},
		{1500 * time.Millisecond, 0.3},
		{2 * time.Second, 0},
		{3 * time.Second, 0},
	} {
		assert.InDelta(t, v.Want, tw.Level(start.Add(v.At)), 1e-9, "at %v", v.At)
	}
}

func TestActivationIsBounded(t *testing.T) {
	r := effecttest.New(1)
	e := New(r.Env)
	require.NoError(t, e.SetParameters(`{"spawnIntervalMs":10,"minDurationMs":60000,"maxDurationMs":60000}`))
	r.Clock.Advance(time.Second)

	r.Run(50, 40*time.Millisecond, e.Update)
	assert.Equal(t, 5, active(e))
	assert.Equal(t, 5, r.Lit())

	seen := map[[2]int]bool{}
	for _, tw := range e.Slots() {
		k := [2]int{tw.X, tw.Y}
		assert.False(t, seen[k], "pixel %v lit twice", k)
		seen[k] = true
		assert.GreaterOrEqual(t, tw.Hue, 0.5)
		assert.LessOrEqual(t, tw.Hue, 0.6)
		assert.GreaterOrEqual(t, tw.Peak, 0.5*0.3)
		assert.LessOrEqual(t, tw.Peak, 0.5*0.7)
	}
}

func TestOneActivationPerInterval(t *testing.T) {
	r := effecttest.New(2)
	e := New(r.Env)
	e.Update()
	assert.Equal(t, 1, active(e))
	r.Clock.Advance(100 * time.Millisecond)
	e.Update()
	assert.Equal(t, 1, active(e))
	r.Clock.Advance(400 * time.Millisecond)
	e.Update()
	assert.Equal(t, 2, active(e))
}

func TestTwinklesExpire(t *testing.T) {
	r := effecttest.New(3)
	e := New(r.Env)
	e.Update()
	require.Equal(t, 1, active(e))
	require.NoError(t, e.SetParameters(`{"spawnIntervalMs":60000}`))
	r.Clock.Advance(5 * time.Second)
	e.Update()
	assert.Zero(t, active(e))
	assert.Zero(t, r.Lit())
}

func TestPresetResizesSlots(t *testing.T) {
	r := effecttest.New(4)
	e := New(r.Env)
	assert.Len(t, e.Slots(), 5)
	require.NoError(t, e.SetPreset("next"))
	assert.Equal(t, "Firefly", e.Preset())
	assert.Len(t, e.Slots(), 8)
}

func TestCapChangeKeepsTwinkles(t *testing.T) {
	r := effecttest.New(5)
	e := New(r.Env)
	require.NoError(t, e.SetParameters(`{"spawnIntervalMs":10,"minDurationMs":60000,"maxDurationMs":60000}`))
	r.Clock.Advance(time.Second)
	r.Run(20, 40*time.Millisecond, e.Update)
	require.Equal(t, 5, active(e))
	lit := e.Slots()[0]

	require.NoError(t, e.SetParameters(`{"maxActiveLeds":8,"spawnIntervalMs":60000}`))
	assert.Len(t, e.Slots(), 8)
	assert.Equal(t, 5, active(e))
	assert.Equal(t, lit, e.Slots()[0])

	require.NoError(t, e.SetParameters(`{"maxActiveLeds":3}`))
	assert.Len(t, e.Slots(), 3)
	assert.Equal(t, 3, active(e))
	assert.Equal(t, lit, e.Slots()[0])
}
