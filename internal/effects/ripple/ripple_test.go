package ripple

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect/effecttest"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

func TestFirstUpdateSpawnsAtCenter(t *testing.T) {
	r := effecttest.New(1)
	e := New(r.Env)
	assert.Equal(t, "WaterDrop", e.Preset())
	assert.Len(t, e.Ripples(), 5)

	e.Update()
	rp := e.Ripples()[0]
	require.True(t, rp.Active)
	assert.Equal(t, 8.0, rp.X)
	assert.Equal(t, 8.0, rp.Y)
	// radius is still negative so nothing is drawn
	assert.Zero(t, r.Lit())

	r.Run(10, 100*time.Millisecond, e.Update)
	assert.Positive(t, r.Lit())
	assert.Equal(t, led.Black, r.At(8, 8))
}

func TestRippleLifetime(t *testing.T) {
	r := effecttest.New(2)
	e := New(r.Env)
	// long interval so only the first ripple exists
	require.NoError(t, e.SetParameters(`{"spawnIntervalS":60}`))
	r.Clock.Advance(time.Second)
	e.Update()
	started := r.Clock.Now()

	p := e.Params().(Params)
	bound := (p.MaxRadius + p.Thickness/2) / p.Speed

	step := 50 * time.Millisecond
	for el := step; el.Seconds() < bound*0.8; el += step {
		r.Clock.Advance(step)
		e.Update()
		require.True(t, e.Ripples()[0].Active, "elapsed %v", r.Clock.Now().Sub(started))
	}

	r.Clock.Advance(time.Duration(bound*float64(time.Second)) + time.Second)
	e.Update()
	assert.False(t, e.Ripples()[0].Active)
}

func TestRingBufferWraps(t *testing.T) {
	r := effecttest.New(3)
	e := New(r.Env)
	require.NoError(t, e.SetParameters(`{"maxRipples":2,"spawnIntervalS":0.1}`))
	assert.Len(t, e.Ripples(), 2)

	// let the spawn interval settle before counting
	r.Clock.Advance(time.Second)
	e.Update()
	assert.Equal(t, 1, e.next)

	r.Run(2, 100*time.Millisecond, e.Update)
	assert.Equal(t, 1, e.next)
	for _, rp := range e.Ripples() {
		assert.True(t, rp.Active)
	}
}

func TestRandomOriginStaysNearCenter(t *testing.T) {
	r := effecttest.New(4)
	e := New(r.Env)
	require.NoError(t, e.SetPreset("EnergyPulse"))
	r.Clock.Advance(time.Second)
	for i := 0; i < 40; i++ {
		r.Clock.Advance(500 * time.Millisecond)
		e.Update()
		for _, rp := range e.Ripples() {
			if !rp.Active {
				continue
			}
			assert.InDelta(t, 8, rp.X, 3.2+1e-9)
			assert.InDelta(t, 8, rp.Y, 3.2+1e-9)
		}
	}
}

func TestRadius(t *testing.T) {
	p := Params{Speed: 4, Thickness: 2}
	assert.Equal(t, -1.0, Radius(p, 0))
	assert.Equal(t, 3.0, Radius(p, 1))
	p.Acceleration = 1
	assert.Equal(t, 4.0, Radius(p, 1))
}

func TestMaxRipplesChangeReallocates(t *testing.T) {
	r := effecttest.New(5)
	e := New(r.Env)
	e.Update()
	require.NoError(t, e.SetParameters(`{"maxRipples":9}`))
	assert.Len(t, e.Ripples(), 9)
	for _, rp := range e.Ripples() {
		assert.False(t, rp.Active)
	}
}
