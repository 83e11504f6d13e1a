package lava

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect/effecttest"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

func TestEnergy(t *testing.T) {
	blobs := []Blob{{X: 0, Y: 0, Radius: 2}}
	assert.InDelta(t, 1.0, Energy(blobs, 2, 0), 1e-12)
	assert.InDelta(t, 0.25, Energy(blobs, 4, 0), 1e-12)
	// coincident point is clamped away from zero distance
	assert.InDelta(t, 4/0.0001, Energy(blobs, 0, 0), 1e-6)

	blobs = append(blobs, Blob{X: 4, Y: 0, Radius: 2})
	assert.InDelta(t, 2.0, Energy(blobs, 2, 0), 1e-12)
}

func TestBlobsSpawnInBounds(t *testing.T) {
	r := effecttest.New(1)
	e := New(r.Env)
	assert.Equal(t, "ClassicLava", e.Preset())
	require.Len(t, e.Blobs(), 4)
	for _, b := range e.Blobs() {
		assert.GreaterOrEqual(t, b.X, 0.0)
		assert.Less(t, b.X, 16.0)
		assert.GreaterOrEqual(t, b.Radius, 1.5)
		assert.Less(t, b.Radius, 2.5)
		assert.LessOrEqual(t, b.VX, 0.8)
		assert.GreaterOrEqual(t, b.VX, -0.8)
	}

	require.NoError(t, e.SetParameters(`{"numBlobs":7}`))
	assert.Len(t, e.Blobs(), 7)
}

func TestThresholdGatesPixels(t *testing.T) {
	r := effecttest.New(2)
	e := New(r.Env)
	require.NoError(t, e.SetParameters(`{"baseSpeed":0,"baseBrightness":1,"numBlobs":1}`))
	r.Clock.Advance(time.Second)
	e.blobs[0] = Blob{X: 8, Y: 8, Radius: 2}
	e.Update()

	center := r.At(8, 8)
	assert.NotEqual(t, led.Black, center)
	// red base hue, saturated
	assert.Greater(t, int(center.R), int(center.B))
	assert.Equal(t, led.Black, r.At(0, 0))
	assert.Equal(t, led.Black, r.At(15, 15))
}

func TestMercuryIsUnsaturated(t *testing.T) {
	r := effecttest.New(3)
	e := New(r.Env)
	require.NoError(t, e.SetPreset("Mercury"))
	require.NoError(t, e.SetParameters(`{"baseSpeed":0,"baseBrightness":1,"numBlobs":1}`))
	r.Clock.Advance(time.Second)
	e.blobs[0] = Blob{X: 8, Y: 8, Radius: 2}
	e.Update()

	c := r.At(8, 8)
	assert.NotEqual(t, led.Black, c)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestBlobsReflect(t *testing.T) {
	r := effecttest.New(4)
	e := New(r.Env)
	require.NoError(t, e.SetParameters(`{"numBlobs":1,"baseSpeed":1}`))
	r.Clock.Advance(time.Second)
	e.Update()
	e.blobs[0] = Blob{X: 15, Y: 8, VX: 5, Radius: 2}
	r.Clock.Advance(50 * time.Millisecond)
	e.Update()
	assert.Equal(t, -5.0, e.blobs[0].VX)
}

func TestBadBaseColorKeepsHue(t *testing.T) {
	r := effecttest.New(5)
	e := New(r.Env)
	assert.InDelta(t, 0, e.baseHue("#FF0000"), 1e-9)
	assert.InDelta(t, 1.0/3, e.baseHue("00FF00"), 1e-9)
	assert.InDelta(t, 1.0/3, e.baseHue("chartreuse"), 1e-9)
}

func TestBadBaseColorIsIgnored(t *testing.T) {
	r := effecttest.New(6)
	e := New(r.Env)
	require.NoError(t, e.SetParameters(`{"baseColor":"zzz","saturation":0.5}`))
	r.Clock.Advance(time.Second)
	e.Update()
	p := e.Params().(Params)
	assert.Equal(t, "#FF0000", p.BaseColor)
	assert.Equal(t, 0.5, p.Saturation)

	require.NoError(t, e.SetParameters(`{"baseColor":"#00FF00"}`))
	r.Clock.Advance(time.Second)
	e.Update()
	assert.Equal(t, "#00FF00", e.Params().(Params).BaseColor)
}
