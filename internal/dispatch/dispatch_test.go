package dispatch

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diag "github.com/coreman2200/funtimes-arcaluminis/internal/diagnostics"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effect/effecttest"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/ripple"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/zen"
	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

type recorder struct {
	mu  sync.Mutex
	got []diag.Diagnostic
}

func (r *recorder) Publish(d diag.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, d)
}

func (r *recorder) codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, d := range r.got {
		out = append(out, d.Code)
	}
	return out
}

type rig struct {
	d     *Dispatcher
	strip *led.Strip
	clock *effecttest.Clock
	diags *recorder
}

func newRig(t *testing.T) *rig {
	t.Helper()
	l := layout.Default()
	strip := led.NewStrip(l.Count(), nil)
	clock := effecttest.NewClock()
	rec := &recorder{}
	d := New(strip, l, &effecttest.Tilt{},
		WithClock(clock.Now),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithDiagnostics(rec),
	)
	return &rig{d: d, strip: strip, clock: clock, diags: rec}
}

func TestStockEffects(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, []string{"gravity_balls", "code_rain", "ripple", "zen_lights", "scrolling_text", "lava_lamp", "anim"}, r.d.Effects())
	assert.Equal(t, "gravity_balls", r.d.Active().Name())
	st := r.d.Status()
	assert.Equal(t, "gravity_balls", st.Effect)
	assert.Equal(t, "Bouncy", st.Preset)
}

func TestEndToEnd(t *testing.T) {
	r := newRig(t)
	for _, p := range []string{
		`{"effect":"ripple"}`,
		`{"prePara":"EnergyPulse"}`,
		`{"params":{"speed":99}}`,
	} {
		require.NoError(t, r.d.Submit([]byte(p)))
	}
	r.d.Tick()
	require.Equal(t, "ripple", r.d.Active().Name())

	r.clock.Advance(transition.DefaultDuration)
	r.d.Tick()

	got := r.d.Active().Params().(ripple.Params)
	want := ripple.EnergyPulse
	want.Speed = 99
	assert.Equal(t, want, got)
	assert.Equal(t, "EnergyPulse", r.d.Status().Preset)
}

func TestApplyOrderWithinOnePayload(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.d.Apply([]byte(`{"params":{"maxActiveLeds":3},"prePara":"Firefly","effect":"zen_lights"}`)))
	r.clock.Advance(time.Second)
	r.d.Tick()
	assert.Equal(t, "zen_lights", r.d.Active().Name())
	assert.Equal(t, "Firefly", r.d.Active().Preset())
	p := r.d.Active().Params().(zen.Params)
	assert.Equal(t, 3, p.MaxActive)
	assert.Equal(t, zen.Firefly.HueMin, p.HueMin)
}

func TestUnknownNamesAreNotFatal(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.d.Apply([]byte(`{"effect":"lava_lamp"}`)))

	err := r.d.Apply([]byte(`{"effect":"disco"}`))
	assert.True(t, errors.Is(err, ErrUnknownEffect))
	assert.Equal(t, "lava_lamp", r.d.Active().Name())

	err = r.d.Apply([]byte(`{"prePara":"Sparkly"}`))
	assert.True(t, errors.Is(err, transition.ErrUnknownPreset))
	assert.Equal(t, "ClassicLava", r.d.Active().Preset())

	assert.Contains(t, r.diags.codes(), diag.CodeUnknownEffect)
	assert.Contains(t, r.diags.codes(), diag.CodeUnknownPreset)
}

func TestMalformedPayloadDropped(t *testing.T) {
	r := newRig(t)
	before := r.d.Active().Params()
	for _, p := range []string{`{"effect":`, `[1,2]`, `null`, `"ripple"`} {
		assert.Error(t, r.d.Apply([]byte(p)), p)
	}
	assert.Equal(t, before, r.d.Active().Params())
	assert.Contains(t, r.diags.codes(), diag.CodeDecode)
}

func TestInactiveEffectsKeepState(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.d.Apply([]byte(`{"prePara":"Plasma"}`)))
	require.NoError(t, r.d.Apply([]byte(`{"effect":"ripple"}`)))
	require.NoError(t, r.d.Apply([]byte(`{"effect":"gravity_balls"}`)))
	assert.Equal(t, "Plasma", r.d.Active().Preset())
}

func TestTickRendersActiveEffect(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.d.Apply([]byte(`{"effect":"scrolling_text"}`)))
	for i := 0; i < 5; i++ {
		r.clock.Advance(150 * time.Millisecond)
		r.d.Tick()
	}
	lit := 0
	for i := 0; i < r.strip.Len(); i++ {
		if r.strip.Pixel(i) != led.Black {
			lit++
		}
	}
	assert.Positive(t, lit)
	assert.EqualValues(t, 5, r.d.Status().Ticks)
}

func TestSubmitReportsFullQueue(t *testing.T) {
	l := layout.Default()
	rec := &recorder{}
	d := New(led.NewStrip(l.Count(), nil), l, nil, WithQueueSize(2), WithDiagnostics(rec))
	require.NoError(t, d.Submit([]byte(`{}`)))
	require.NoError(t, d.Submit([]byte(`{}`)))
	assert.ErrorIs(t, d.Submit([]byte(`{}`)), ErrQueueFull)
	assert.Contains(t, rec.codes(), diag.CodeQueueFull)
	d.Tick()
	assert.EqualValues(t, 1, d.Status().Dropped)
	assert.NoError(t, d.Submit([]byte(`{}`)))
}
