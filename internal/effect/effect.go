package effect

import (
	"math/rand/v2"
	"time"

	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

// Effect is one generative animation. Update advances the simulation and
// paints the strip; it never flushes.
type Effect interface {
	Name() string
	Presets() []string
	Preset() string
	SetPreset(name string) error
	SetParameters(text string) error
	// Params returns the active parameter set.
	Params() any
	Update()
}

// Pixels is the part of the strip effects may touch.
type Pixels interface {
	SetPixelColor(i int, c led.RGB)
	Clear(c led.RGB)
}

// Sensor reports acceleration in m/s^2.
type Sensor interface {
	Acceleration() (ax, ay, az float64, err error)
}

// Env holds what effects borrow from the dispatcher. Sensor may be nil.
type Env struct {
	Strip  Pixels
	Layout layout.Layout
	Sensor Sensor
	Now    func() time.Time
	Rand   *rand.Rand
}

// WithDefaults fills the clock and random source.
func (e Env) WithDefaults() Env {
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Rand == nil {
		e.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.Layout.Count() == 0 {
		e.Layout = layout.Default()
	}
	return e
}

func (e Env) Width() int  { return e.Layout.Width() }
func (e Env) Height() int { return e.Layout.Height() }

// Set paints logical pixel x,y. Coordinates off the panel are dropped.
func (e Env) Set(x, y int, c led.RGB) {
	if e.Strip == nil {
		return
	}
	if i := e.Layout.Index(x, y); i != layout.NoPixel {
		e.Strip.SetPixelColor(i, c)
	}
}

func (e Env) Clear() {
	if e.Strip != nil {
		e.Strip.Clear(led.Black)
	}
}

// Uniform returns a value in [lo, hi).
func (e Env) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + e.Rand.Float64()*(hi-lo)
}

// Between returns an int in [lo, hi].
func (e Env) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + e.Rand.IntN(hi-lo+1)
}

// Chance reports true with probability p.
func (e Env) Chance(p float64) bool { return e.Rand.Float64() < p }

// Base wires the Effect bookkeeping onto a transition engine.
type Base[P any] struct {
	name   string
	Engine *transition.Engine[P]
	apply  func(transition.Fields, *P)
}

func NewBase[P any](name string, cfg transition.Config[P], apply func(transition.Fields, *P)) Base[P] {
	cfg.Effect = name
	return Base[P]{name: name, Engine: transition.New(cfg), apply: apply}
}

func (b *Base[P]) Name() string                    { return b.name }
func (b *Base[P]) Presets() []string               { return b.Engine.Presets() }
func (b *Base[P]) Preset() string                  { return b.Engine.PresetName() }
func (b *Base[P]) SetPreset(name string) error     { return b.Engine.SetPreset(name) }
func (b *Base[P]) SetParameters(text string) error { return b.Engine.Patch(text, b.apply) }
func (b *Base[P]) Params() any                     { return b.Engine.Active() }
