// Package effecttest provides a manual clock, a fixed sensor and a recording
// environment for exercising effects without hardware.
package effecttest

import (
	"math/rand/v2"
	"time"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

type Clock struct{ t time.Time }

func NewClock() *Clock { return &Clock{t: time.Unix(1700000000, 0)} }

func (c *Clock) Now() time.Time          { return c.t }
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Tilt is a sensor that always reports the same vector.
type Tilt struct {
	X, Y, Z float64
	Err     error
}

func (s *Tilt) Acceleration() (float64, float64, float64, error) { return s.X, s.Y, s.Z, s.Err }

// Rig bundles an Env with the strip and clock behind it.
type Rig struct {
	Env   effect.Env
	Strip *led.Strip
	Clock *Clock
}

// New returns a rig on the default 16x16 panel with a seeded random source.
func New(seed uint64) *Rig {
	l := layout.Default()
	s := led.NewStrip(l.Count(), nil)
	c := NewClock()
	return &Rig{
		Env: effect.Env{
			Strip:  s,
			Layout: l,
			Now:    c.Now,
			Rand:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		},
		Strip: s,
		Clock: c,
	}
}

// At reads the color painted at logical x,y.
func (r *Rig) At(x, y int) led.RGB {
	return r.Strip.Pixel(r.Env.Layout.Index(x, y))
}

// Lit counts the non-black pixels on the strip.
func (r *Rig) Lit() int {
	n := 0
	for i := 0; i < r.Strip.Len(); i++ {
		if r.Strip.Pixel(i) != led.Black {
			n++
		}
	}
	return n
}

// Run advances the clock by step and calls update n times.
func (r *Rig) Run(n int, step time.Duration, update func()) {
	for i := 0; i < n; i++ {
		r.Clock.Advance(step)
		update()
	}
}
