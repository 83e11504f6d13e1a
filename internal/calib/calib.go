// Package calib draws wiring test patterns straight into the strip,
// bypassing the effect mapper so the chain order can be checked by eye.
package calib

import (
	"fmt"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	TileSweep  Kind = "tile_sweep"
)

// Kinds lists the patterns accepted by Parse.
var Kinds = []Kind{IndexSweep, RGBTest, TileSweep}

func Parse(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown test %q", s)
}

type Plan struct {
	Kind Kind
	// Hold is the number of frames each step stays up; 0 means 1.
	Hold int
}

type Runner struct {
	plan  Plan
	step  int
	frame int
}

func NewRunner(plan Plan) *Runner {
	if plan.Hold <= 0 {
		plan.Hold = 1
	}
	return &Runner{plan: plan}
}

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Steps is how many distinct frames the pattern has.
func (r *Runner) Steps(l layout.Layout) int {
	switch r.plan.Kind {
	case IndexSweep:
		return l.Count()
	case RGBTest:
		return 3
	case TileSweep:
		return len(l.Tiles.Chain)
	}
	return 0
}

// Step paints the current frame; returns false when complete.
func (r *Runner) Step(l layout.Layout, px effect.Pixels) bool {
	if r.step >= r.Steps(l) {
		return false
	}
	px.Clear(led.Black)
	n := l.Count()
	switch r.plan.Kind {
	case IndexSweep:
		px.SetPixelColor(r.step, led.RGB{R: 255, G: 255, B: 255})
	case RGBTest:
		var c led.RGB
		switch r.step {
		case 0:
			c.R = 255
		case 1:
			c.G = 255
		case 2:
			c.B = 255
		}
		for i := 0; i < n; i++ {
			px.SetPixelColor(i, c)
		}
	case TileSweep:
		// walk the chain in data-line order, cyan like a lit plane
		for i := 0; i < n; i++ {
			if l.TileOf(i) == r.step {
				px.SetPixelColor(i, led.RGB{G: 255, B: 255})
			}
		}
	}
	r.frame++
	if r.frame >= r.plan.Hold {
		r.frame = 0
		r.step++
	}
	return true
}
