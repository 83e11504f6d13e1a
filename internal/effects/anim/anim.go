// Package anim plays frame animations: the stock heart plus any GIFs found
// at startup.
package anim

import (
	"time"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

const Name = "anim"

// DefaultFPS is the stock playback rate.
const DefaultFPS = 5

type Params struct {
	// BaseSpeed is frames per second.
	BaseSpeed float64 `json:"baseSpeed"`
	// Preset names the animation being played.
	Preset string `json:"prePara"`
}

type Effect struct {
	effect.Base[Params]

	env   effect.Env
	anims map[string]Animation
	cur   Animation
	frame int
	last  time.Time
}

// New registers the stock heart followed by extra animations. Later entries
// with a duplicate name replace earlier ones.
func New(env effect.Env, extra ...Animation) *Effect {
	env = env.WithDefaults()
	e := &Effect{env: env, anims: map[string]Animation{}}

	all := append([]Animation{Heart(env.Width(), env.Height())}, extra...)
	var presets []transition.Preset[Params]
	for _, a := range all {
		if len(a.Frames) == 0 {
			continue
		}
		if _, dup := e.anims[a.Name]; !dup {
			presets = append(presets, transition.Preset[Params]{
				Name:   a.Name,
				Params: Params{BaseSpeed: DefaultFPS, Preset: a.Name},
			})
		}
		e.anims[a.Name] = a
	}

	e.Base = effect.NewBase(Name, transition.Config[Params]{
		Fields: []transition.Field[Params]{
			transition.Lerp("baseSpeed", func(p *Params) *float64 { return &p.BaseSpeed }),
			transition.Instant(transition.PresetField, func(p *Params) *string { return &p.Preset }).Resets(),
		},
		Presets: presets,
		Name:    func(p *Params) *string { return &p.Preset },
		Clamp:   clamp,
		Reset:   e.reset,
		Now:     env.Now,
	}, apply)
	return e
}

func apply(f transition.Fields, p *Params) {
	f.Float("baseSpeed", &p.BaseSpeed)
}

func clamp(p *Params) {
	p.BaseSpeed = transition.Clamp(p.BaseSpeed, 0.1, 60)
}

func (e *Effect) reset(p Params) {
	e.cur = e.anims[p.Preset]
	e.frame = 0
	e.last = e.env.Now()
}

// Frame is the index of the frame on screen.
func (e *Effect) Frame() int { return e.frame }

func (e *Effect) Update() {
	now := e.env.Now()
	p := e.Engine.Step()

	if len(e.cur.Frames) == 0 {
		e.env.Clear()
		return
	}
	if now.Sub(e.last) >= time.Duration(float64(time.Second)/p.BaseSpeed) {
		e.last = now
		e.frame = (e.frame + 1) % len(e.cur.Frames)
	}

	e.env.Clear()
	for y := 0; y < e.env.Height(); y++ {
		for x := 0; x < e.env.Width(); x++ {
			e.env.Set(x, y, e.cur.At(e.frame, x, y))
		}
	}
}
