// Package lava renders drifting metaballs as a lava lamp.
package lava

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

const Name = "lava_lamp"

const maxDT = 0.1

type Params struct {
	NumBlobs       int     `json:"numBlobs"`
	Threshold      float64 `json:"threshold"`
	BaseSpeed      float64 `json:"baseSpeed"`
	BaseBrightness float64 `json:"baseBrightness"`
	// BaseColor is a hex color; only its hue is used.
	BaseColor  string  `json:"baseColor"`
	HueRange   float64 `json:"hueRange"`
	Saturation float64 `json:"saturation"`
	Preset     string  `json:"prePara"`
}

var (
	ClassicLava = Params{
		NumBlobs:       4,
		Threshold:      1,
		BaseSpeed:      0.8,
		BaseBrightness: 0.1,
		BaseColor:      "#FF0000",
		HueRange:       0.16,
		Saturation:     1,
		Preset:         "ClassicLava",
	}
	// Mercury is unsaturated so the blobs read as silver.
	Mercury = Params{
		NumBlobs:       5,
		Threshold:      1.2,
		BaseSpeed:      1.2,
		BaseBrightness: 0.1,
		BaseColor:      "#FFFFFF",
		HueRange:       0,
		Saturation:     0,
		Preset:         "Mercury",
	}
)

// Blob is one metaball.
type Blob struct {
	X, Y, VX, VY float64
	Radius       float64
}

type Effect struct {
	effect.Base[Params]

	env     effect.Env
	blobs   []Blob
	last    time.Time
	hue     float64
	hueFrom string
}

func New(env effect.Env) *Effect {
	env = env.WithDefaults()
	e := &Effect{env: env}
	e.Base = effect.NewBase(Name, transition.Config[Params]{
		Fields: []transition.Field[Params]{
			transition.Count("numBlobs", func(p *Params) *int { return &p.NumBlobs }),
			transition.Lerp("threshold", func(p *Params) *float64 { return &p.Threshold }),
			transition.Lerp("baseSpeed", func(p *Params) *float64 { return &p.BaseSpeed }),
			transition.Lerp("baseBrightness", func(p *Params) *float64 { return &p.BaseBrightness }),
			transition.Instant("baseColor", func(p *Params) *string { return &p.BaseColor }),
			transition.Lerp("hueRange", func(p *Params) *float64 { return &p.HueRange }),
			transition.Lerp("saturation", func(p *Params) *float64 { return &p.Saturation }),
		},
		Presets: []transition.Preset[Params]{
			{Name: "ClassicLava", Params: ClassicLava},
			{Name: "Mercury", Params: Mercury},
		},
		Name:  func(p *Params) *string { return &p.Preset },
		Clamp: clamp,
		Reset: e.reset,
		Now:   env.Now,
	}, apply)
	return e
}

func apply(f transition.Fields, p *Params) {
	f.Int("numBlobs", &p.NumBlobs)
	f.Float("threshold", &p.Threshold)
	f.Float("baseSpeed", &p.BaseSpeed)
	f.Float("baseBrightness", &p.BaseBrightness)
	var hex string
	if f.String("baseColor", &hex) {
		if _, err := led.ParseHex(hex); err != nil {
			log.Warn().Err(err).Str("effect", Name).Str("baseColor", hex).Msg("bad base color; ignored")
		} else {
			p.BaseColor = hex
		}
	}
	f.Float("hueRange", &p.HueRange)
	f.Float("saturation", &p.Saturation)
}

func clamp(p *Params) {
	p.NumBlobs = transition.ClampInt(p.NumBlobs, 1, 16)
	p.Threshold = transition.Clamp(p.Threshold, 0.01, 100)
	p.BaseSpeed = transition.Clamp(p.BaseSpeed, 0, 20)
	p.BaseBrightness = transition.Clamp(p.BaseBrightness, 0, 1)
	p.HueRange = transition.Clamp(p.HueRange, -1, 1)
	p.Saturation = transition.Clamp(p.Saturation, 0, 1)
}

func (e *Effect) Blobs() []Blob { return e.blobs }

func (e *Effect) reset(p Params) {
	w, h := float64(e.env.Width()), float64(e.env.Height())
	e.blobs = make([]Blob, p.NumBlobs)
	for i := range e.blobs {
		e.blobs[i] = Blob{
			X:      e.env.Uniform(0, w),
			Y:      e.env.Uniform(0, h),
			VX:     e.env.Uniform(-1, 1) * p.BaseSpeed,
			VY:     e.env.Uniform(-1, 1) * p.BaseSpeed,
			Radius: e.env.Uniform(1.5, 2.5),
		}
	}
}

// baseHue caches the hue of the configured color. A bad color keeps the
// last good hue.
func (e *Effect) baseHue(hex string) float64 {
	if hex == e.hueFrom {
		return e.hue
	}
	e.hueFrom = hex
	c, err := led.ParseHex(hex)
	if err != nil {
		log.Warn().Err(err).Str("effect", Name).Str("baseColor", hex).Msg("bad base color; keeping hue")
		return e.hue
	}
	e.hue = c.Hue()
	return e.hue
}

// Energy sums r^2/d^2 over every blob at point x,y.
func Energy(blobs []Blob, x, y float64) float64 {
	var total float64
	for _, b := range blobs {
		dx, dy := x-b.X, y-b.Y
		d := dx*dx + dy*dy
		if d == 0 {
			d = 0.0001
		}
		total += b.Radius * b.Radius / d
	}
	return total
}

func (e *Effect) Update() {
	now := e.env.Now()
	p := e.Engine.Step()

	dt := maxDT
	if !e.last.IsZero() {
		dt = math.Max(0, math.Min(now.Sub(e.last).Seconds(), maxDT))
	}
	e.last = now

	w, h := float64(e.env.Width()), float64(e.env.Height())
	for i := range e.blobs {
		b := &e.blobs[i]
		b.X += b.VX * dt * p.BaseSpeed
		b.Y += b.VY * dt * p.BaseSpeed
		if b.X < 0 || b.X > w-1 {
			b.VX = -b.VX
		}
		if b.Y < 0 || b.Y > h-1 {
			b.VY = -b.VY
		}
	}

	hue := e.baseHue(p.BaseColor)
	e.env.Clear()
	for y := 0; y < e.env.Height(); y++ {
		for x := 0; x < e.env.Width(); x++ {
			energy := Energy(e.blobs, float64(x)+0.5, float64(y)+0.5)
			if energy <= p.Threshold {
				continue
			}
			excess := energy - p.Threshold
			b := transition.Clamp(excess*0.5, 0, 1) * p.BaseBrightness
			e.env.Set(x, y, led.HSB(hue+transition.Clamp(excess*0.2, 0, 1)*p.HueRange, p.Saturation, b))
		}
	}
}
