// Package zen twinkles a few random pixels with slow triangular fades.
package zen

import (
	"time"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

const Name = "zen_lights"

type Params struct {
	MaxActive       int     `json:"maxActiveLeds"`
	MinDurationMs   int     `json:"minDurationMs"`
	MaxDurationMs   int     `json:"maxDurationMs"`
	MinPeak         float64 `json:"minPeakBrightness"`
	MaxPeak         float64 `json:"maxPeakBrightness"`
	BaseBrightness  float64 `json:"baseBrightness"`
	HueMin          float64 `json:"hueMin"`
	HueMax          float64 `json:"hueMax"`
	Saturation      float64 `json:"saturation"`
	SpawnIntervalMs int     `json:"spawnIntervalMs"`
	Preset          string  `json:"prePara"`
}

var (
	Zen = Params{
		MaxActive:       5,
		MinDurationMs:   2000,
		MaxDurationMs:   4000,
		MinPeak:         0.3,
		MaxPeak:         0.7,
		BaseBrightness:  0.5,
		HueMin:          0.5,
		HueMax:          0.6,
		Saturation:      0.8,
		SpawnIntervalMs: 500,
		Preset:          "Zen",
	}
	Firefly = Params{
		MaxActive:       8,
		MinDurationMs:   1000,
		MaxDurationMs:   3000,
		MinPeak:         0.4,
		MaxPeak:         0.9,
		BaseBrightness:  0.7,
		HueMin:          0.1,
		HueMax:          0.2,
		Saturation:      0.9,
		SpawnIntervalMs: 300,
		Preset:          "Firefly",
	}
)

// Twinkle is one lit pixel and its envelope.
type Twinkle struct {
	Active   bool
	X, Y     int
	Started  time.Time
	Duration time.Duration
	Peak     float64
	Hue      float64
}

// Level is the envelope at time now: linear rise to Peak at the midpoint,
// then linear fall. Zero once the duration has passed.
func (t Twinkle) Level(now time.Time) float64 {
	el := now.Sub(t.Started)
	if !t.Active || el >= t.Duration || t.Duration <= 0 {
		return 0
	}
	progress := float64(el) / float64(t.Duration)
	b := progress * 2
	if progress >= 0.5 {
		b = (1 - progress) * 2
	}
	return transition.Clamp(b*t.Peak, 0, 1)
}

type Effect struct {
	effect.Base[Params]

	env         effect.Env
	slots       []Twinkle
	lastAttempt time.Time
}

func New(env effect.Env) *Effect {
	env = env.WithDefaults()
	e := &Effect{env: env}
	e.Base = effect.NewBase(Name, transition.Config[Params]{
		Fields: []transition.Field[Params]{
			transition.Count("maxActiveLeds", func(p *Params) *int { return &p.MaxActive }),
			transition.LerpInt("minDurationMs", func(p *Params) *int { return &p.MinDurationMs }),
			transition.LerpInt("maxDurationMs", func(p *Params) *int { return &p.MaxDurationMs }),
			transition.Lerp("minPeakBrightness", func(p *Params) *float64 { return &p.MinPeak }),
			transition.Lerp("maxPeakBrightness", func(p *Params) *float64 { return &p.MaxPeak }),
			transition.Lerp("baseBrightness", func(p *Params) *float64 { return &p.BaseBrightness }),
			transition.Lerp("hueMin", func(p *Params) *float64 { return &p.HueMin }),
			transition.Lerp("hueMax", func(p *Params) *float64 { return &p.HueMax }),
			transition.Lerp("saturation", func(p *Params) *float64 { return &p.Saturation }),
			transition.LerpInt("spawnIntervalMs", func(p *Params) *int { return &p.SpawnIntervalMs }),
		},
		Presets: []transition.Preset[Params]{{Name: "Zen", Params: Zen}, {Name: "Firefly", Params: Firefly}},
		Name:    func(p *Params) *string { return &p.Preset },
		Clamp:   clamp,
		Reset:   e.reset,
		Now:     env.Now,
	}, apply)
	return e
}

func apply(f transition.Fields, p *Params) {
	f.Int("maxActiveLeds", &p.MaxActive)
	f.Int("minDurationMs", &p.MinDurationMs)
	f.Int("maxDurationMs", &p.MaxDurationMs)
	f.Float("minPeakBrightness", &p.MinPeak)
	f.Float("maxPeakBrightness", &p.MaxPeak)
	f.Float("baseBrightness", &p.BaseBrightness)
	f.Float("hueMin", &p.HueMin)
	f.Float("hueMax", &p.HueMax)
	f.Float("saturation", &p.Saturation)
	f.Int("spawnIntervalMs", &p.SpawnIntervalMs)
}

func clamp(p *Params) {
	p.MaxActive = transition.ClampInt(p.MaxActive, 1, 256)
	p.MinDurationMs = transition.ClampInt(p.MinDurationMs, 50, 60000)
	p.MaxDurationMs = transition.ClampInt(p.MaxDurationMs, p.MinDurationMs, 60000)
	p.MinPeak = transition.Clamp(p.MinPeak, 0, 1)
	p.MaxPeak = transition.Clamp(p.MaxPeak, p.MinPeak, 1)
	p.BaseBrightness = transition.Clamp(p.BaseBrightness, 0, 1)
	p.HueMin = transition.Clamp(p.HueMin, 0, 1)
	p.HueMax = transition.Clamp(p.HueMax, p.HueMin, 1)
	p.Saturation = transition.Clamp(p.Saturation, 0, 1)
	p.SpawnIntervalMs = transition.ClampInt(p.SpawnIntervalMs, 10, 60000)
}

func (e *Effect) Slots() []Twinkle { return e.slots }

// reset resizes the slots to the cap, carrying over running twinkles that
// still fit.
func (e *Effect) reset(p Params) {
	slots := make([]Twinkle, p.MaxActive)
	n := 0
	for _, t := range e.slots {
		if t.Active && n < len(slots) {
			slots[n] = t
			n++
		}
	}
	e.slots = slots
}

func (e *Effect) Update() {
	now := e.env.Now()
	p := e.Engine.Step()

	if now.Sub(e.lastAttempt) >= time.Duration(p.SpawnIntervalMs)*time.Millisecond {
		e.lastAttempt = now
		e.activate(p, now)
	}

	e.env.Clear()
	for i := range e.slots {
		t := &e.slots[i]
		if !t.Active {
			continue
		}
		if now.Sub(t.Started) >= t.Duration {
			t.Active = false
			continue
		}
		e.env.Set(t.X, t.Y, led.HSB(t.Hue, p.Saturation, t.Level(now)))
	}
}

// activate lights one more pixel if a slot is free.
func (e *Effect) activate(p Params, now time.Time) {
	free := -1
	for i, t := range e.slots {
		if !t.Active {
			free = i
			break
		}
	}
	if free < 0 {
		return
	}
	w, h := e.env.Width(), e.env.Height()
	for attempt := 0; attempt < 2*w*h; attempt++ {
		x, y := e.env.Rand.IntN(w), e.env.Rand.IntN(h)
		if e.lit(x, y) {
			continue
		}
		e.slots[free] = Twinkle{
			Active:   true,
			X:        x,
			Y:        y,
			Started:  now,
			Duration: time.Duration(e.env.Between(p.MinDurationMs, p.MaxDurationMs)) * time.Millisecond,
			Peak:     p.BaseBrightness * e.env.Uniform(p.MinPeak, p.MaxPeak),
			Hue:      e.env.Uniform(p.HueMin, p.HueMax),
		}
		return
	}
}

func (e *Effect) lit(x, y int) bool {
	for _, t := range e.slots {
		if t.Active && t.X == x && t.Y == y {
			return true
		}
	}
	return false
}
