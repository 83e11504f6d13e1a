// Package rain drops falling glyph streams down each column of the matrix.
package rain

import (
	"math"
	"time"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

const Name = "code_rain"

const (
	minDT = 0.001
	maxDT = 0.1
)

type Params struct {
	MinSpeed      float64 `json:"minSpeed"`
	MaxSpeed      float64 `json:"maxSpeed"`
	MinLength     int     `json:"minStreamLength"`
	MaxLength     int     `json:"maxStreamLength"`
	SpawnProb     float64 `json:"spawnProbability"`
	MinCooldownMs int     `json:"minSpawnCooldownMs"`
	MaxCooldownMs int     `json:"maxSpawnCooldownMs"`
	BaseHue       float64 `json:"baseHue"`
	HueVariation  float64 `json:"hueVariation"`
	Saturation    float64 `json:"saturation"`
	// BaseBrightness is 0..255.
	BaseBrightness int    `json:"baseBrightness"`
	Preset         string `json:"prePara"`
}

var (
	ClassicMatrix = Params{
		MinSpeed:       12,
		MaxSpeed:       20,
		MinLength:      3,
		MaxLength:      7,
		SpawnProb:      0.15,
		MinCooldownMs:  100,
		MaxCooldownMs:  400,
		BaseHue:        0.33,
		HueVariation:   0.05,
		Saturation:     1,
		BaseBrightness: 220,
		Preset:         "ClassicMatrix",
	}
	FastGlitch = Params{
		MinSpeed:       25,
		MaxSpeed:       50,
		MinLength:      2,
		MaxLength:      5,
		SpawnProb:      0.3,
		MinCooldownMs:  20,
		MaxCooldownMs:  100,
		BaseHue:        0,
		HueVariation:   0.02,
		Saturation:     1,
		BaseBrightness: 255,
		Preset:         "FastGlitch",
	}
)

// Stream is the state of one column.
type Stream struct {
	Active   bool
	Y        float64
	Speed    float64
	Length   int
	Hue      float64
	lastSeen time.Time
	cooldown time.Duration
}

type Effect struct {
	effect.Base[Params]

	env     effect.Env
	streams []Stream
	last    time.Time
}

func New(env effect.Env) *Effect {
	env = env.WithDefaults()
	e := &Effect{env: env}
	e.Base = effect.NewBase(Name, transition.Config[Params]{
		Fields: []transition.Field[Params]{
			transition.Lerp("minSpeed", func(p *Params) *float64 { return &p.MinSpeed }),
			transition.Lerp("maxSpeed", func(p *Params) *float64 { return &p.MaxSpeed }),
			transition.LerpInt("minStreamLength", func(p *Params) *int { return &p.MinLength }),
			transition.LerpInt("maxStreamLength", func(p *Params) *int { return &p.MaxLength }),
			transition.Lerp("spawnProbability", func(p *Params) *float64 { return &p.SpawnProb }),
			transition.LerpInt("minSpawnCooldownMs", func(p *Params) *int { return &p.MinCooldownMs }),
			transition.LerpInt("maxSpawnCooldownMs", func(p *Params) *int { return &p.MaxCooldownMs }),
			transition.Lerp("baseHue", func(p *Params) *float64 { return &p.BaseHue }),
			transition.Lerp("hueVariation", func(p *Params) *float64 { return &p.HueVariation }),
			transition.Lerp("saturation", func(p *Params) *float64 { return &p.Saturation }),
			transition.LerpInt("baseBrightness", func(p *Params) *int { return &p.BaseBrightness }),
		},
		Presets: []transition.Preset[Params]{
			{Name: "ClassicMatrix", Params: ClassicMatrix},
			{Name: "FastGlitch", Params: FastGlitch},
		},
		Name:  func(p *Params) *string { return &p.Preset },
		Clamp: clamp,
		Now:   env.Now,
	}, apply)
	e.streams = make([]Stream, env.Width())
	e.reset(e.Engine.Active())
	return e
}

func apply(f transition.Fields, p *Params) {
	f.Float("minSpeed", &p.MinSpeed)
	f.Float("maxSpeed", &p.MaxSpeed)
	f.Int("minStreamLength", &p.MinLength)
	f.Int("maxStreamLength", &p.MaxLength)
	f.Float("spawnProbability", &p.SpawnProb)
	f.Int("minSpawnCooldownMs", &p.MinCooldownMs)
	f.Int("maxSpawnCooldownMs", &p.MaxCooldownMs)
	f.Float("baseHue", &p.BaseHue)
	f.Float("hueVariation", &p.HueVariation)
	f.Float("saturation", &p.Saturation)
	f.Int("baseBrightness", &p.BaseBrightness)
}

func clamp(p *Params) {
	p.MinSpeed = transition.Clamp(p.MinSpeed, 0.1, 200)
	p.MaxSpeed = transition.Clamp(p.MaxSpeed, p.MinSpeed, 200)
	p.MinLength = transition.ClampInt(p.MinLength, 1, 32)
	p.MaxLength = transition.ClampInt(p.MaxLength, p.MinLength, 32)
	p.SpawnProb = transition.Clamp(p.SpawnProb, 0, 1)
	p.MinCooldownMs = transition.ClampInt(p.MinCooldownMs, 0, 60000)
	p.MaxCooldownMs = transition.ClampInt(p.MaxCooldownMs, p.MinCooldownMs, 60000)
	p.BaseHue = transition.Clamp(p.BaseHue, 0, 1)
	p.HueVariation = transition.Clamp(p.HueVariation, 0, 0.5)
	p.Saturation = transition.Clamp(p.Saturation, 0, 1)
	p.BaseBrightness = transition.ClampInt(p.BaseBrightness, 0, 255)
}

func (e *Effect) Streams() []Stream { return e.streams }

func (e *Effect) reset(p Params) {
	now := e.env.Now()
	for i := range e.streams {
		e.streams[i] = Stream{lastSeen: now, cooldown: e.cooldown(p)}
	}
}

func (e *Effect) cooldown(p Params) time.Duration {
	return time.Duration(e.env.Between(p.MinCooldownMs, p.MaxCooldownMs)) * time.Millisecond
}

func (e *Effect) Update() {
	now := e.env.Now()
	p := e.Engine.Step()

	dt := minDT
	if !e.last.IsZero() {
		dt = now.Sub(e.last).Seconds()
	}
	if dt <= minDT {
		dt = minDT
	}
	if dt > maxDT {
		dt = maxDT
	}
	e.last = now

	h := e.env.Height()
	for x := range e.streams {
		s := &e.streams[x]
		if s.Active {
			s.Y += s.Speed * dt
			if s.Y-float64(s.Length) >= float64(h) {
				s.Active = false
				s.lastSeen = now
				s.cooldown = e.cooldown(p)
			}
			continue
		}
		if now.Sub(s.lastSeen) >= s.cooldown && e.env.Chance(p.SpawnProb) {
			e.spawn(s, p, h)
			s.lastSeen = now
		}
	}

	e.env.Clear()
	scale := float64(p.BaseBrightness) / 255
	for x, s := range e.streams {
		if !s.Active {
			continue
		}
		for l := 0; l < s.Length; l++ {
			y := int(math.Floor(s.Y - 1 - float64(l)))
			if y < 0 || y >= h {
				continue
			}
			e.env.Set(x, y, led.HSB(s.Hue, p.Saturation, e.tail(l, s.Length)*scale))
		}
	}
}

func (e *Effect) spawn(s *Stream, p Params, h int) {
	s.Active = true
	s.Y = -float64(e.env.Between(0, 2*h-1))
	s.Speed = e.env.Uniform(p.MinSpeed, p.MaxSpeed)
	s.Length = e.env.Between(p.MinLength, p.MaxLength)
	s.Hue = p.BaseHue + e.env.Uniform(-p.HueVariation, p.HueVariation)
	if s.Hue < 0 {
		s.Hue++
	}
	if s.Hue > 1 {
		s.Hue--
	}
}

// tail is the brightness factor of segment l; the head is always full.
func (e *Effect) tail(l, length int) float64 {
	if l == 0 {
		return 1
	}
	span := length - 1
	if span < 1 {
		span = 1
	}
	f := transition.Clamp(0.8*(1-float64(l)/float64(span)), 0.05, 0.8)
	if e.env.Chance(0.1) {
		f *= e.env.Uniform(0.7, 1)
	}
	return f
}
