// Package ripple spawns expanding rings from the center of the matrix.
package ripple

import (
	"math"
	"time"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

const Name = "ripple"

type Params struct {
	MaxRipples     int     `json:"maxRipples"`
	Speed          float64 `json:"speed"`
	Acceleration   float64 `json:"acceleration"`
	Thickness      float64 `json:"thickness"`
	SpawnIntervalS float64 `json:"spawnIntervalS"`
	MaxRadius      float64 `json:"maxRadius"`
	RandomOrigin   bool    `json:"randomOrigin"`
	Saturation     float64 `json:"saturation"`
	BaseBrightness float64 `json:"baseBrightness"`
	// Sharpness is the exponent on the cosine falloff; 1 is soft.
	Sharpness float64 `json:"sharpness"`
	Preset    string  `json:"prePara"`
}

var (
	WaterDrop = Params{
		MaxRipples:     5,
		Speed:          4,
		Thickness:      2,
		SpawnIntervalS: 2,
		MaxRadius:      16 * 1.2,
		Saturation:     1,
		BaseBrightness: 0.8,
		Sharpness:      1,
		Preset:         "WaterDrop",
	}
	EnergyPulse = Params{
		MaxRipples:     8,
		Speed:          8,
		Thickness:      1.5,
		SpawnIntervalS: 0.5,
		MaxRadius:      16 * 1.5,
		RandomOrigin:   true,
		Saturation:     0.7,
		BaseBrightness: 0.9,
		Sharpness:      2.5,
		Preset:         "EnergyPulse",
	}
)

type Ripple struct {
	Active  bool
	X, Y    float64
	Hue     float64
	Started time.Time
}

type Effect struct {
	effect.Base[Params]

	env       effect.Env
	ripples   []Ripple
	next      int
	lastSpawn time.Time
}

func New(env effect.Env) *Effect {
	env = env.WithDefaults()
	e := &Effect{env: env}
	e.Base = effect.NewBase(Name, transition.Config[Params]{
		Fields: []transition.Field[Params]{
			transition.Count("maxRipples", func(p *Params) *int { return &p.MaxRipples }),
			transition.Lerp("speed", func(p *Params) *float64 { return &p.Speed }),
			transition.Lerp("acceleration", func(p *Params) *float64 { return &p.Acceleration }),
			transition.Lerp("thickness", func(p *Params) *float64 { return &p.Thickness }),
			transition.Lerp("spawnIntervalS", func(p *Params) *float64 { return &p.SpawnIntervalS }),
			transition.Lerp("maxRadius", func(p *Params) *float64 { return &p.MaxRadius }),
			transition.Midpoint("randomOrigin", func(p *Params) *bool { return &p.RandomOrigin }),
			transition.Lerp("saturation", func(p *Params) *float64 { return &p.Saturation }),
			transition.Lerp("baseBrightness", func(p *Params) *float64 { return &p.BaseBrightness }),
			transition.Lerp("sharpness", func(p *Params) *float64 { return &p.Sharpness }),
		},
		Presets: []transition.Preset[Params]{
			{Name: "WaterDrop", Params: WaterDrop},
			{Name: "EnergyPulse", Params: EnergyPulse},
		},
		Name:  func(p *Params) *string { return &p.Preset },
		Clamp: clamp,
		Reset: e.reset,
		Now:   env.Now,
	}, apply)
	return e
}

func apply(f transition.Fields, p *Params) {
	f.Int("maxRipples", &p.MaxRipples)
	f.Float("speed", &p.Speed)
	f.Float("acceleration", &p.Acceleration)
	f.Float("thickness", &p.Thickness)
	f.Float("spawnIntervalS", &p.SpawnIntervalS)
	f.Float("maxRadius", &p.MaxRadius)
	f.Bool("randomOrigin", &p.RandomOrigin)
	f.Float("saturation", &p.Saturation)
	f.Float("baseBrightness", &p.BaseBrightness)
	f.Float("sharpness", &p.Sharpness)
}

func clamp(p *Params) {
	p.MaxRipples = transition.ClampInt(p.MaxRipples, 1, 32)
	p.Speed = transition.Clamp(p.Speed, 0, 200)
	p.Acceleration = transition.Clamp(p.Acceleration, -50, 50)
	p.Thickness = transition.Clamp(p.Thickness, 0.1, 16)
	p.SpawnIntervalS = transition.Clamp(p.SpawnIntervalS, 0.05, 60)
	p.MaxRadius = transition.Clamp(p.MaxRadius, 1, 64)
	p.Saturation = transition.Clamp(p.Saturation, 0, 1)
	p.BaseBrightness = transition.Clamp(p.BaseBrightness, 0, 1)
	p.Sharpness = transition.Clamp(p.Sharpness, 0.1, 10)
}

func (e *Effect) Ripples() []Ripple { return e.ripples }

func (e *Effect) reset(p Params) {
	e.ripples = make([]Ripple, p.MaxRipples)
	e.next = 0
}

// Radius of a ripple el seconds after it spawned. The band starts half a
// thickness inside the origin so it grows in from nothing.
func Radius(p Params, el float64) float64 {
	return el*p.Speed - p.Thickness/2 + p.Acceleration*el
}

func (e *Effect) Update() {
	now := e.env.Now()
	p := e.Engine.Step()

	interval := time.Duration(p.SpawnIntervalS * float64(time.Second))
	if e.lastSpawn.IsZero() || now.Sub(e.lastSpawn) >= interval {
		e.lastSpawn = now
		e.spawn(p, now)
	}

	type ring struct {
		x, y, hue, radius float64
	}
	var rings []ring
	for i := range e.ripples {
		r := &e.ripples[i]
		if !r.Active {
			continue
		}
		radius := Radius(p, now.Sub(r.Started).Seconds())
		if radius > p.MaxRadius+p.Thickness/2 {
			r.Active = false
			continue
		}
		rings = append(rings, ring{r.X, r.Y, r.Hue, radius})
	}

	e.env.Clear()
	half := p.Thickness / 2
	for y := 0; y < e.env.Height(); y++ {
		for x := 0; x < e.env.Width(); x++ {
			cx, cy := float64(x)+0.5, float64(y)+0.5
			best, hue := 0.0, 0.0
			for _, r := range rings {
				edge := math.Abs(math.Hypot(cx-r.x, cy-r.y) - r.radius)
				if edge >= half {
					continue
				}
				in := transition.Clamp(math.Pow(math.Cos(edge/half*math.Pi/2), p.Sharpness), 0, 1)
				if in > best {
					best, hue = in, r.hue
				}
			}
			if best > 0 {
				e.env.Set(x, y, led.HSB(hue, p.Saturation, best*p.BaseBrightness))
			}
		}
	}
}

func (e *Effect) spawn(p Params, now time.Time) {
	w, h := float64(e.env.Width()), float64(e.env.Height())
	x, y := w/2, h/2
	if p.RandomOrigin {
		x = transition.Clamp(x+e.env.Uniform(-w*0.2, w*0.2), 0.5, w-0.5)
		y = transition.Clamp(y+e.env.Uniform(-h*0.2, h*0.2), 0.5, h-0.5)
	}
	e.ripples[e.next] = Ripple{Active: true, X: x, Y: y, Hue: e.env.Rand.Float64(), Started: now}
	e.next = (e.next + 1) % len(e.ripples)
}
