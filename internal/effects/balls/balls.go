// Package balls bounces colored balls around the matrix under live tilt.
package balls

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

const Name = "gravity_balls"

// Radius of every ball in pixels.
const Radius = 0.5

const (
	minDT = 0.001
	maxDT = 0.1
)

type Params struct {
	NumBalls         int     `json:"numBalls"`
	GravityScale     float64 `json:"gravityScale"`
	Damping          float64 `json:"dampingFactor"`
	DeadZone         float64 `json:"sensorDeadZone"`
	Restitution      float64 `json:"restitution"`
	BaseBrightness   int     `json:"baseBrightness"`
	BrightnessCycleS float64 `json:"brightnessCyclePeriodS"`
	MinBrightness    float64 `json:"minBrightnessScale"`
	MaxBrightness    float64 `json:"maxBrightnessScale"`
	ColorCycleS      float64 `json:"colorCyclePeriodS"`
	Saturation       float64 `json:"ballColorSaturation"`
	Preset           string  `json:"prePara"`
}

var (
	Bouncy = Params{
		NumBalls:         15,
		GravityScale:     25,
		Damping:          0.95,
		DeadZone:         0.8,
		Restitution:      0.75,
		BaseBrightness:   80,
		BrightnessCycleS: 3,
		MinBrightness:    0.2,
		MaxBrightness:    1,
		ColorCycleS:      10,
		Saturation:       1,
		Preset:           "Bouncy",
	}
	// Plasma: more balls, slippery and sluggish.
	Plasma = Params{
		NumBalls:         30,
		GravityScale:     40,
		Damping:          0.98,
		DeadZone:         1,
		Restitution:      0.4,
		BaseBrightness:   120,
		BrightnessCycleS: 5,
		MinBrightness:    0.4,
		MaxBrightness:    1,
		ColorCycleS:      15,
		Saturation:       0.8,
		Preset:           "Plasma",
	}
)

type Ball struct {
	X, Y, VX, VY float64

	Hue, Brightness float64
	hueOffset       float64
	brightOffset    float64
}

type Effect struct {
	effect.Base[Params]

	env   effect.Env
	balls []Ball
	last  time.Time
	epoch time.Time

	sensorDown bool
}

func New(env effect.Env) *Effect {
	env = env.WithDefaults()
	e := &Effect{env: env, epoch: env.Now()}
	e.Base = effect.NewBase(Name, transition.Config[Params]{
		Fields: []transition.Field[Params]{
			transition.Count("numBalls", func(p *Params) *int { return &p.NumBalls }),
			transition.Lerp("gravityScale", func(p *Params) *float64 { return &p.GravityScale }),
			transition.Lerp("dampingFactor", func(p *Params) *float64 { return &p.Damping }),
			transition.Lerp("sensorDeadZone", func(p *Params) *float64 { return &p.DeadZone }),
			transition.Lerp("restitution", func(p *Params) *float64 { return &p.Restitution }),
			transition.LerpInt("baseBrightness", func(p *Params) *int { return &p.BaseBrightness }),
			transition.Lerp("brightnessCyclePeriodS", func(p *Params) *float64 { return &p.BrightnessCycleS }),
			transition.Lerp("minBrightnessScale", func(p *Params) *float64 { return &p.MinBrightness }),
			transition.Lerp("maxBrightnessScale", func(p *Params) *float64 { return &p.MaxBrightness }),
			transition.Lerp("colorCyclePeriodS", func(p *Params) *float64 { return &p.ColorCycleS }),
			transition.Lerp("ballColorSaturation", func(p *Params) *float64 { return &p.Saturation }),
		},
		Presets: []transition.Preset[Params]{{Name: "Bouncy", Params: Bouncy}, {Name: "Plasma", Params: Plasma}},
		Name:    func(p *Params) *string { return &p.Preset },
		Clamp:   clamp,
		Reset:   e.reset,
		Now:     env.Now,
	}, apply)
	return e
}

func apply(f transition.Fields, p *Params) {
	f.Int("numBalls", &p.NumBalls)
	f.Float("gravityScale", &p.GravityScale)
	f.Float("dampingFactor", &p.Damping)
	f.Float("sensorDeadZone", &p.DeadZone)
	f.Float("restitution", &p.Restitution)
	f.Int("baseBrightness", &p.BaseBrightness)
	f.Float("brightnessCyclePeriodS", &p.BrightnessCycleS)
	f.Float("minBrightnessScale", &p.MinBrightness)
	f.Float("maxBrightnessScale", &p.MaxBrightness)
	f.Float("colorCyclePeriodS", &p.ColorCycleS)
	f.Float("ballColorSaturation", &p.Saturation)
}

func clamp(p *Params) {
	p.NumBalls = transition.ClampInt(p.NumBalls, 1, 64)
	p.GravityScale = transition.Clamp(p.GravityScale, 0, 200)
	p.Damping = transition.Clamp(p.Damping, 0, 1)
	p.DeadZone = transition.Clamp(p.DeadZone, 0, 20)
	p.Restitution = transition.Clamp(p.Restitution, 0, 1)
	p.BaseBrightness = transition.ClampInt(p.BaseBrightness, 0, 255)
	p.BrightnessCycleS = transition.Clamp(p.BrightnessCycleS, 0.1, 600)
	p.MinBrightness = transition.Clamp(p.MinBrightness, 0, 1)
	p.MaxBrightness = transition.Clamp(p.MaxBrightness, p.MinBrightness, 1)
	p.ColorCycleS = transition.Clamp(p.ColorCycleS, 0.1, 600)
	p.Saturation = transition.Clamp(p.Saturation, 0, 1)
}

// Balls exposes the simulation state.
func (e *Effect) Balls() []Ball { return e.balls }

// reset drops every ball and scatters a new set without overlaps.
func (e *Effect) reset(p Params) {
	w, h := float64(e.env.Width()), float64(e.env.Height())
	minSq := (2 * Radius) * (2 * Radius)
	e.balls = make([]Ball, p.NumBalls)
	for i := range e.balls {
		b := &e.balls[i]
		for attempt := 0; attempt < 100; attempt++ {
			b.X = e.env.Uniform(Radius, w-Radius)
			b.Y = e.env.Uniform(Radius, h-Radius)
			free := true
			for j := 0; j < i; j++ {
				dx, dy := b.X-e.balls[j].X, b.Y-e.balls[j].Y
				if dx*dx+dy*dy < minSq {
					free = false
					break
				}
			}
			if free {
				break
			}
		}
		b.brightOffset = e.env.Uniform(0, 2*math.Pi)
		b.hueOffset = e.env.Uniform(0, 2*math.Pi)
		b.Brightness = p.MinBrightness
		b.Hue = wrap(b.hueOffset / (2 * math.Pi))
	}
}

func (e *Effect) Update() {
	now := e.env.Now()
	p := e.Engine.Step()

	dt := maxDT
	if !e.last.IsZero() {
		dt = now.Sub(e.last).Seconds()
	}
	if dt <= 0.0001 {
		dt = minDT
	}
	if dt > maxDT {
		dt = maxDT
	}
	e.last = now
	elapsed := now.Sub(e.epoch).Seconds()

	ax, az := e.tilt(p.DeadZone)
	fx := -ax * p.GravityScale
	fy := az * p.GravityScale

	w, h := float64(e.env.Width()), float64(e.env.Height())
	for i := range e.balls {
		b := &e.balls[i]
		wave := (math.Sin(2*math.Pi/p.BrightnessCycleS*elapsed+b.brightOffset) + 1) / 2
		b.Brightness = p.MinBrightness + wave*(p.MaxBrightness-p.MinBrightness)
		b.Hue = wrap((2*math.Pi/p.ColorCycleS*elapsed + b.hueOffset) / (2 * math.Pi))

		Integrate(b, fx, fy, p.Damping, dt)
		Bounce(b, w, h, p.Restitution)
	}
	Collide(e.balls, p.Restitution)

	e.env.Clear()
	scale := float64(p.BaseBrightness) / 255
	for _, b := range e.balls {
		x := clampPixel(int(math.Round(b.X-Radius)), e.env.Width())
		y := clampPixel(int(math.Round(b.Y-Radius)), e.env.Height())
		e.env.Set(x, y, led.HSB(b.Hue, p.Saturation, b.Brightness*scale))
	}
}

func (e *Effect) tilt(deadZone float64) (ax, az float64) {
	if e.env.Sensor == nil {
		return 0, 0
	}
	x, _, z, err := e.env.Sensor.Acceleration()
	if err != nil {
		if !e.sensorDown {
			log.Warn().Err(err).Str("effect", Name).Msg("accelerometer read failed; holding level")
			e.sensorDown = true
		}
		return 0, 0
	}
	e.sensorDown = false
	return DeadZone(x, deadZone), DeadZone(z, deadZone)
}

// DeadZone zeroes readings whose magnitude is below dz.
func DeadZone(v, dz float64) float64 {
	if math.Abs(v) < dz {
		return 0
	}
	return v
}

// Integrate is one semi-implicit Euler step.
func Integrate(b *Ball, fx, fy, damping, dt float64) {
	b.VX += fx * dt
	b.VY += fy * dt
	b.VX *= damping
	b.VY *= damping
	b.X += b.VX * dt
	b.Y += b.VY * dt
}

// Bounce keeps a ball inside w x h, reflecting velocity scaled by restitution.
func Bounce(b *Ball, w, h, restitution float64) {
	if b.X < Radius {
		b.X = Radius
		b.VX *= -restitution
	} else if b.X > w-Radius {
		b.X = w - Radius
		b.VX *= -restitution
	}
	if b.Y < Radius {
		b.Y = Radius
		b.VY *= -restitution
	} else if b.Y > h-Radius {
		b.Y = h - Radius
		b.VY *= -restitution
	}
}

// Collide resolves every overlapping pair: an impulse along the contact normal
// when the pair is closing, then each ball moves half the overlap apart.
func Collide(balls []Ball, restitution float64) {
	minDist := 2 * Radius
	for i := range balls {
		for j := i + 1; j < len(balls); j++ {
			a, b := &balls[i], &balls[j]
			dx, dy := b.X-a.X, b.Y-a.Y
			distSq := dx*dx + dy*dy
			if distSq >= minDist*minDist || distSq <= 1e-5 {
				continue
			}
			dist := math.Sqrt(distSq)
			nx, ny := dx/dist, dy/dist

			vn := (b.VX-a.VX)*nx + (b.VY-a.VY)*ny
			if vn < 0 {
				imp := -(1 + restitution) * vn / 2
				a.VX -= imp * nx
				a.VY -= imp * ny
				b.VX += imp * nx
				b.VY += imp * ny
			}

			overlap := minDist - dist
			a.X -= nx * overlap / 2
			a.Y -= ny * overlap / 2
			b.X += nx * overlap / 2
			b.Y += ny * overlap / 2
		}
	}
}

func clampPixel(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func wrap(h float64) float64 {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	return h
}
