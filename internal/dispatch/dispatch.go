// Package dispatch owns every effect instance, routes commands to the active
// one and ticks it.
package dispatch

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-arcaluminis/internal/diagnostics"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/anim"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/balls"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/lava"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/rain"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/ripple"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/text"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/zen"
	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
)

var ErrUnknownEffect = errors.New("unknown effect")

// Factory builds an effect bound to the shared environment.
type Factory func(env effect.Env) effect.Effect

// Status is a snapshot safe to read from any goroutine.
type Status struct {
	Effect  string   `json:"effect"`
	Preset  string   `json:"preset"`
	Presets []string `json:"presets"`
	Effects []string `json:"effects"`
	Ticks   uint64   `json:"ticks"`
	Dropped uint64   `json:"queue_dropped"`
}

type Option func(*Dispatcher)

func WithClock(now func() time.Time) Option { return func(d *Dispatcher) { d.env.Now = now } }

func WithRand(r *rand.Rand) Option { return func(d *Dispatcher) { d.env.Rand = r } }

func WithDiagnostics(s diag.Sink) Option { return func(d *Dispatcher) { d.diag = s } }

func WithQueueSize(n int) Option { return func(d *Dispatcher) { d.queue = NewQueue(n) } }

// WithAnimations adds frame animations to the anim effect.
func WithAnimations(a ...anim.Animation) Option {
	return func(d *Dispatcher) { d.anims = append(d.anims, a...) }
}

// WithFactories replaces the stock effect set.
func WithFactories(f ...Factory) Option { return func(d *Dispatcher) { d.factories = f } }

type Dispatcher struct {
	env       effect.Env
	diag      diag.Sink
	queue     *Queue
	anims     []anim.Animation
	factories []Factory

	effects []effect.Effect
	byName  map[string]effect.Effect
	active  effect.Effect
	ticks   uint64

	mu     sync.RWMutex
	status Status
}

// New builds every effect against strip and sensor. The first effect is
// active. sensor may be nil.
func New(strip effect.Pixels, l layout.Layout, sensor effect.Sensor, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		env:   effect.Env{Strip: strip, Layout: l, Sensor: sensor},
		diag:  diag.Discard{},
		queue: NewQueue(DefaultQueueSize),
	}
	for _, o := range opts {
		o(d)
	}
	d.env = d.env.WithDefaults()
	if d.factories == nil {
		d.factories = d.stock()
	}

	d.byName = map[string]effect.Effect{}
	for _, f := range d.factories {
		e := f(d.env)
		d.effects = append(d.effects, e)
		d.byName[e.Name()] = e
	}
	if len(d.effects) > 0 {
		d.active = d.effects[0]
	}
	d.snapshot()
	return d
}

func (d *Dispatcher) stock() []Factory {
	return []Factory{
		func(env effect.Env) effect.Effect { return balls.New(env) },
		func(env effect.Env) effect.Effect { return rain.New(env) },
		func(env effect.Env) effect.Effect { return ripple.New(env) },
		func(env effect.Env) effect.Effect { return zen.New(env) },
		func(env effect.Env) effect.Effect { return text.New(env) },
		func(env effect.Env) effect.Effect { return lava.New(env) },
		func(env effect.Env) effect.Effect { return anim.New(env, d.anims...) },
	}
}

// Submit queues a payload for the next tick. Safe from any goroutine.
func (d *Dispatcher) Submit(payload []byte) error {
	if err := d.queue.Push(payload); err != nil {
		d.diag.Publish(diag.Diagnostic{
			Severity: diag.Warn, Code: diag.CodeQueueFull, Summary: "Command dropped",
			LikelyCauses: []string{"commands arriving faster than the frame rate"},
		})
		return err
	}
	return nil
}

// Tick applies queued commands and advances the active effect. It must only
// be called from the render loop.
func (d *Dispatcher) Tick() {
	for _, p := range d.queue.Drain() {
		_ = d.Apply(p)
	}
	if d.active != nil {
		d.active.Update()
	}
	d.ticks++
	d.snapshot()
}

// Apply decodes and routes one payload immediately: effect switch first, then
// the preset, then the parameter patch, each against the effect active at that
// point. Errors are logged and reported; state is left as it was for the part
// that failed.
func (d *Dispatcher) Apply(payload []byte) error {
	cmd, err := Decode(payload)
	if err != nil {
		log.Warn().Err(err).Msg("command dropped")
		d.diag.Publish(diag.Diagnostic{
			Severity: diag.Warn, Code: diag.CodeDecode, Summary: "Malformed command",
			Detail: err.Error(), Evidence: map[string]any{"payload": string(payload)},
		})
		return err
	}
	log.Debug().Str("effect", cmd.Effect).Str("preset", cmd.Preset).Str("params", cmd.Params).Msg("command")

	var errs []error
	if cmd.Effect != "" {
		if err := d.SetEffect(cmd.Effect); err != nil {
			errs = append(errs, err)
		}
	}
	if cmd.Preset != "" && d.active != nil {
		if err := d.active.SetPreset(cmd.Preset); err != nil {
			log.Warn().Err(err).Str("effect", d.active.Name()).Msg("preset ignored")
			d.diag.Publish(diag.Diagnostic{
				Severity: diag.Warn, Code: diag.CodeUnknownPreset, Summary: "Unknown preset",
				Evidence: map[string]any{"effect": d.active.Name(), "preset": cmd.Preset, "presets": d.active.Presets()},
			})
			errs = append(errs, err)
		} else {
			log.Info().Str("effect", d.active.Name()).Str("preset", d.active.Preset()).Msg("preset")
		}
	}
	if cmd.Params != "" && d.active != nil {
		if err := d.active.SetParameters(cmd.Params); err != nil {
			log.Warn().Err(err).Str("effect", d.active.Name()).Msg("params ignored")
			d.diag.Publish(diag.Diagnostic{
				Severity: diag.Warn, Code: diag.CodeParams, Summary: "Parameters rejected",
				Detail: err.Error(), Evidence: map[string]any{"effect": d.active.Name()},
			})
			errs = append(errs, err)
		}
	}
	d.snapshot()
	return errors.Join(errs...)
}

// SetEffect switches the active effect. Inactive effects keep their state.
func (d *Dispatcher) SetEffect(name string) error {
	e, ok := d.byName[name]
	if !ok {
		log.Warn().Str("effect", name).Msg("unknown effect; keeping current")
		d.diag.Publish(diag.Diagnostic{
			Severity: diag.Warn, Code: diag.CodeUnknownEffect, Summary: "Unknown effect",
			Evidence: map[string]any{"effect": name, "effects": d.Effects()},
		})
		return fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	if e != d.active {
		d.active = e
		log.Info().Str("effect", name).Msg("effect")
		d.diag.Publish(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeEffect, Summary: "Effect switched", Detail: name})
	}
	return nil
}

// Active is the effect being rendered. Render loop only.
func (d *Dispatcher) Active() effect.Effect { return d.active }

// Effect looks up a resident effect by name. Render loop only.
func (d *Dispatcher) Effect(name string) (effect.Effect, bool) {
	e, ok := d.byName[name]
	return e, ok
}

// Effects lists effect names in registration order.
func (d *Dispatcher) Effects() []string {
	names := make([]string, 0, len(d.effects))
	for _, e := range d.effects {
		names = append(names, e.Name())
	}
	return names
}

func (d *Dispatcher) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

func (d *Dispatcher) snapshot() {
	s := Status{Effects: d.Effects(), Ticks: d.ticks, Dropped: d.queue.Dropped()}
	if d.active != nil {
		s.Effect = d.active.Name()
		s.Preset = d.active.Preset()
		s.Presets = d.active.Presets()
	}
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}
