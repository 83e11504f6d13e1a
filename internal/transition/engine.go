package transition

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultDuration is the crossfade applied to every parameter change.
const DefaultDuration = 500 * time.Millisecond

// PresetField is the payload key naming a built-in preset.
const PresetField = "prePara"

// NextPreset cycles to the preset after the one currently targeted.
const NextPreset = "next"

var ErrUnknownPreset = errors.New("unknown preset")

type Preset[P any] struct {
	Name   string
	Params P
}

type Config[P any] struct {
	// Effect names the owner in logs.
	Effect string

	Fields  []Field[P]
	Presets []Preset[P]

	// Name points at the preset identity carried by P.
	Name func(*P) *string
	// Clamp forces every field into its valid range.
	Clamp func(*P)
	// Reset rebuilds entity state from the active set. It runs once at
	// construction and again whenever a resetting field changes.
	Reset func(active P)

	Duration time.Duration
	Now      func() time.Time
}

// Engine blends an active parameter set toward a target over a fixed duration.
// Rendering must only read Active (or the value returned by Step).
type Engine[P any] struct {
	cfg Config[P]

	old, active, target P
	start               time.Time
	running             bool
}

// New seeds all three slots with the first preset.
func New[P any](cfg Config[P]) *Engine[P] {
	if len(cfg.Presets) == 0 {
		panic("transition: at least one preset is required")
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	e := &Engine[P]{cfg: cfg}
	p := cfg.Presets[0].Params
	if cfg.Clamp != nil {
		cfg.Clamp(&p)
	}
	e.old, e.active, e.target = p, p, p
	if cfg.Reset != nil {
		cfg.Reset(e.active)
	}
	return e
}

func (e *Engine[P]) Active() P     { return e.active }
func (e *Engine[P]) Target() P     { return e.target }
func (e *Engine[P]) Old() P        { return e.old }
func (e *Engine[P]) Running() bool { return e.running }

// Current is the set further edits start from: the target while a blend is
// running, the active set otherwise.
func (e *Engine[P]) Current() P {
	if e.running {
		return e.target
	}
	return e.active
}

// Set starts a blend from the current active set toward p.
func (e *Engine[P]) Set(p P) {
	if e.cfg.Clamp != nil {
		e.cfg.Clamp(&p)
	}
	e.old = e.active
	e.target = p

	reset := false
	for _, f := range e.cfg.Fields {
		if f.policy != instantPolicy || !f.differs(&e.target, &e.old) {
			continue
		}
		f.assign(&e.active, &e.target)
		f.assign(&e.old, &e.target)
		if f.resets {
			reset = true
			log.Debug().Str("effect", e.cfg.Effect).Str("field", f.Name).Msg("entity reset")
		}
	}
	if e.cfg.Name != nil {
		*e.cfg.Name(&e.active) = *e.cfg.Name(&e.target)
		*e.cfg.Name(&e.old) = *e.cfg.Name(&e.target)
	}
	if reset && e.cfg.Reset != nil {
		e.cfg.Reset(e.active)
	}

	e.start = e.cfg.Now()
	e.running = true
	log.Debug().Str("effect", e.cfg.Effect).Str("preset", e.PresetName()).Msg("transition started")
}

// Progress returns the blend factor in [0,1].
func (e *Engine[P]) Progress() float64 {
	if !e.running {
		return 1
	}
	elapsed := e.cfg.Now().Sub(e.start)
	return Clamp(float64(elapsed)/float64(e.cfg.Duration), 0, 1)
}

// Step advances the blend and returns the active set.
func (e *Engine[P]) Step() P {
	if !e.running {
		return e.active
	}
	t := e.Progress()
	for _, f := range e.cfg.Fields {
		if f.blend != nil {
			f.blend(&e.active, &e.old, &e.target, t)
		}
	}
	if t >= 1 {
		e.active = e.target
		e.running = false
		log.Debug().Str("effect", e.cfg.Effect).Msg("transition complete")
	}
	return e.active
}

// PresetName is the preset identity of the current set.
func (e *Engine[P]) PresetName() string {
	if e.cfg.Name == nil {
		return ""
	}
	p := e.Current()
	return *e.cfg.Name(&p)
}

func (e *Engine[P]) Presets() []string {
	names := make([]string, 0, len(e.cfg.Presets))
	for _, p := range e.cfg.Presets {
		names = append(names, p.Name)
	}
	return names
}

func (e *Engine[P]) Preset(name string) (P, bool) {
	for _, p := range e.cfg.Presets {
		if p.Name == name {
			return p.Params, true
		}
	}
	var zero P
	return zero, false
}

// SetPreset loads a named preset, or cycles with "next".
func (e *Engine[P]) SetPreset(name string) error {
	if name == NextPreset {
		e.Set(e.next())
		return nil
	}
	p, ok := e.Preset(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	e.Set(p)
	return nil
}

func (e *Engine[P]) next() P {
	presets := e.cfg.Presets
	cur := e.PresetName()
	if cur == "" {
		cur = presets[0].Name
	}
	for i, p := range presets {
		if p.Name == cur {
			return presets[(i+1)%len(presets)].Params
		}
	}
	return presets[0].Params
}

// Patch decodes a JSON object and applies the keys present on top of the
// current set. A recognized preset name in the payload is loaded before the
// other keys are applied; an unrecognized one is ignored.
func (e *Engine[P]) Patch(text string, apply func(Fields, *P)) error {
	var fields Fields
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("decode params: not an object")
	}
	next := e.Current()
	if name, ok := fields[PresetField].(string); ok {
		if p, found := e.Preset(name); found {
			next = p
		} else {
			log.Warn().Str("effect", e.cfg.Effect).Str("preset", name).Msg("unknown preset in params; ignored")
		}
	}
	apply(fields, &next)
	e.Set(next)
	return nil
}
