// Package text scrolls a line of text across the matrix in a 5x7 font.
package text

import (
	"image/color"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/transition"
)

const Name = "scrolling_text"

const (
	Left  = "left"
	Right = "right"
	Up    = "up"
	Down  = "down"
)

type Params struct {
	Text             string  `json:"text"`
	Direction        string  `json:"direction"`
	Hue              float64 `json:"hue"`
	Saturation       float64 `json:"saturation"`
	Brightness       float64 `json:"brightness"`
	ScrollIntervalMs int     `json:"scrollIntervalMs"`
	CharSpacing      int     `json:"charSpacing"`
	Preset           string  `json:"prePara"`
}

var (
	Default = Params{
		Text:             "Hello,world",
		Direction:        Left,
		Hue:              0.33,
		Saturation:       1,
		Brightness:       0.5,
		ScrollIntervalMs: 150,
		CharSpacing:      1,
		Preset:           "Default",
	}
	FastBlue = Params{
		Text:             "ESP32 MQTT",
		Direction:        Left,
		Hue:              0.66,
		Saturation:       1,
		Brightness:       0.8,
		ScrollIntervalMs: 70,
		CharSpacing:      1,
		Preset:           "FastBlue",
	}
)

// ParseDirection accepts a direction name in any case.
func ParseDirection(s string) (string, bool) {
	switch d := strings.ToLower(strings.TrimSpace(s)); d {
	case Left, Right, Up, Down:
		return d, true
	}
	return "", false
}

type Effect struct {
	effect.Base[Params]

	env        effect.Env
	panel      *panel
	runes      []rune
	width      int
	x, y       int
	lastScroll time.Time
}

func New(env effect.Env) *Effect {
	env = env.WithDefaults()
	e := &Effect{env: env, panel: &panel{env: env}}
	e.Base = effect.NewBase(Name, transition.Config[Params]{
		Fields: []transition.Field[Params]{
			transition.Instant("text", func(p *Params) *string { return &p.Text }).Resets(),
			transition.Instant("direction", func(p *Params) *string { return &p.Direction }).Resets(),
			transition.Lerp("hue", func(p *Params) *float64 { return &p.Hue }),
			transition.Lerp("saturation", func(p *Params) *float64 { return &p.Saturation }),
			transition.Lerp("brightness", func(p *Params) *float64 { return &p.Brightness }),
			transition.LerpInt("scrollIntervalMs", func(p *Params) *int { return &p.ScrollIntervalMs }),
			transition.Count("charSpacing", func(p *Params) *int { return &p.CharSpacing }),
		},
		Presets: []transition.Preset[Params]{{Name: "Default", Params: Default}, {Name: "FastBlue", Params: FastBlue}},
		Name:    func(p *Params) *string { return &p.Preset },
		Clamp:   clamp,
		Reset:   e.reset,
		Now:     env.Now,
	}, apply)
	return e
}

func apply(f transition.Fields, p *Params) {
	f.String("text", &p.Text)
	var dir string
	if f.String("direction", &dir) {
		if d, ok := ParseDirection(dir); ok {
			p.Direction = d
		} else {
			log.Warn().Str("effect", Name).Str("direction", dir).Msg("unknown scroll direction; ignored")
		}
	}
	f.Float("hue", &p.Hue)
	f.Float("saturation", &p.Saturation)
	f.Float("brightness", &p.Brightness)
	f.Int("scrollIntervalMs", &p.ScrollIntervalMs)
	f.Int("charSpacing", &p.CharSpacing)
}

func clamp(p *Params) {
	if d, ok := ParseDirection(p.Direction); ok {
		p.Direction = d
	} else {
		p.Direction = Left
	}
	p.Hue = transition.Clamp(p.Hue, 0, 1)
	p.Saturation = transition.Clamp(p.Saturation, 0, 1)
	p.Brightness = transition.Clamp(p.Brightness, 0, 1)
	p.ScrollIntervalMs = transition.ClampInt(p.ScrollIntervalMs, 10, 10000)
	p.CharSpacing = transition.ClampInt(p.CharSpacing, 0, 8)
}

// TextWidth is the pixel width of n glyphs separated by spacing.
func TextWidth(n, spacing int) int {
	if n == 0 {
		return 0
	}
	return n*GlyphWidth + (n-1)*spacing
}

// Position is the top-left corner of the text block.
func (e *Effect) Position() (x, y int) { return e.x, e.y }

func (e *Effect) reset(p Params) {
	e.runes = []rune(p.Text)
	e.width = TextWidth(len(e.runes), p.CharSpacing)
	e.x, e.y = 0, 0
	switch p.Direction {
	case Left:
		e.x = e.env.Width()
	case Right:
		e.x = -e.width
	case Up:
		e.y = e.env.Height()
	case Down:
		e.y = -GlyphHeight
	}
	e.lastScroll = e.env.Now()
}

func (e *Effect) scroll(dir string) {
	w, h := e.env.Width(), e.env.Height()
	switch dir {
	case Left:
		if e.x--; e.x+e.width <= 0 {
			e.x = w
		}
	case Right:
		if e.x++; e.x >= w {
			e.x = -e.width
		}
	case Up:
		if e.y--; e.y+GlyphHeight <= 0 {
			e.y = h
		}
	case Down:
		if e.y++; e.y >= h {
			e.y = -GlyphHeight
		}
	}
}

func (e *Effect) Update() {
	now := e.env.Now()
	p := e.Engine.Step()

	e.env.Clear()
	if e.width == 0 {
		return
	}
	if now.Sub(e.lastScroll) >= time.Duration(p.ScrollIntervalMs)*time.Millisecond {
		e.lastScroll = now
		e.scroll(p.Direction)
	}

	x, y := e.x, (e.env.Height()-GlyphHeight)/2
	if p.Direction == Up || p.Direction == Down {
		x, y = 0, e.y
		if e.width < e.env.Width() {
			x = (e.env.Width() - e.width) / 2
		}
	}
	c := led.HSB(p.Hue, p.Saturation, p.Brightness).RGBA()
	advance := GlyphWidth + p.CharSpacing
	for i, r := range e.runes {
		gx := x + i*advance
		if gx+GlyphWidth <= 0 || gx >= e.env.Width() {
			continue
		}
		Font5x7.GetGlyph(r).Draw(e.panel, int16(gx), int16(y+GlyphHeight-1), c)
	}
}

// panel adapts the borrowed strip to a drivers.Displayer.
type panel struct {
	env effect.Env
}

func (d *panel) Size() (x, y int16) { return int16(d.env.Width()), int16(d.env.Height()) }

func (d *panel) SetPixel(x, y int16, c color.RGBA) {
	d.env.Set(int(x), int(y), led.FromColor(c))
}

func (d *panel) Display() error { return nil }
