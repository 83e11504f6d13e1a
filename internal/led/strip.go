package led

import "sync/atomic"

// Strip is the pixel buffer effects paint into. Effects only write through
// SetPixelColor and Clear; the main loop calls Show once per tick.
type Strip struct {
	pixels     []RGB
	frame      []byte
	driver     Driver
	power      Power
	order      *Order
	wire       []byte
	brightness float64
	shown      atomic.Uint64
}

func NewStrip(n int, d Driver) *Strip {
	return &Strip{
		pixels:     make([]RGB, n),
		frame:      make([]byte, n*3),
		driver:     d,
		brightness: 1,
	}
}

func (s *Strip) Len() int { return len(s.pixels) }

// SetPixelColor ignores indexes outside the strip.
func (s *Strip) SetPixelColor(i int, c RGB) {
	if i < 0 || i >= len(s.pixels) {
		return
	}
	s.pixels[i] = c
}

func (s *Strip) Clear(c RGB) {
	for i := range s.pixels {
		s.pixels[i] = c
	}
}

// Pixel reads back a buffered pixel. Used by previews and tests.
func (s *Strip) Pixel(i int) RGB {
	if i < 0 || i >= len(s.pixels) {
		return Black
	}
	return s.pixels[i]
}

func (s *Strip) SetDriver(d Driver) { s.driver = d }

func (s *Strip) Driver() Driver { return s.driver }

func (s *Strip) SetPower(p Power) { s.power = p }

// SetOrder reorders channels on their way to the driver. Identity orders are dropped.
func (s *Strip) SetOrder(o Order) {
	if o == RGBOrder {
		s.order = nil
		return
	}
	s.order = &o
	s.wire = make([]byte, len(s.frame))
}

func (s *Strip) Brightness() float64 { return s.brightness }

func (s *Strip) SetBrightness(b float64) { s.brightness = clamp01(b) }

// Frames counts successful calls to Show.
func (s *Strip) Frames() uint64 { return s.shown.Load() }

// Show scales, limits and flushes the buffer, returning the frame in RGB
// order. Without a driver it is a no-op.
func (s *Strip) Show() ([]byte, error) {
	if s.driver == nil {
		return nil, nil
	}
	out := make([]RGB, len(s.pixels))
	for i, p := range s.pixels {
		out[i] = p.Scale(s.brightness)
	}
	s.power.Apply(out)
	for i, p := range out {
		s.frame[i*3+0] = p.R
		s.frame[i*3+1] = p.G
		s.frame[i*3+2] = p.B
	}
	wire := s.frame
	if s.order != nil {
		for i, p := range out {
			p = s.order.Apply(p)
			s.wire[i*3+0] = p.R
			s.wire[i*3+1] = p.G
			s.wire[i*3+2] = p.B
		}
		wire = s.wire
	}
	if err := s.driver.Write(wire); err != nil {
		return nil, err
	}
	s.shown.Add(1)
	return append([]byte(nil), s.frame...), nil
}
