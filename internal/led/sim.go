package led

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sim is a headless sink that keeps the last frame and logs a compact summary.
type Sim struct {
	mu    sync.Mutex
	last  []byte
	count uint64
	every uint64
}

func NewSim() *Sim { return &Sim{every: 300} }

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append(s.last[:0], rgb...)
	s.count++
	if s.every > 0 && s.count%s.every == 0 {
		var r, g, b float64
		n := len(rgb) / 3
		for i := 0; i < n; i++ {
			r += float64(rgb[i*3])
			g += float64(rgb[i*3+1])
			b += float64(rgb[i*3+2])
		}
		if n == 0 {
			n = 1
		}
		log.Debug().Uint64("frame", s.count).
			Floats64("avg", []float64{r / float64(n), g / float64(n), b / float64(n)}).
			Msg("sim frame")
	}
	return nil
}

// Last returns a copy of the most recent frame.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

func (s *Sim) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Sim) Close() error { return nil }
