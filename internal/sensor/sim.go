package sensor

import "sync"

// Sim holds a fixed tilt, in m/s^2. It stands in when no accelerometer is
// wired and lets the control surface lean the matrix by hand.
type Sim struct {
	mu      sync.RWMutex
	x, y, z float64
}

// NewSim returns a sensor lying flat with gravity on Z.
func NewSim() *Sim { return &Sim{z: StandardGravity} }

func (s *Sim) Set(x, y, z float64) {
	s.mu.Lock()
	s.x, s.y, s.z = x, y, z
	s.mu.Unlock()
}

func (s *Sim) Acceleration() (ax, ay, az float64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.x, s.y, s.z, nil
}

func (s *Sim) Close() error { return nil }
