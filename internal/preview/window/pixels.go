// Package window shows the matrix in a desktop window, each LED drawn as a
// scaled square.
package window

import (
	"sync"

	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
)

// Scale is the window size multiplier per LED.
const Scale = 24

// frame holds the latest pixels in RGBA, ready for WritePixels.
type frame struct {
	mu     sync.Mutex
	layout layout.Layout
	rgba   []byte
	dirty  bool
}

func newFrame(l layout.Layout) *frame {
	f := &frame{layout: l, rgba: make([]byte, l.Count()*4)}
	for i := 3; i < len(f.rgba); i += 4 {
		f.rgba[i] = 0xFF
	}
	return f
}

// store converts a data-line frame to row-major RGBA.
func (f *frame) store(rgb []byte) {
	raster := f.layout.Raster(rgb)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i*3+2 < len(raster); i++ {
		copy(f.rgba[i*4:i*4+3], raster[i*3:i*3+3])
	}
	f.dirty = true
}

// take copies the pixels into dst if they changed since the last call.
func (f *frame) take(dst []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return false
	}
	copy(dst, f.rgba)
	f.dirty = false
	return true
}
