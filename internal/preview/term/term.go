// Package term draws the matrix into a terminal, two cells per pixel so the
// panel stays roughly square.
package term

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
)

const pixel = '█'

type Driver struct {
	mu     sync.Mutex
	screen tcell.Screen
	layout layout.Layout
	title  string
	quit   func()
	done   chan struct{}
}

// Open takes over the controlling terminal. quit runs when the user presses
// Esc, q or Ctrl-C.
func Open(l layout.Layout, quit func()) (*Driver, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("terminal init: %w", err)
	}
	return New(s, l, quit), nil
}

// New draws into an initialized screen.
func New(s tcell.Screen, l layout.Layout, quit func()) *Driver {
	d := &Driver{screen: s, layout: l, quit: quit, done: make(chan struct{})}
	s.HideCursor()
	s.Clear()
	go d.poll()
	return d
}

// SetTitle sets the line printed under the panel.
func (d *Driver) SetTitle(t string) {
	d.mu.Lock()
	d.title = t
	d.mu.Unlock()
}

func (d *Driver) poll() {
	for {
		select {
		case <-d.done:
			return
		default:
		}
		switch ev := d.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				if d.quit != nil {
					d.quit()
				}
			}
		case *tcell.EventResize:
			d.screen.Sync()
		}
	}
}

// Write draws a frame given in data-line order.
func (d *Driver) Write(rgb []byte) error {
	if len(rgb) != d.layout.Count()*3 {
		return fmt.Errorf("terminal: frame has %d bytes, want %d", len(rgb), d.layout.Count()*3)
	}
	raster := d.layout.Raster(rgb)
	w, h := d.layout.Width(), d.layout.Height()
	d.mu.Lock()
	defer d.mu.Unlock()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := raster[(y*w+x)*3:]
			st := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(p[0]), int32(p[1]), int32(p[2])))
			d.screen.SetContent(x*2, y, pixel, nil, st)
			d.screen.SetContent(x*2+1, y, pixel, nil, st)
		}
	}
	for i, r := range d.title {
		d.screen.SetContent(i, h+1, r, nil, tcell.StyleDefault)
	}
	d.screen.Show()
	return nil
}

func (d *Driver) Close() error {
	select {
	case <-d.done:
		return nil
	default:
	}
	close(d.done)
	d.screen.Fini()
	return nil
}
