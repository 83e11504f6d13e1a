//go:build cgo

package window

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
)

// Driver receives frames from the render loop and shows them once Run has
// taken over the main goroutine.
type Driver struct {
	frame *frame
	title string
}

func New(l layout.Layout, title string) (*Driver, error) {
	return &Driver{frame: newFrame(l), title: title}, nil
}

func (d *Driver) Write(rgb []byte) error {
	if len(rgb) != d.frame.layout.Count()*3 {
		return fmt.Errorf("window: frame has %d bytes, want %d", len(rgb), d.frame.layout.Count()*3)
	}
	d.frame.store(rgb)
	return nil
}

func (d *Driver) Close() error { return nil }

// Run blocks until the window closes or ctx is done. It must be called from
// the main goroutine.
func (d *Driver) Run(ctx context.Context) error {
	l := d.frame.layout
	ebiten.SetWindowTitle(d.title)
	ebiten.SetWindowSize(l.Width()*Scale, l.Height()*Scale)
	ebiten.SetTPS(60)
	g := &game{ctx: ctx, frame: d.frame, scratch: make([]byte, l.Count()*4)}
	return ebiten.RunGame(g)
}

type game struct {
	ctx     context.Context
	frame   *frame
	img     *ebiten.Image
	scratch []byte
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	l := g.frame.layout
	if g.img == nil {
		g.img = ebiten.NewImage(l.Width(), l.Height())
	}
	if g.frame.take(g.scratch) {
		g.img.WritePixels(g.scratch)
	}
	screen.DrawImage(g.img, nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.frame.layout.Width(), g.frame.layout.Height()
}
