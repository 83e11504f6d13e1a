package anim

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

// Animation is a sequence of equally sized frames, row-major.
type Animation struct {
	Name          string
	Width, Height int
	Frames        [][]led.RGB
}

func (a Animation) At(frame, x, y int) led.RGB {
	if x < 0 || y < 0 || x >= a.Width || y >= a.Height {
		return led.Black
	}
	return a.Frames[frame][y*a.Width+x]
}

const HeartName = "animated_heart"

// Heart builds the stock beating heart for a w x h panel.
func Heart(w, h int) Animation {
	const n = 8
	a := Animation{Name: HeartName, Width: w, Height: h}
	for i := 0; i < n; i++ {
		scale := 0.78 + 0.14*math.Sin(2*math.Pi*float64(i)/n)
		f := make([]led.RGB, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				// map to [-1.3, 1.3] with y up
				u := (float64(x)+0.5)/float64(w)*2.6 - 1.3
				v := 1.3 - (float64(y)+0.5)/float64(h)*2.6 + 0.15
				u, v = u/scale, v/scale
				q := u*u + v*v - 1
				if d := q*q*q - u*u*v*v*v; d <= 0 {
					f[y*w+x] = led.HSB(0.98, 0.9, heartShade(0.35-d*4))
				}
			}
		}
		a.Frames = append(a.Frames, f)
	}
	return a
}

func heartShade(v float64) float64 {
	return math.Max(0.2, math.Min(1, v))
}

// LoadGIF decodes every frame of a GIF, compositing each over the previous
// one so partial frames render whole.
func LoadGIF(path string) (Animation, error) {
	f, err := os.Open(path)
	if err != nil {
		return Animation{}, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return Animation{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(g.Image) == 0 {
		return Animation{}, fmt.Errorf("decode %s: no frames", path)
	}
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Dx(), b.Dy()
	}

	a := Animation{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), Width: w, Height: h}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		px := make([]led.RGB, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px[y*w+x] = led.FromColor(canvas.At(x, y))
			}
		}
		a.Frames = append(a.Frames, px)
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return a, nil
}

// LoadDir loads every *.gif in dir. Files that fail to decode are reported
// together after the rest have loaded.
func LoadDir(dir string) ([]Animation, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.gif"))
	if err != nil {
		return nil, err
	}
	var out []Animation
	var bad []string
	for _, p := range paths {
		a, err := LoadGIF(p)
		if err != nil {
			bad = append(bad, err.Error())
			continue
		}
		out = append(out, a)
	}
	if len(bad) > 0 {
		return out, fmt.Errorf("load animations: %s", strings.Join(bad, "; "))
	}
	return out, nil
}
