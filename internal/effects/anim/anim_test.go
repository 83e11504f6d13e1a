package anim

import (
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-arcaluminis/internal/effect/effecttest"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

func writeGIF(t *testing.T, path string, colors ...color.Color) {
	t.Helper()
	pal := color.Palette{color.Transparent}
	pal = append(pal, colors...)
	g := &gif.GIF{}
	for i := range colors {
		img := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
		img.SetColorIndex(i, 0, uint8(i+1))
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, 10)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gif.EncodeAll(f, g))
}

func TestHeartFrames(t *testing.T) {
	a := Heart(16, 16)
	assert.Equal(t, HeartName, a.Name)
	require.Len(t, a.Frames, 8)
	for i, f := range a.Frames {
		assert.Len(t, f, 256)
		lit := 0
		for _, c := range f {
			if c != led.Black {
				lit++
			}
		}
		assert.Greater(t, lit, 40, "frame %d", i)
		assert.Less(t, lit, 256, "frame %d", i)
	}
	// corners stay dark
	assert.Equal(t, led.Black, a.At(0, 0, 0))
	assert.Equal(t, led.Black, a.At(0, 15, 15))
	assert.NotEqual(t, led.Black, a.At(0, 8, 8))
}

func TestPlaybackRate(t *testing.T) {
	r := effecttest.New(1)
	e := New(r.Env)
	assert.Equal(t, HeartName, e.Preset())
	assert.Equal(t, []string{HeartName}, e.Presets())

	r.Clock.Advance(100 * time.Millisecond)
	e.Update()
	assert.Equal(t, 0, e.Frame())
	r.Clock.Advance(100 * time.Millisecond)
	e.Update()
	assert.Equal(t, 1, e.Frame())
	assert.Positive(t, r.Lit())

	require.NoError(t, e.SetParameters(`{"baseSpeed":20}`))
	r.Clock.Advance(time.Second)
	e.Update()
	r.Run(8, 50*time.Millisecond, e.Update)
	assert.Equal(t, (2+8)%8, e.Frame())
}

func TestLoadDirAndSwitch(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "blink.gif"), color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.gif"), []byte("nope"), 0o644))

	anims, err := LoadDir(dir)
	assert.Error(t, err)
	require.Len(t, anims, 1)
	a := anims[0]
	assert.Equal(t, "blink", a.Name)
	assert.Equal(t, 4, a.Width)
	require.Len(t, a.Frames, 2)
	assert.Equal(t, led.RGB{R: 255}, a.At(0, 0, 0))
	// second frame composites over the first
	assert.Equal(t, led.RGB{R: 255}, a.At(1, 0, 0))
	assert.Equal(t, led.RGB{B: 255}, a.At(1, 1, 0))

	r := effecttest.New(2)
	e := New(r.Env, anims...)
	assert.Equal(t, []string{HeartName, "blink"}, e.Presets())
	require.NoError(t, e.SetPreset("blink"))
	assert.Equal(t, 0, e.Frame())
	e.Update()
	assert.Equal(t, led.RGB{R: 255}, r.At(0, 0))
	// outside the 4x4 source stays dark
	assert.Equal(t, led.Black, r.At(8, 8))

	require.NoError(t, e.SetPreset("next"))
	assert.Equal(t, HeartName, e.Preset())
}
