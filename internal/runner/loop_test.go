package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-arcaluminis/internal/calib"
	diag "github.com/coreman2200/funtimes-arcaluminis/internal/diagnostics"
	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

// paint lights the top-left pixel on every tick.
type paint struct {
	strip *led.Strip
	l     layout.Layout
	ticks atomic.Int64
}

func (p *paint) Tick() {
	p.ticks.Add(1)
	p.strip.Clear(led.Black)
	p.strip.SetPixelColor(p.l.Index(0, 0), led.RGB{R: 200})
}

type frames struct {
	ids  []uint64
	last []byte
}

func (f *frames) Frame(id uint64, raster []byte) {
	f.ids = append(f.ids, id)
	f.last = raster
}

func setup(t *testing.T) (*Looper, *paint, *led.Sim, *diag.Hub) {
	t.Helper()
	l := layout.Default()
	sim := led.NewSim()
	strip := led.NewStrip(l.Count(), sim)
	p := &paint{strip: strip, l: l}
	hub := diag.NewHub(8)
	return New(p, strip, l, hub), p, sim, hub
}

func TestTickFlushesRaster(t *testing.T) {
	lp, p, sim, _ := setup(t)
	f := &frames{}
	lp.AddSink(f)
	lp.SetBrightness(0.5)

	lp.Tick()
	lp.Tick()
	assert.Equal(t, int64(2), p.ticks.Load())
	assert.Equal(t, []uint64{1, 2}, f.ids)
	assert.Equal(t, uint64(2), lp.FrameID())
	// raster is row-major, so the top-left pixel comes first
	assert.Equal(t, []byte{100, 0, 0}, f.last[:3])
	assert.Equal(t, byte(100), sim.Last()[255*3])
}

func TestCalibrationOverridesEffect(t *testing.T) {
	lp, p, sim, hub := setup(t)
	lp.hold = 1
	lp.RunTest(calib.RGBTest)
	assert.Equal(t, calib.RGBTest, lp.Testing())

	for i := 0; i < 3; i++ {
		lp.Tick()
	}
	assert.Zero(t, p.ticks.Load())
	assert.Equal(t, []byte{0, 0, 255}, sim.Last()[:3])

	lp.Tick()
	assert.Equal(t, int64(1), p.ticks.Load())
	assert.Equal(t, calib.None, lp.Testing())

	var codes []string
	for _, d := range hub.Recent() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []string{diag.CodeTestRunning, diag.CodeTestDone}, codes)
}

func TestSettersClamp(t *testing.T) {
	lp, _, _, _ := setup(t)
	lp.SetFPS(0)
	assert.Equal(t, 1, lp.FPS())
	lp.SetFPS(1000)
	assert.Equal(t, 240, lp.FPS())
	lp.SetBrightness(3)
	assert.Equal(t, 1.0, lp.Brightness())
	lp.SetBrightness(-1)
	assert.Equal(t, 0.0, lp.Brightness())
}

func TestRunStopsWithContext(t *testing.T) {
	lp, p, _, _ := setup(t)
	lp.SetFPS(200)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lp.Run(ctx) }()

	require.Eventually(t, func() bool { return p.ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
