// Package runner owns the strip: it ticks the dispatcher, runs calibration
// patterns, flushes frames and hands them to previews.
package runner

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-arcaluminis/internal/calib"
	diag "github.com/coreman2200/funtimes-arcaluminis/internal/diagnostics"
	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

const DefaultFPS = 60

// Ticker is the part of the dispatcher the loop drives.
type Ticker interface {
	Tick()
}

// FrameSink receives every flushed frame in row-major RGB order. It is called
// from the loop goroutine and must not block.
type FrameSink interface {
	Frame(id uint64, raster []byte)
}

type Looper struct {
	ticker Ticker
	strip  *led.Strip
	layout layout.Layout
	diag   diag.Sink

	fps        atomic.Int64
	brightness atomic.Uint64
	frameID    atomic.Uint64

	mu    sync.Mutex
	test  *calib.Runner
	sinks []FrameSink
	hold  int
}

func New(t Ticker, strip *led.Strip, l layout.Layout, sink diag.Sink) *Looper {
	if sink == nil {
		sink = diag.Discard{}
	}
	lp := &Looper{ticker: t, strip: strip, layout: l, diag: sink}
	lp.SetFPS(DefaultFPS)
	lp.SetBrightness(strip.Brightness())
	return lp
}

func (l *Looper) AddSink(s FrameSink) {
	l.mu.Lock()
	l.sinks = append(l.sinks, s)
	l.mu.Unlock()
}

func (l *Looper) FPS() int { return int(l.fps.Load()) }

// SetFPS takes effect on the next tick.
func (l *Looper) SetFPS(fps int) {
	if fps < 1 {
		fps = 1
	}
	if fps > 240 {
		fps = 240
	}
	l.fps.Store(int64(fps))
}

func (l *Looper) Brightness() float64 { return math.Float64frombits(l.brightness.Load()) }

// SetBrightness is applied to the strip at the start of the next tick.
func (l *Looper) SetBrightness(b float64) {
	l.brightness.Store(math.Float64bits(math.Min(math.Max(b, 0), 1)))
}

func (l *Looper) FrameID() uint64 { return l.frameID.Load() }

// RunTest replaces the effect output with a calibration pattern until it
// completes. Each step holds for a tenth of a second.
func (l *Looper) RunTest(k calib.Kind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hold := l.hold
	if hold == 0 {
		hold = max(1, l.FPS()/10)
	}
	l.test = calib.NewRunner(calib.Plan{Kind: k, Hold: hold})
	l.diag.Publish(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeTestRunning, Summary: "Running test", Detail: string(k)})
}

// Testing reports the pattern in progress, if any.
func (l *Looper) Testing() calib.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.test == nil {
		return calib.None
	}
	return l.test.Kind()
}

// Run ticks until ctx is done.
func (l *Looper) Run(ctx context.Context) error {
	fps := l.FPS()
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
			if f := l.FPS(); f != fps {
				fps = f
				ticker.Reset(time.Second / time.Duration(fps))
			}
		}
	}
}

// stepTest paints the calibration frame, if one is running.
func (l *Looper) stepTest() bool {
	l.mu.Lock()
	test := l.test
	l.mu.Unlock()
	if test == nil {
		return false
	}
	if test.Step(l.layout, l.strip) {
		return true
	}
	l.mu.Lock()
	if l.test == test {
		l.test = nil
	}
	l.mu.Unlock()
	l.diag.Publish(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeTestDone, Summary: "Test complete", Detail: string(test.Kind())})
	return false
}

// Tick renders and flushes one frame.
func (l *Looper) Tick() {
	l.strip.SetBrightness(l.Brightness())

	if !l.stepTest() {
		l.ticker.Tick()
	}

	frame, err := l.strip.Show()
	if err != nil {
		log.Warn().Err(err).Msg("show")
		return
	}
	id := l.frameID.Add(1)
	if frame == nil {
		return
	}
	l.mu.Lock()
	sinks := l.sinks
	l.mu.Unlock()
	if len(sinks) == 0 {
		return
	}
	raster := l.layout.Raster(frame)
	for _, s := range sinks {
		s.Frame(id, raster)
	}
}
