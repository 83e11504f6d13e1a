package calib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
)

func lit(s *led.Strip) []int {
	var out []int
	for i := 0; i < s.Len(); i++ {
		if s.Pixel(i) != led.Black {
			out = append(out, i)
		}
	}
	return out
}

func TestParse(t *testing.T) {
	for _, k := range Kinds {
		got, err := Parse(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := Parse("plane_z")
	assert.Error(t, err)
}

func TestIndexSweepVisitsEveryLED(t *testing.T) {
	l := layout.Default()
	s := led.NewStrip(l.Count(), nil)
	r := NewRunner(Plan{Kind: IndexSweep})
	for i := 0; i < l.Count(); i++ {
		require.True(t, r.Step(l, s))
		assert.Equal(t, []int{i}, lit(s))
	}
	assert.False(t, r.Step(l, s))
}

func TestRGBChannelsHold(t *testing.T) {
	l := layout.Default()
	s := led.NewStrip(l.Count(), nil)
	r := NewRunner(Plan{Kind: RGBTest, Hold: 2})
	want := []led.RGB{{R: 255}, {R: 255}, {G: 255}, {G: 255}, {B: 255}, {B: 255}}
	for _, c := range want {
		require.True(t, r.Step(l, s))
		assert.Equal(t, c, s.Pixel(0))
		assert.Equal(t, c, s.Pixel(l.Count()-1))
	}
	assert.False(t, r.Step(l, s))
}

func TestTileSweepLightsOneTile(t *testing.T) {
	l := layout.Default()
	s := led.NewStrip(l.Count(), nil)
	r := NewRunner(Plan{Kind: TileSweep})
	// the chain enters bottom-right, so the first tile lit covers x,y >= 8
	require.True(t, r.Step(l, s))
	got := lit(s)
	assert.Len(t, got, 64)
	assert.Equal(t, 0, got[0])
	assert.Equal(t, 63, got[63])
	assert.Equal(t, 0, l.Index(15, 15))

	for i := 1; i < 4; i++ {
		require.True(t, r.Step(l, s))
		assert.Equal(t, i*64, lit(s)[0])
	}
	assert.False(t, r.Step(l, s))
}

func TestUnknownKindFinishesImmediately(t *testing.T) {
	l := layout.Default()
	s := led.NewStrip(l.Count(), nil)
	assert.False(t, NewRunner(Plan{}).Step(l, s))
}
