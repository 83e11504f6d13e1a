package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: nrzled
fps: 30
tiles: {tile_w: 8, tile_h: 8}
sensor:
  kind: sim
  tilt_x: 2.5
mqtt:
  broker: tcp://broker:1883
  command_topic: lights/cmd
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nrzled", c.Driver)
	assert.Equal(t, 30, c.FPS)
	assert.Equal(t, 8, c.Tiles.TileH)
	assert.Equal(t, "sim", c.Sensor.Kind)
	assert.Equal(t, 2.5, c.Sensor.TiltX)
	assert.Equal(t, "lights/cmd", c.MQTT.CommandTopic)
	// unset keys stay zero so callers can fall back to flags
	assert.Zero(t, c.Brightness)
	assert.Empty(t, c.HTTP.Addr)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: [1, 2"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.Brightness = 0.25
	c.Effect = "ripple"
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
