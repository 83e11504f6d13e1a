package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-arcaluminis/internal/config"
	diag "github.com/coreman2200/funtimes-arcaluminis/internal/diagnostics"
	"github.com/coreman2200/funtimes-arcaluminis/internal/sensor"
)

type errUnknownDriver string

func (e errUnknownDriver) Error() string { return fmt.Sprintf("unknown driver %q", string(e)) }

// merge copies every key set in the file over the flag values.
func merge(dst, src *config.Config) {
	dst.Driver = firstNonEmpty(src.Driver, dst.Driver)
	dst.ColorOrder = firstNonEmpty(src.ColorOrder, dst.ColorOrder)
	dst.Brightness = firstNonZeroFloat(src.Brightness, dst.Brightness)
	if src.FPS > 0 {
		dst.FPS = src.FPS
	}
	if src.Tiles.TileW > 0 {
		dst.Tiles.TileW = src.Tiles.TileW
	}
	if src.Tiles.TileH > 0 {
		dst.Tiles.TileH = src.Tiles.TileH
	}
	dst.SPI.Port = firstNonEmpty(src.SPI.Port, dst.SPI.Port)
	if src.SPI.SpeedHz > 0 {
		dst.SPI.SpeedHz = src.SPI.SpeedHz
	}
	dst.I2C.Bus = firstNonEmpty(src.I2C.Bus, dst.I2C.Bus)
	if src.I2C.Addr != 0 {
		dst.I2C.Addr = src.I2C.Addr
	}
	dst.Power.LimitAmps = firstNonZeroFloat(src.Power.LimitAmps, dst.Power.LimitAmps)
	dst.Power.WhiteCap = firstNonZeroFloat(src.Power.WhiteCap, dst.Power.WhiteCap)
	dst.Power.ChanMA = firstNonZeroFloat(src.Power.ChanMA, dst.Power.ChanMA)

	if src.Sensor.Kind != "" {
		dst.Sensor = src.Sensor
	}
	if src.MQTT.Broker != "" {
		m := src.MQTT
		m.ClientID = firstNonEmpty(m.ClientID, dst.MQTT.ClientID)
		m.CommandTopic = firstNonEmpty(m.CommandTopic, dst.MQTT.CommandTopic)
		m.StatusTopic = firstNonEmpty(m.StatusTopic, dst.MQTT.StatusTopic)
		dst.MQTT = m
	}
	dst.HTTP.Addr = firstNonEmpty(src.HTTP.Addr, dst.HTTP.Addr)
	dst.Effect = firstNonEmpty(src.Effect, dst.Effect)
	dst.AnimationsDir = firstNonEmpty(src.AnimationsDir, dst.AnimationsDir)
}

type sensorCloser interface {
	Acceleration() (ax, ay, az float64, err error)
	Close() error
}

// openSensor returns the accelerometer, or the simulator when none is wired.
// A missing sensor is fatal when the config says it is required. The second
// result is non-nil when the tilt can be set by hand.
func openSensor(cfg *config.Config, hub diag.Sink) (sensorCloser, *sensor.Sim) {
	sim := func() *sensor.Sim {
		s := sensor.NewSim()
		z := cfg.Sensor.TiltZ
		if z == 0 {
			z = sensor.StandardGravity
		}
		s.Set(cfg.Sensor.TiltX, 0, z)
		return s
	}
	if cfg.Sensor.Kind == "sim" {
		s := sim()
		return s, s
	}
	a, err := sensor.OpenADXL345(cfg.I2C.Bus, cfg.I2C.Addr)
	if err == nil {
		log.Info().Str("bus", cfg.I2C.Bus).Uint16("addr", cfg.I2C.Addr).Msg("adxl345 ready")
		return a, nil
	}
	if cfg.Sensor.Required {
		log.Fatal().Err(err).Msg("accelerometer init failed")
	}
	log.Warn().Err(err).Msg("accelerometer init failed; using fixed tilt")
	hub.Publish(diag.Diagnostic{
		Severity: diag.Warn, Code: diag.CodeSensor, Summary: "Accelerometer unavailable, using fixed tilt",
		Detail: err.Error(), SuggestedFixes: []string{"check I2C wiring and address", "set sensor.kind: sim"},
	})
	s := sim()
	return s, s
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func firstNonZeroFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}
