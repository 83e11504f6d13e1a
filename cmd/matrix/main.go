package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-arcaluminis/internal/config"
	diag "github.com/coreman2200/funtimes-arcaluminis/internal/diagnostics"
	"github.com/coreman2200/funtimes-arcaluminis/internal/dispatch"
	"github.com/coreman2200/funtimes-arcaluminis/internal/effects/anim"
	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
	"github.com/coreman2200/funtimes-arcaluminis/internal/led"
	"github.com/coreman2200/funtimes-arcaluminis/internal/mqtt"
	"github.com/coreman2200/funtimes-arcaluminis/internal/preview/term"
	"github.com/coreman2200/funtimes-arcaluminis/internal/preview/window"
	"github.com/coreman2200/funtimes-arcaluminis/internal/runner"
	"github.com/coreman2200/funtimes-arcaluminis/internal/ws"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	var (
		tileW      = flag.Int("tile-w", 8, "LEDs per tile row")
		tileH      = flag.Int("tile-h", 8, "LED rows per tile")
		fps        = flag.Int("fps", 60, "target frames per second")
		brightness = flag.Float64("brightness", 0.5, "global brightness 0..1")
		driver     = flag.String("driver", "sim", "driver: nrzled | screen | term | window | sim")
		colorOrder = flag.String("color", "GRB", "LED color order (e.g. GRB, RGB)")
		spiPort    = flag.String("spi", "", "SPI port for nrzled (empty picks the first)")
		i2cBus     = flag.String("i2c", "", "I2C bus for the accelerometer (empty picks the first)")
		sensorKind = flag.String("sensor", "adxl345", "sensor: adxl345 | sim")
		sensorReq  = flag.Bool("require-sensor", true, "exit if the accelerometer cannot be opened")
		effect     = flag.String("effect", "gravity_balls", "effect shown at startup")
		animDir    = flag.String("animations", "", "directory of GIF animations")
		broker     = flag.String("mqtt", "", "MQTT broker URL, e.g. tcp://localhost:1883")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Load config.yaml (optional) ----
	var loaded *config.Config
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		loaded = c
	}

	// ---- Effective settings (config overrides flags where set) ----
	cfg := config.Default()
	cfg.Tiles = config.Tiles{TileW: *tileW, TileH: *tileH}
	cfg.FPS, cfg.Brightness = *fps, *brightness
	cfg.Driver, cfg.ColorOrder = *driver, *colorOrder
	cfg.SPI.Port, cfg.I2C.Bus = *spiPort, *i2cBus
	cfg.Sensor.Kind, cfg.Sensor.Required = *sensorKind, *sensorReq
	cfg.Effect, cfg.AnimationsDir = *effect, *animDir
	cfg.MQTT.Broker = *broker
	cfg.HTTP.Addr = *addr
	if loaded != nil {
		merge(cfg, loaded)
	}

	// ---- Layout ----
	l := layout.Default()
	l.Tiles.Tile = layout.Dim{X: cfg.Tiles.TileW, Y: cfg.Tiles.TileH}
	if err := l.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad layout")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := diag.NewHub(32)
	strip := led.NewStrip(l.Count(), nil)
	strip.SetPower(led.PowerFromAmps(cfg.Power.LimitAmps, cfg.Power.WhiteCap, cfg.Power.ChanMA))

	// ---- Driver selection: config.driver then -driver ----
	selected := cfg.Driver
	fallback := func(err error) {
		log.Warn().Err(err).Str("driver", selected).Msg("driver init failed; falling back to SIM")
		hub.Publish(diag.Diagnostic{
			Severity: diag.Warn, Code: diag.CodeDriver, Summary: "LED driver unavailable, using simulator",
			Detail: err.Error(), Evidence: map[string]any{"driver": selected},
		})
		strip.SetDriver(led.NewSim())
		selected = "sim"
	}
	var win *window.Driver
	switch selected {
	case "nrzled":
		freq := led.DefaultNRZFreq
		if cfg.SPI.SpeedHz > 0 {
			freq = physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz
		}
		drv, err := led.NewNRZ(cfg.SPI.Port, l.Count(), freq)
		if err != nil {
			fallback(err)
			break
		}
		strip.SetDriver(drv)
		if o, err := led.ParseOrder(cfg.ColorOrder); err != nil {
			log.Warn().Err(err).Msg("bad color order; using GRB")
		} else {
			strip.SetOrder(o.Through(led.NRZNative))
		}
	case "screen":
		strip.SetDriver(led.NewScreen(l.Count()))
	case "term":
		drv, err := term.Open(l, stop)
		if err != nil {
			fallback(err)
			break
		}
		// the terminal is taken; keep the log out of it
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		strip.SetDriver(drv)
	case "window":
		drv, err := window.New(l, "LED matrix")
		if err != nil {
			fallback(err)
			break
		}
		win = drv
		strip.SetDriver(drv)
	case "sim":
		strip.SetDriver(led.NewSim())
	default:
		fallback(errUnknownDriver(selected))
	}

	// ---- Sensor ----
	sens, tilt := openSensor(cfg, hub)
	defer sens.Close()

	// ---- Effects ----
	var anims []anim.Animation
	if cfg.AnimationsDir != "" {
		a, err := anim.LoadDir(cfg.AnimationsDir)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.AnimationsDir).Msg("some animations failed to load")
		}
		anims = a
		log.Info().Int("count", len(anims)).Str("dir", cfg.AnimationsDir).Msg("animations loaded")
	}
	d := dispatch.New(strip, l, sens, dispatch.WithDiagnostics(hub), dispatch.WithAnimations(anims...))
	if cfg.Effect != "" {
		_ = d.SetEffect(cfg.Effect)
	}

	loop := runner.New(d, strip, l, hub)
	loop.SetFPS(cfg.FPS)
	loop.SetBrightness(cfg.Brightness)

	// ---- State ----
	state := ws.NewState(l, d, loop, hub)
	state.ConfigPath = *configPath
	state.Config = cfg
	state.CurrentDriver = selected
	if tilt != nil {
		state.Tilt = tilt
	}
	loop.AddSink(state)

	// ---- MQTT ----
	if cfg.MQTT.Broker != "" {
		t, err := mqtt.New(mqtt.Options{
			Broker:       cfg.MQTT.Broker,
			ClientID:     cfg.MQTT.ClientID,
			CommandTopic: cfg.MQTT.CommandTopic,
			StatusTopic:  cfg.MQTT.StatusTopic,
			Username:     cfg.MQTT.Username,
			Password:     cfg.MQTT.Password,
		}, d)
		if err != nil {
			log.Warn().Err(err).Msg("mqtt disabled")
		} else {
			cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := t.Connect(cctx); err != nil {
				log.Warn().Err(err).Msg("mqtt not connected yet; retrying in background")
			}
			cancel()
			defer t.Close()
		}
	}

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run render loop & server ----
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("driver", selected).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	if win != nil {
		// ebiten needs the main goroutine
		if err := win.Run(ctx); err != nil {
			log.Warn().Err(err).Msg("window closed")
		}
		stop()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	<-done

	_ = srv.Close()
	strip.Clear(led.Black)
	_, _ = strip.Show()
	if drv := strip.Driver(); drv != nil {
		_ = drv.Close()
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
