package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-arcaluminis/internal/calib"
	"github.com/coreman2200/funtimes-arcaluminis/internal/config"
	diag "github.com/coreman2200/funtimes-arcaluminis/internal/diagnostics"
	"github.com/coreman2200/funtimes-arcaluminis/internal/dispatch"
	"github.com/coreman2200/funtimes-arcaluminis/internal/layout"
)

// Dispatcher accepts command payloads from any goroutine.
type Dispatcher interface {
	Submit(payload []byte) error
	Status() dispatch.Status
}

// Loop is the render loop's control surface.
type Loop interface {
	Brightness() float64
	SetBrightness(b float64)
	FPS() int
	SetFPS(fps int)
	FrameID() uint64
	RunTest(k calib.Kind)
	Testing() calib.Kind
}

// Tilter leans a simulated accelerometer.
type Tilter interface {
	Set(x, y, z float64)
}

type State struct {
	mu         sync.RWMutex
	Layout     layout.Layout
	Dispatcher Dispatcher
	Loop       Loop
	Diag       *diag.Hub
	Tilt       Tilter

	// Settle is how long a control reply waits for the render loop to apply
	// a forwarded command.
	Settle time.Duration

	ConfigPath    string
	Config        *config.Config
	CurrentDriver string

	startTime time.Time
	clients   map[*websocket.Conn]chan []byte
}

func NewState(l layout.Layout, d Dispatcher, loop Loop, hub *diag.Hub) *State {
	if hub == nil {
		hub = diag.NewHub(0)
	}
	return &State{
		Layout:     l,
		Dispatcher: d,
		Loop:       loop,
		Diag:       hub,
		Settle:     250 * time.Millisecond,
		startTime:  time.Now(),
		clients:    map[*websocket.Conn]chan []byte{},
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleFramesWS streams binary frames, 3 bytes per pixel in row-major
// order, after a topology message.
func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.sendTopology(conn)
	out := make(chan []byte, 2)
	s.mu.Lock()
	s.clients[conn] = out
	s.mu.Unlock()

	go func() {
		for b := range out {
			conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
			if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
				log.Debug().Err(err).Msg("write frame")
			}
		}
	}()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			close(out)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Frame hands raster to every frames client. Slow clients skip frames.
func (s *State) Frame(id uint64, raster []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, out := range s.clients {
		select {
		case out <- raster:
		default:
		}
	}
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	events, stop := s.Diag.Subscribe(16)
	go func() {
		for d := range events {
			b, _ := json.Marshal(d)
			conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
	}()
	go func() {
		defer func() {
			stop()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleControlWS takes command payloads plus the daemon keys and answers
// each message with a status document.
func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		st := s.applyControl(data)
		b, _ := json.Marshal(st)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.Dispatcher.Status()
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"frame_id":      s.Loop.FrameID(),
		"uptime_s":      time.Since(s.startTime).Seconds(),
		"count":         s.Layout.Count(),
		"fps":           s.Loop.FPS(),
		"brightness":    s.Loop.Brightness(),
		"effect":        st.Effect,
		"preset":        st.Preset,
		"queue_dropped": st.Dropped,
		"driver":        s.CurrentDriver,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Status is the reply to every control message. Effect and Preset are read
// after the loop has applied the message, unless that takes longer than Settle.
type Status struct {
	Effect     string   `json:"effect"`
	Preset     string   `json:"preset"`
	Presets    []string `json:"presets"`
	Effects    []string `json:"effects"`
	Brightness float64  `json:"brightness"`
	FPS        int      `json:"fps"`
	Frame      uint64   `json:"frame"`
	Testing    string   `json:"testing,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (s *State) status() Status {
	st := s.Dispatcher.Status()
	return Status{
		Effect:     st.Effect,
		Preset:     st.Preset,
		Presets:    st.Presets,
		Effects:    st.Effects,
		Brightness: s.Loop.Brightness(),
		FPS:        s.Loop.FPS(),
		Frame:      s.Loop.FrameID(),
		Testing:    string(s.Loop.Testing()),
	}
}

type tilt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (s *State) applyControl(data []byte) Status {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.Diag.Publish(diag.Diagnostic{Severity: diag.Warn, Code: diag.CodeDecode, Summary: "Malformed control message", Detail: err.Error()})
		st := s.status()
		st.Error = err.Error()
		return st
	}

	var errMsg string
	var b float64
	if raw, ok := msg["brightness"]; ok && json.Unmarshal(raw, &b) == nil {
		s.Loop.SetBrightness(b)
	}
	var fps int
	if raw, ok := msg["fps"]; ok && json.Unmarshal(raw, &fps) == nil && fps > 0 {
		s.Loop.SetFPS(fps)
	}
	var name string
	if raw, ok := msg["runTest"]; ok && json.Unmarshal(raw, &name) == nil {
		if k, err := calib.Parse(name); err != nil {
			s.Diag.Publish(diag.Diagnostic{
				Severity: diag.Warn, Code: diag.CodeTestUnknown, Summary: "Unknown test name",
				Evidence: map[string]any{"name": name},
			})
			errMsg = err.Error()
		} else {
			s.Loop.RunTest(k)
		}
	}
	var t tilt
	if raw, ok := msg["tilt"]; ok && s.Tilt != nil && json.Unmarshal(raw, &t) == nil {
		s.Tilt.Set(t.X, t.Y, t.Z)
	}

	_, e := msg["effect"]
	_, p := msg["prePara"]
	_, q := msg["params"]
	if e || p || q {
		before := s.Dispatcher.Status().Ticks
		if err := s.Dispatcher.Submit(data); err != nil {
			errMsg = err.Error()
		} else {
			s.awaitTick(before)
		}
	}

	var save bool
	if raw, ok := msg["save"]; ok && json.Unmarshal(raw, &save) == nil && save {
		if err := s.saveConfig(); err != nil {
			log.Warn().Err(err).Str("path", s.ConfigPath).Msg("config save failed")
			errMsg = err.Error()
		}
	}

	st := s.status()
	st.Error = errMsg
	return st
}

// awaitTick waits until the loop has ticked past before, or Settle runs out.
func (s *State) awaitTick(before uint64) {
	end := time.Now().Add(s.Settle)
	for s.Dispatcher.Status().Ticks <= before && time.Now().Before(end) {
		time.Sleep(5 * time.Millisecond)
	}
}

// saveConfig writes the live settings over the loaded config.
func (s *State) saveConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ConfigPath == "" {
		return nil
	}
	if s.Config == nil {
		s.Config = config.Default()
	}
	c := *s.Config
	c.Brightness = s.Loop.Brightness()
	c.FPS = s.Loop.FPS()
	if eff := s.Dispatcher.Status().Effect; eff != "" {
		c.Effect = eff
	}
	if err := config.Save(s.ConfigPath, &c); err != nil {
		return err
	}
	s.Config = &c
	log.Info().Str("path", s.ConfigPath).Msg("config saved")
	return nil
}

func (s *State) sendTopology(conn *websocket.Conn) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	top := map[string]any{
		"width":  s.Layout.Width(),
		"height": s.Layout.Height(),
		"tiles": map[string]any{
			"tile":  map[string]int{"x": s.Layout.Tiles.Tile.X, "y": s.Layout.Tiles.Tile.Y},
			"grid":  map[string]int{"x": s.Layout.Tiles.Grid.X, "y": s.Layout.Tiles.Grid.Y},
			"chain": s.Layout.Tiles.Chain,
		},
		"driver": s.CurrentDriver,
	}
	b, _ := json.Marshal(top)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
