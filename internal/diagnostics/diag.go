// Package diagnostics carries operator-facing events from the command path
// and drivers to whoever is listening on /diag.
package diagnostics

import (
	"sync"
	"time"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes raised by the daemon.
const (
	CodeDecode        = "CMD.DECODE"
	CodeUnknownEffect = "CMD.UNKNOWN_EFFECT"
	CodeUnknownPreset = "CMD.UNKNOWN_PRESET"
	CodeParams        = "CMD.PARAMS"
	CodeQueueFull     = "CMD.QUEUE_FULL"
	CodeEffect        = "EFFECT.SWITCH"
	CodeDriver        = "DRIVER.FALLBACK"
	CodeSensor        = "SENSOR.FALLBACK"
	CodeTestRunning   = "TEST.RUNNING"
	CodeTestDone      = "TEST.DONE"
	CodeTestUnknown   = "TEST.UNKNOWN"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Sink receives diagnostics. Implementations must not block.
type Sink interface {
	Publish(d Diagnostic)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Publish(Diagnostic) {}

// Hub fans diagnostics out to subscribers and keeps the most recent few so
// late joiners see what already happened.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Diagnostic]struct{}
	recent []Diagnostic
	keep   int
}

func NewHub(keep int) *Hub {
	return &Hub{subs: map[chan Diagnostic]struct{}{}, keep: keep}
}

// Publish stamps d and delivers it. A subscriber whose buffer is full misses
// the event.
func (h *Hub) Publish(d Diagnostic) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.keep > 0 {
		h.recent = append(h.recent, d)
		if len(h.recent) > h.keep {
			h.recent = h.recent[len(h.recent)-h.keep:]
		}
	}
	for ch := range h.subs {
		select {
		case ch <- d:
		default:
		}
	}
}

// Subscribe returns a channel primed with the recent history and a func to
// stop receiving.
func (h *Hub) Subscribe(buffer int) (<-chan Diagnostic, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Diagnostic, buffer+len(h.recent))
	for _, d := range h.recent {
		ch <- d
	}
	h.subs[ch] = struct{}{}
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *Hub) Recent() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Diagnostic(nil), h.recent...)
}
