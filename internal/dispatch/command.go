package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Command is one decoded control payload. Empty fields were absent.
type Command struct {
	Effect string
	Preset string
	// Params is the raw parameter patch, re-encoded as compact JSON text.
	Params string
}

// Decode reads the top-level command fields. Fields of the wrong type are
// skipped rather than failing the whole payload; only a payload that is not a
// JSON object is an error.
func Decode(payload []byte) (Command, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if raw == nil {
		return Command{}, fmt.Errorf("decode command: not an object")
	}
	var c Command
	if v, ok := raw["effect"]; ok {
		_ = json.Unmarshal(v, &c.Effect)
	}
	if v, ok := raw["prePara"]; ok {
		_ = json.Unmarshal(v, &c.Preset)
	}
	if v, ok := raw["params"]; ok {
		v = bytes.TrimSpace(v)
		switch {
		case len(v) > 0 && v[0] == '{':
			var buf bytes.Buffer
			if err := json.Compact(&buf, v); err == nil {
				c.Params = buf.String()
			}
		case len(v) > 0 && v[0] == '"':
			// some senders double-encode the patch
			_ = json.Unmarshal(v, &c.Params)
		}
	}
	return c, nil
}

// Empty reports whether the command carries nothing to route.
func (c Command) Empty() bool { return c.Effect == "" && c.Preset == "" && c.Params == "" }
