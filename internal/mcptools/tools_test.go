package mcptools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-arcaluminis/internal/ws"
)

type recorder struct {
	sent  []map[string]any
	reply ws.Status
	err   error
}

func (r *recorder) Send(_ context.Context, msg map[string]any) (ws.Status, error) {
	r.sent = append(r.sent, msg)
	return r.reply, r.err
}

func call(t *testing.T, c Controller, tool string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := NewServer(c, "test")
	st := s.GetTool(tool)
	require.NotNil(t, st, tool)
	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args
	res, err := st.Handler(context.Background(), req)
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestToolsAreRegistered(t *testing.T) {
	s := NewServer(&recorder{}, "test")
	for _, name := range []string{"list_effects", "set_effect", "set_preset", "set_params", "set_brightness", "run_test"} {
		assert.NotNil(t, s.GetTool(name), name)
	}
}

func TestSetEffectWithPreset(t *testing.T) {
	r := &recorder{reply: ws.Status{Effect: "ripple", Preset: "EnergyPulse", Effects: []string{"ripple"}, Brightness: 0.5}}
	res := call(t, r, "set_effect", map[string]any{"effect": "ripple", "preset": "EnergyPulse"})
	assert.False(t, res.IsError)
	assert.Equal(t, []map[string]any{{"effect": "ripple", "prePara": "EnergyPulse"}}, r.sent)
	assert.Contains(t, text(t, res), "preset: EnergyPulse")
}

func TestSetEffectRequiresName(t *testing.T) {
	r := &recorder{}
	res := call(t, r, "set_effect", map[string]any{})
	assert.True(t, res.IsError)
	assert.Empty(t, r.sent)
}

func TestSetParamsForwardsObject(t *testing.T) {
	r := &recorder{}
	res := call(t, r, "set_params", map[string]any{"params": `{"speed":6}`})
	assert.False(t, res.IsError)
	assert.Equal(t, map[string]any{"params": map[string]any{"speed": 6.0}}, r.sent[0])

	res = call(t, r, "set_params", map[string]any{"params": `[1,2]`})
	assert.True(t, res.IsError)
	assert.Len(t, r.sent, 1)
}

func TestDaemonErrorsSurface(t *testing.T) {
	res := call(t, &recorder{reply: ws.Status{Error: "unknown test \"x\""}}, "run_test", map[string]any{"pattern": "x"})
	assert.True(t, res.IsError)

	res = call(t, &recorder{err: errors.New("connection refused")}, "list_effects", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "unreachable")
}

func TestClientRoundTrip(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			eff, _ := msg["effect"].(string)
			_ = conn.WriteJSON(ws.Status{Effect: eff})
		}
	}))
	defer srv.Close()

	c := NewClient("ws" + strings.TrimPrefix(srv.URL, "http"))
	defer c.Close()
	for _, eff := range []string{"lava_lamp", "code_rain"} {
		st, err := c.Send(context.Background(), map[string]any{"effect": eff})
		require.NoError(t, err)
		assert.Equal(t, eff, st.Effect)
	}
}

func TestClientDialFailure(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/control")
	_, err := c.Send(context.Background(), map[string]any{})
	assert.Error(t, err)
}
