// Package mcptools exposes the matrix controls as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-arcaluminis/internal/calib"
	"github.com/coreman2200/funtimes-arcaluminis/internal/ws"
)

func NewServer(c Controller, version string) *server.MCPServer {
	s := server.NewMCPServer("LED Matrix MCP", version, server.WithToolCapabilities(false))
	Register(s, c)
	return s
}

// Register adds every matrix tool to s.
func Register(s *server.MCPServer, c Controller) {
	s.AddTool(mcp.NewTool("list_effects",
		mcp.WithDescription("Lists the effects on the matrix and the presets of the active one."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return reply(c.Send(ctx, map[string]any{}))
	})

	s.AddTool(mcp.NewTool("set_effect",
		mcp.WithDescription("Switches the active effect, optionally selecting one of its presets."),
		mcp.WithString("effect", mcp.Required(), mcp.Description("Effect name, e.g. gravity_balls, code_rain, ripple, zen_lights, scrolling_text, lava_lamp, anim.")),
		mcp.WithString("preset", mcp.Description("Preset name to apply after switching.")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		effect, err := req.RequireString("effect")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		msg := map[string]any{"effect": effect}
		if p := req.GetString("preset", ""); p != "" {
			msg["prePara"] = p
		}
		log.Debug().Str("effect", effect).Msg("mcp set_effect")
		return reply(c.Send(ctx, msg))
	})

	s.AddTool(mcp.NewTool("set_preset",
		mcp.WithDescription(`Selects a preset of the active effect; "next" cycles through them.`),
		mcp.WithString("preset", mcp.Required(), mcp.Description("Preset name or \"next\".")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := req.RequireString("preset")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return reply(c.Send(ctx, map[string]any{"prePara": p}))
	})

	s.AddTool(mcp.NewTool("set_params",
		mcp.WithDescription("Patches parameters of the active effect. Changes fade in over half a second; unknown fields are ignored."),
		mcp.WithString("params", mcp.Required(), mcp.Description(`JSON object, e.g. {"speed": 6, "maxRipples": 3}.`)),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("params")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var params map[string]any
		if err := json.Unmarshal([]byte(text), &params); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("params must be a JSON object: %v", err)), nil
		}
		return reply(c.Send(ctx, map[string]any{"params": params}))
	})

	s.AddTool(mcp.NewTool("set_brightness",
		mcp.WithDescription("Sets the global brightness."),
		mcp.WithNumber("brightness", mcp.Required(), mcp.Min(0), mcp.Max(1), mcp.Description("0..1")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := req.RequireFloat("brightness")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return reply(c.Send(ctx, map[string]any{"brightness": b}))
	})

	kinds := make([]string, len(calib.Kinds))
	for i, k := range calib.Kinds {
		kinds[i] = string(k)
	}
	s.AddTool(mcp.NewTool("run_test",
		mcp.WithDescription("Runs a wiring test pattern, then returns to the active effect."),
		mcp.WithString("pattern", mcp.Required(), mcp.Enum(kinds...)),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := req.RequireString("pattern")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return reply(c.Send(ctx, map[string]any{"runTest": p}))
	})
}

func reply(st ws.Status, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("matrix unreachable: %v", err)), nil
	}
	if st.Error != "" {
		return mcp.NewToolResultError(st.Error), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "effect: %s\npreset: %s\n", st.Effect, st.Preset)
	if len(st.Presets) > 0 {
		fmt.Fprintf(&b, "presets: %s\n", strings.Join(st.Presets, ", "))
	}
	fmt.Fprintf(&b, "effects: %s\nbrightness: %.2f", strings.Join(st.Effects, ", "), st.Brightness)
	return mcp.NewToolResultText(b.String()), nil
}
