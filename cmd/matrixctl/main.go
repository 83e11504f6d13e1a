// matrixctl serves the matrix controls to MCP clients over stdio, or sends a
// single control message with "matrixctl send '<json>'".
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-arcaluminis/internal/mcptools"
)

const version = "0.3.0"

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/control", "daemon control websocket")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// stdout carries the MCP stream
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	c := mcptools.NewClient(*url)
	defer c.Close()

	if flag.Arg(0) == "send" {
		if err := send(c, flag.Arg(1)); err != nil {
			log.Fatal().Err(err).Msg("send failed")
		}
		return
	}

	log.Info().Str("url", *url).Msg("MCP server starting on stdio")
	if err := server.ServeStdio(mcptools.NewServer(c, version)); err != nil {
		log.Fatal().Err(err).Msg("mcp server")
	}
}

func send(c *mcptools.Client, payload string) error {
	var msg map[string]any
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return fmt.Errorf("payload must be a JSON object: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := c.Send(ctx, msg)
	if err != nil {
		return err
	}
	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))
	return nil
}
