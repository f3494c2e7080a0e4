// In file: cmd/mcp/main.go

// Command mcp serves the agent tools over the Model Context Protocol (stdio),
// so any MCP host can call get_weather and friends without the HTTP gateway.
package main

import (
	"context"
	"log"
	"os"

	"github.com/miyamo2/qilin"

	"github.com/dileep-u-k/weather-agent/internal/config"
	"github.com/dileep-u-k/weather-agent/internal/tools"
	"github.com/dileep-u-k/weather-agent/internal/version"
	"github.com/dileep-u-k/weather-agent/internal/weather"
)

const serverName = "weather-agent-tools"

// argTypes gives qilin a typed request per tool for input-schema reflection.
var argTypes = map[string]any{
	tools.WeatherToolName: (*tools.WeatherArgs)(nil),
	tools.TimeToolName:    (*tools.TimeArgs)(nil),
	tools.SearchToolName:  (*tools.SearchArgs)(nil),
}

func main() {
	// stdout carries the protocol; logs go to stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}

	ctx := context.Background()
	toolManager, err := tools.NewDefaultManager(ctx, tools.Options{
		Weather:        weather.NewService(weather.NewClient(cfg.WeatherClientOptions()...)),
		Timezones:      cfg.Timezones,
		SearchAPIKey:   cfg.SearchAPIKey,
		SearchEngineID: cfg.SearchEngineID,
	})
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	q := qilin.New(serverName, qilin.WithVersion(version.Get().Version))
	registerTools(q, toolManager)

	log.Printf("🚀 MCP server %s ready with %d tools.", serverName, toolManager.ToolCount())
	if err := q.Start(); err != nil {
		log.Fatalf("❌ MCP server stopped: %v", err)
	}
}

// toolRegistrar is the part of *qilin.Qilin used here.
type toolRegistrar interface {
	Tool(name string, req any, handler qilin.ToolHandlerFunc, options ...qilin.ToolOption)
}

var _ toolRegistrar = (*qilin.Qilin)(nil)

// registerTools exposes every tool of the manager that has a known argument type.
func registerTools(r toolRegistrar, tm *tools.ToolManager) []string {
	var registered []string
	for _, def := range tm.Definitions() {
		name := def.Function.Name
		req, ok := argTypes[name]
		if !ok {
			log.Printf("WARNING: tool %s has no MCP argument type, skipping.", name)
			continue
		}
		r.Tool(name, req, toolHandler(tm), qilin.ToolWithDescription(def.Function.Description))
		registered = append(registered, name)
	}
	return registered
}

// toolHandler forwards the raw MCP arguments to the tool manager and returns
// the tool output as text content.
func toolHandler(tm *tools.ToolManager) qilin.ToolHandlerFunc {
	return func(c qilin.ToolContext) error {
		out, err := tm.Execute(c.Context(), c.ToolName(), string(c.Arguments()))
		if err != nil {
			log.Printf("❌ MCP tool %s failed: %v", c.ToolName(), err)
			return err
		}
		return c.String(out)
	}
}
