// In file: internal/tools/registry.go
package tools

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/option"

	"github.com/dileep-u-k/weather-agent/internal/weather"
)

// Options selects and configures the built-in tools.
type Options struct {
	Weather   *weather.Service
	Timezones map[string]string

	// Web search is registered only when both values are set.
	SearchAPIKey   string
	SearchEngineID string
	SearchOptions  []option.ClientOption
}

// NewDefaultManager registers get_weather, get_current_time and, when
// configured, web_search.
func NewDefaultManager(ctx context.Context, opts Options) (*ToolManager, error) {
	tm := NewToolManager()
	tm.Register(NewWeatherTool(opts.Weather))

	timeTool, err := NewTimeTool(opts.Timezones)
	if err != nil {
		return nil, err
	}
	tm.Register(timeTool)

	if opts.SearchAPIKey != "" && opts.SearchEngineID != "" {
		search, err := NewSearchTool(ctx, opts.SearchAPIKey, opts.SearchEngineID, opts.SearchOptions...)
		if err != nil {
			return nil, fmt.Errorf("web search tool: %w", err)
		}
		tm.Register(search)
	} else {
		log.Printf("WARNING: %s disabled (GOOGLE_SEARCH_API_KEY / GOOGLE_SEARCH_ENGINE_ID not set).", SearchToolName)
	}

	log.Printf("🛠️ Registered %d tools: %v", tm.ToolCount(), tm.Names())
	return tm, nil
}
