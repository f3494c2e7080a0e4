// In file: internal/tools/weather_tool.go
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dileep-u-k/weather-agent/internal/weather"
)

// --- Weather Tool Implementation ---

// WeatherToolName is the function name the model calls.
const WeatherToolName = "get_weather"

// WeatherArgs are the arguments of get_weather.
type WeatherArgs struct {
	City string `json:"city" jsonschema:"description=The name of the city for which to retrieve the weather report."`
}

// WeatherTool reports the current weather for a city via Open-Meteo.
type WeatherTool struct {
	service *weather.Service
}

var _ ToolExecutor = (*WeatherTool)(nil)

// NewWeatherTool wraps a lookup service. A nil service uses the public Open-Meteo endpoints.
func NewWeatherTool(service *weather.Service) *WeatherTool {
	if service == nil {
		service = weather.NewService(nil)
	}
	return &WeatherTool{service: service}
}

func (wt *WeatherTool) Definition() Tool {
	return NewFunctionTool(
		WeatherToolName,
		"Retrieves the current weather report for a specified city: temperature, feels-like temperature, humidity, precipitation, wind and a short description of the conditions.",
		stringParam("city", "The name of the city for which to retrieve the weather report, e.g. 'New York' or 'Kharagpur'."),
	)
}

// Execute always answers with the JSON tagged result, success or error.
func (wt *WeatherTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args WeatherArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", WeatherToolName, err)
	}
	return marshalResult(wt.service.Lookup(ctx, args.City))
}

// decodeArgs unmarshals model-generated arguments; an empty string means no arguments.
func decodeArgs(arguments string, out any) error {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	return json.Unmarshal([]byte(arguments), out)
}

func marshalResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(b), nil
}
