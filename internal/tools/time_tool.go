// In file: internal/tools/time_tool.go
package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/dileep-u-k/weather-agent/internal/weather"
)

// TimeToolName is the function name the model calls.
const TimeToolName = "get_current_time"

// timeLayout renders e.g. "2025-04-01 08:00:00 EDT-0400".
const timeLayout = "2006-01-02 15:04:05 MST-0700"

// DefaultTimezones is used when no table is configured.
var DefaultTimezones = map[string]string{
	"new york": "America/New_York",
}

// TimeArgs are the arguments of get_current_time.
type TimeArgs struct {
	City string `json:"city" jsonschema:"description=The name of the city for which to retrieve the current time."`
}

// TimeResult mirrors the weather result shape with a plain-text report.
type TimeResult struct {
	Status       weather.Status `json:"status"`
	Report       string         `json:"report,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// TimeTool tells the current local time of the cities in its timezone table.
type TimeTool struct {
	zones map[string]*time.Location
	now   func() time.Time
}

var _ ToolExecutor = (*TimeTool)(nil)

// NewTimeTool loads every IANA zone in table, keyed by lower-cased city name.
// An empty table falls back to DefaultTimezones.
func NewTimeTool(table map[string]string) (*TimeTool, error) {
	if len(table) == 0 {
		table = DefaultTimezones
	}
	zones := make(map[string]*time.Location, len(table))
	for city, zone := range table {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q for %q: %w", zone, city, err)
		}
		zones[normalizeCity(city)] = loc
	}
	return &TimeTool{zones: zones, now: time.Now}, nil
}

// WithClock replaces the time source. Used by tests.
func (tt *TimeTool) WithClock(now func() time.Time) *TimeTool {
	tt.now = now
	return tt
}

func (tt *TimeTool) Definition() Tool {
	return NewFunctionTool(
		TimeToolName,
		"Returns the current local time in a specified city.",
		stringParam("city", "The name of the city for which to retrieve the current time."),
	)
}

func (tt *TimeTool) Execute(_ context.Context, arguments string) (string, error) {
	var args TimeArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", TimeToolName, err)
	}
	return marshalResult(tt.Lookup(args.City))
}

// Lookup answers for a single city.
func (tt *TimeTool) Lookup(city string) TimeResult {
	city = strings.TrimSpace(city)
	loc, ok := tt.zones[normalizeCity(city)]
	if !ok {
		return TimeResult{
			Status:       weather.StatusError,
			ErrorMessage: fmt.Sprintf("Sorry, I don't have timezone information for %s.", city),
		}
	}
	return TimeResult{
		Status: weather.StatusSuccess,
		Report: fmt.Sprintf("The current time in %s is %s", city, tt.now().In(loc).Format(timeLayout)),
	}
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}
