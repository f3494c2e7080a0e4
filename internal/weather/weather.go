// In file: internal/weather/weather.go

// Package weather resolves a free-text city name to current weather conditions.
//
// A lookup is two chained Open-Meteo calls: the geocoding API turns the city into
// coordinates, then the forecast API returns the current conditions for them. The
// result is normalized into a WeatherReport and handed back as a tagged Result, so
// the agent runtime that calls the tool always receives a structured value.
package weather

// UnknownCountry is reported when the geocoding match carries no country.
const UnknownCountry = "Unknown"

// GeoResult is the first geocoding match for a city.
type GeoResult struct {
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
}

// Coordinates of the resolved location, in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Temperature holds the measured and the "feels like" temperature.
type Temperature struct {
	Current  float64 `json:"current"`
	Apparent float64 `json:"apparent"`
	Unit     string  `json:"unit"`
}

// Measurement is a single value with the unit reported by the provider.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type Wind struct {
	Speed         float64 `json:"speed"`
	SpeedUnit     string  `json:"speed_unit"`
	Direction     float64 `json:"direction"`
	DirectionUnit string  `json:"direction_unit"`
}

// Condition is a WMO weather code and its description.
type Condition struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// WeatherReport is the normalized current-conditions snapshot for a city.
// Unit strings are copied from the provider, never assumed.
type WeatherReport struct {
	City          string      `json:"city"`
	Country       string      `json:"country"`
	Coordinates   Coordinates `json:"coordinates"`
	Temperature   Temperature `json:"temperature"`
	Humidity      Measurement `json:"humidity"`
	Precipitation Measurement `json:"precipitation"`
	Wind          Wind        `json:"wind"`
	Weather       Condition   `json:"weather"`
	Timestamp     string      `json:"timestamp"`
}

// Status tags a Result as a success or an error.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is exactly one of: a success carrying a complete report, or an error
// carrying a message. It is the value returned to the agent runtime.
type Result struct {
	Status       Status         `json:"status"`
	Report       *WeatherReport `json:"report,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Success wraps a complete report.
func Success(report *WeatherReport) Result {
	return Result{Status: StatusSuccess, Report: report}
}

// Failure builds an error result with no report.
func Failure(message string) Result {
	return Result{Status: StatusError, ErrorMessage: message}
}

// OK reports whether the result carries a report.
func (r Result) OK() bool {
	return r.Status == StatusSuccess && r.Report != nil
}
