// In file: internal/weather/openmeteo.go
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"

	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "weather-agent/1.0"

	// currentFields is the current-conditions block requested from the forecast API.
	currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,rain,wind_speed_10m,wind_direction_10m,weather_code"
	// hourlyFields are requested but not part of the report.
	hourlyFields = "temperature_2m,relative_humidity_2m"

	// maxErrorBody bounds how much of an upstream error body ends up in a message.
	maxErrorBody = 256
)

// --- Wire formats ---
// Pointer fields distinguish "absent" from a zero value so that validation can
// reject incomplete payloads instead of reporting 0°C.

type geocodingResponse struct {
	Results []geocodingMatch `json:"results"`
}

type geocodingMatch struct {
	Name      *string  `json:"name"`
	Country   *string  `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type forecastResponse struct {
	Current      *currentBlock `json:"current"`
	CurrentUnits *currentUnits `json:"current_units"`
}

type currentBlock struct {
	Time                *string  `json:"time"`
	Temperature2M       *float64 `json:"temperature_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	RelativeHumidity2M  *float64 `json:"relative_humidity_2m"`
	Precipitation       *float64 `json:"precipitation"`
	WindSpeed10M        *float64 `json:"wind_speed_10m"`
	WindDirection10M    *float64 `json:"wind_direction_10m"`
	WeatherCode         *int     `json:"weather_code"`
}

type currentUnits struct {
	Temperature2M      *string `json:"temperature_2m"`
	RelativeHumidity2M *string `json:"relative_humidity_2m"`
	Precipitation      *string `json:"precipitation"`
	WindSpeed10M       *string `json:"wind_speed_10m"`
	WindDirection10M   *string `json:"wind_direction_10m"`
}

// Units are the unit strings reported next to the current conditions.
type Units struct {
	Temperature   string
	Humidity      string
	Precipitation string
	WindSpeed     string
	WindDirection string
}

// Conditions is a validated current-conditions block.
type Conditions struct {
	Time          string
	Temperature   float64
	Apparent      float64
	Humidity      float64
	Precipitation float64
	WindSpeed     float64
	WindDirection float64
	WeatherCode   int
	Units         Units
}

// Client talks to the Open-Meteo geocoding and forecast APIs.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	geocodingURL string
	forecastURL  string
	userAgent    string
	limiter      *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithGeocodingURL overrides the geocoding endpoint.
func WithGeocodingURL(u string) Option {
	return func(c *Client) { c.geocodingURL = u }
}

// WithForecastURL overrides the forecast endpoint.
func WithForecastURL(u string) Option {
	return func(c *Client) { c.forecastURL = u }
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimit caps outbound requests at rps per second with the given burst.
// A non-positive rps leaves the client unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates an Open-Meteo client pointed at the public endpoints.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: defaultTimeout},
		geocodingURL: DefaultGeocodingURL,
		forecastURL:  DefaultForecastURL,
		userAgent:    defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode resolves a city name to its first match.
func (c *Client) Geocode(ctx context.Context, city string) (*GeoResult, error) {
	params := url.Values{}
	params.Set("name", city)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var resp geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL, params, &resp); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", city, err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, city)
	}

	match := resp.Results[0]
	var missing []string
	if match.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if match.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if match.Name == nil {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: geocoding result missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	geo := &GeoResult{
		Name:      *match.Name,
		Country:   UnknownCountry,
		Latitude:  *match.Latitude,
		Longitude: *match.Longitude,
	}
	if match.Country != nil {
		geo.Country = *match.Country
	}
	return geo, nil
}

// CurrentConditions fetches the current-conditions block for a coordinate pair.
func (c *Client) CurrentConditions(ctx context.Context, latitude, longitude float64) (*Conditions, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("current", currentFields)
	params.Set("hourly", hourlyFields)
	params.Set("timezone", "auto")

	var resp forecastResponse
	if err := c.getJSON(ctx, c.forecastURL, params, &resp); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	return resp.validate()
}

// validate converts the wire payload into Conditions, naming every missing field.
func (r *forecastResponse) validate() (*Conditions, error) {
	if r.Current == nil {
		return nil, fmt.Errorf("%w: forecast has no current block", ErrMalformedResponse)
	}
	if r.CurrentUnits == nil {
		return nil, fmt.Errorf("%w: forecast has no current_units block", ErrMalformedResponse)
	}

	cur, units := r.Current, r.CurrentUnits
	var missing []string
	requireFloat := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, "current."+name)
			return 0
		}
		return *v
	}
	requireString := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		return *v
	}

	cond := &Conditions{
		Time:          requireString("current.time", cur.Time),
		Temperature:   requireFloat("temperature_2m", cur.Temperature2M),
		Apparent:      requireFloat("apparent_temperature", cur.ApparentTemperature),
		Humidity:      requireFloat("relative_humidity_2m", cur.RelativeHumidity2M),
		Precipitation: requireFloat("precipitation", cur.Precipitation),
		WindSpeed:     requireFloat("wind_speed_10m", cur.WindSpeed10M),
		WindDirection: requireFloat("wind_direction_10m", cur.WindDirection10M),
		Units: Units{
			Temperature:   requireString("current_units.temperature_2m", units.Temperature2M),
			Humidity:      requireString("current_units.relative_humidity_2m", units.RelativeHumidity2M),
			Precipitation: requireString("current_units.precipitation", units.Precipitation),
			WindSpeed:     requireString("current_units.wind_speed_10m", units.WindSpeed10M),
			WindDirection: requireString("current_units.wind_direction_10m", units.WindDirection10M),
		},
	}
	// An absent weather code reads as clear sky, matching the provider's default.
	if cur.WeatherCode != nil {
		cond.WeatherCode = *cur.WeatherCode
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}
	return cond, nil
}

// getJSON performs a single GET and decodes a 2xx body into out. There is no retry.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %w", ErrTransport, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, truncate(strings.TrimSpace(string(body)), maxErrorBody))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
