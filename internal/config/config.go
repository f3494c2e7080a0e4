// In file: internal/config/config.go

// Package config loads the application configuration from the environment
// (optionally seeded from a .env file) and the agents YAML file.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/tools"
	"github.com/dileep-u-k/weather-agent/internal/weather"
)

const (
	DefaultPort                = "8080"
	DefaultAgentsFile          = "agents.yaml"
	DefaultHealthCheckInterval = 5 * time.Minute
)

var knownTools = map[string]bool{
	tools.WeatherToolName: true,
	tools.TimeToolName:    true,
	tools.SearchToolName:  true,
}

// WeatherConfig points the weather client at its upstreams.
type WeatherConfig struct {
	GeocodingURL string        `yaml:"geocoding_url"`
	ForecastURL  string        `yaml:"forecast_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rate_limit"`
	RateBurst    int           `yaml:"rate_burst"`
}

// FileConfig is the shape of agents.yaml.
type FileConfig struct {
	Agents              []agent.Config           `yaml:"agents"`
	Timezones           map[string]string        `yaml:"timezones"`
	Weather             WeatherConfig            `yaml:"weather"`
	ModelCosts          map[string]llm.ModelCost `yaml:"model_costs"`
	HealthCheckInterval time.Duration            `yaml:"health_check_interval"`
}

// AppConfig holds everything the binaries need.
type AppConfig struct {
	FileConfig `yaml:",inline"`

	Port           string
	GinMode        string
	RedisAddr      string
	APIKeys        map[llm.Provider]string
	SearchAPIKey   string
	SearchEngineID string
}

// Load reads .env (outside release mode), the environment, and the YAML file at
// path. An empty path uses AGENTS_CONFIG or DefaultAgentsFile.
func Load(path string) (*AppConfig, error) {
	// In containers (GIN_MODE=release) configuration comes from the environment only.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	if path == "" {
		path = envOr("AGENTS_CONFIG", DefaultAgentsFile)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds an AppConfig from YAML bytes and the current environment.
func Parse(raw []byte) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:           envOr("PORT", DefaultPort),
		GinMode:        os.Getenv("GIN_MODE"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		SearchAPIKey:   os.Getenv("GOOGLE_SEARCH_API_KEY"),
		SearchEngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
		APIKeys: map[llm.Provider]string{
			llm.ProviderOpenAI:     os.Getenv("OPENAI_API_KEY"),
			llm.ProviderOpenRouter: os.Getenv("OPENROUTER_API_KEY"),
			llm.ProviderMistral:    os.Getenv("MISTRAL_API_KEY"),
			llm.ProviderGemini:     envOr("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		},
	}

	if err := yaml.Unmarshal(raw, &cfg.FileConfig); err != nil {
		return nil, fmt.Errorf("failed to parse agents config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = DefaultHealthCheckInterval
	}
	if c.Weather.GeocodingURL == "" {
		c.Weather.GeocodingURL = weather.DefaultGeocodingURL
	}
	if c.Weather.ForecastURL == "" {
		c.Weather.ForecastURL = weather.DefaultForecastURL
	}
	for i := range c.Agents {
		if c.Agents[i].MaxToolCalls <= 0 {
			c.Agents[i].MaxToolCalls = agent.DefaultMaxToolCalls
		}
	}
}

func (c *AppConfig) validate() error {
	if len(c.Agents) == 0 {
		return errors.New("agents config defines no agents")
	}
	seen := make(map[string]bool, len(c.Agents))
	var errs *multierror.Error
	for i, a := range c.Agents {
		if a.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("agent #%d has no name", i+1))
			continue
		}
		if seen[a.Name] {
			errs = multierror.Append(errs, fmt.Errorf("agent %s is defined twice", a.Name))
		}
		seen[a.Name] = true
		if a.Model == "" {
			errs = multierror.Append(errs, fmt.Errorf("agent %s has no model", a.Name))
		}
		for _, m := range append([]string{a.Model}, a.Fallbacks...) {
			if m == "" {
				continue
			}
			if _, err := llm.ParseModel(m); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("agent %s: %w", a.Name, err))
			}
		}
		for _, name := range a.Tools {
			if !knownTools[name] {
				errs = multierror.Append(errs, fmt.Errorf("agent %s: %w: %s", a.Name, tools.ErrToolNotFound, name))
			}
		}
	}
	return errs.ErrorOrNil()
}

// Models returns every distinct model referenced by the agents, canonicalized
// to "provider/model", in first-seen order.
func (c *AppConfig) Models() []string {
	var out []string
	seen := map[string]bool{}
	for _, a := range c.Agents {
		for _, m := range append([]string{a.Model}, a.Fallbacks...) {
			ref, err := llm.ParseModel(m)
			if err != nil || seen[ref.String()] {
				continue
			}
			seen[ref.String()] = true
			out = append(out, ref.String())
		}
	}
	return out
}

// WeatherClientOptions converts the weather section into client options.
func (c *AppConfig) WeatherClientOptions() []weather.Option {
	opts := []weather.Option{
		weather.WithGeocodingURL(c.Weather.GeocodingURL),
		weather.WithForecastURL(c.Weather.ForecastURL),
		weather.WithRateLimit(c.Weather.RateLimit, c.Weather.RateBurst),
	}
	if c.Weather.Timeout > 0 {
		opts = append(opts, weather.WithHTTPClient(&http.Client{Timeout: c.Weather.Timeout}))
	}
	return opts
}

// SearchEnabled reports whether both web search credentials are present.
func (c *AppConfig) SearchEnabled() bool {
	return c.SearchAPIKey != "" && c.SearchEngineID != ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
