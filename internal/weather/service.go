// In file: internal/weather/service.go
package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is the upstream the service chains: geocode first, then fetch conditions.
type Provider interface {
	Geocode(ctx context.Context, city string) (*GeoResult, error)
	CurrentConditions(ctx context.Context, latitude, longitude float64) (*Conditions, error)
}

var _ Provider = (*Client)(nil)

// Service turns a city name into a WeatherReport. It holds no mutable state.
type Service struct {
	provider Provider
}

// NewService wraps a provider. A nil provider falls back to the public Open-Meteo client.
func NewService(provider Provider) *Service {
	if provider == nil {
		provider = NewClient()
	}
	return &Service{provider: provider}
}

// Report performs the two-step lookup and returns a complete report or a
// classified error (see ErrNotFound, ErrTransport, ErrMalformedResponse).
func (s *Service) Report(ctx context.Context, city string) (*WeatherReport, error) {
	query := strings.TrimSpace(city)
	if query == "" {
		return nil, fmt.Errorf("%w: city name is empty", ErrInvalidInput)
	}

	geo, err := s.provider.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	cond, err := s.provider.CurrentConditions(ctx, geo.Latitude, geo.Longitude)
	if err != nil {
		return nil, err
	}

	return &WeatherReport{
		City:    geo.Name,
		Country: geo.Country,
		Coordinates: Coordinates{
			Latitude:  geo.Latitude,
			Longitude: geo.Longitude,
		},
		Temperature: Temperature{
			Current:  cond.Temperature,
			Apparent: cond.Apparent,
			Unit:     cond.Units.Temperature,
		},
		Humidity:      Measurement{Value: cond.Humidity, Unit: cond.Units.Humidity},
		Precipitation: Measurement{Value: cond.Precipitation, Unit: cond.Units.Precipitation},
		Wind: Wind{
			Speed:         cond.WindSpeed,
			SpeedUnit:     cond.Units.WindSpeed,
			Direction:     cond.WindDirection,
			DirectionUnit: cond.Units.WindDirection,
		},
		Weather: Condition{
			Code:        cond.WeatherCode,
			Description: DescribeCode(cond.WeatherCode),
		},
		Timestamp: cond.Time,
	}, nil
}

// Lookup never fails: every error is folded into an error Result so that a tool
// caller always gets a structured value back.
func (s *Service) Lookup(ctx context.Context, city string) Result {
	report, err := s.Report(ctx, city)
	if err != nil {
		return Failure(FailureMessage(city, err))
	}
	return Success(report)
}

// FailureMessage renders the user-facing text for a failed lookup. A missing
// location names the city; anything else also carries the underlying detail.
func FailureMessage(city string, err error) string {
	if errors.Is(err, ErrNotFound) {
		return fmt.Sprintf("Could not find location: %s", city)
	}
	return fmt.Sprintf("Weather information for '%s' is not available. | %v", city, err)
}
