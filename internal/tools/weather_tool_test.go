package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-agent/internal/weather"
)

func newWeatherService(t *testing.T, geocoding string) *weather.Service {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geocoding))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"current_units": {"temperature_2m":"°F","relative_humidity_2m":"%","precipitation":"inch","wind_speed_10m":"mp/h","wind_direction_10m":"°"},
			"current": {"time":"2025-04-01T08:00","temperature_2m":50.1,"apparent_temperature":47,"relative_humidity_2m":70,"precipitation":0,"wind_speed_10m":5,"wind_direction_10m":90,"weather_code":61}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return weather.NewService(weather.NewClient(
		weather.WithHTTPClient(srv.Client()),
		weather.WithGeocodingURL(srv.URL+"/search"),
		weather.WithForecastURL(srv.URL+"/forecast"),
	))
}

func TestWeatherTool_Definition(t *testing.T) {
	def := NewWeatherTool(nil).Definition()
	assert.Equal(t, WeatherToolName, def.Function.Name)
	assert.Equal(t, "object", def.Function.Parameters.Type)
	assert.Equal(t, []string{"city"}, def.Function.Parameters.Required)
	assert.Equal(t, "string", def.Function.Parameters.Properties["city"].Type)
}

func TestWeatherTool_Execute(t *testing.T) {
	svc := newWeatherService(t, `{"results":[{"name":"New York","country":"United States","latitude":40.71,"longitude":-74.01}]}`)
	tool := NewWeatherTool(svc)

	out, err := tool.Execute(context.Background(), `{"city":"new york"}`)
	require.NoError(t, err)

	var res weather.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.True(t, res.OK(), res.ErrorMessage)
	assert.Equal(t, "New York", res.Report.City)
	assert.Equal(t, "°F", res.Report.Temperature.Unit)
	assert.Equal(t, "inch", res.Report.Precipitation.Unit)
	assert.Equal(t, "Slight rain", res.Report.Weather.Description)
}

func TestWeatherTool_ErrorsStayInResult(t *testing.T) {
	tool := NewWeatherTool(newWeatherService(t, `{"results":[]}`))

	out, err := tool.Execute(context.Background(), `{"city":"Atlantis"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","error_message":"Could not find location: Atlantis"}`, out)

	out, err = tool.Execute(context.Background(), ``)
	require.NoError(t, err)
	assert.Contains(t, out, `"status":"error"`)

	_, err = tool.Execute(context.Background(), `not json`)
	assert.ErrorContains(t, err, WeatherToolName)
}
