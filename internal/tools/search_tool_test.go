package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newSearchTool(t *testing.T, handler http.HandlerFunc) *SearchTool {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tool, err := NewSearchTool(context.Background(), "test-key", "engine-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return tool
}

func TestSearchTool_Execute(t *testing.T) {
	var gotQuery, gotCx, gotNum string
	tool := newSearchTool(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/customsearch/v1"), r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotCx = r.URL.Query().Get("cx")
		gotNum = r.URL.Query().Get("num")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Open-Meteo","link":"https://open-meteo.com","snippet":"Free weather API "},
			{"title":"WMO codes","link":"https://example.org/wmo","snippet":"Weather interpretation codes"}
		]}`))
	})

	out, err := tool.Execute(context.Background(), `{"query":"weather api"}`)
	require.NoError(t, err)

	assert.Equal(t, "weather api", gotQuery)
	assert.Equal(t, "engine-1", gotCx)
	assert.Equal(t, "5", gotNum)
	assert.Equal(t, "Top 2 results for \"weather api\":\n"+
		"1. Open-Meteo\n   https://open-meteo.com\n   Free weather API\n"+
		"2. WMO codes\n   https://example.org/wmo\n   Weather interpretation codes\n", out)
}

func TestSearchTool_NoResults(t *testing.T) {
	tool := newSearchTool(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	out, err := tool.Execute(context.Background(), `{"query":"zzqx"}`)
	require.NoError(t, err)
	assert.Equal(t, `No web results found for "zzqx".`, out)
}

func TestSearchTool_UpstreamErrorIsText(t *testing.T) {
	tool := newSearchTool(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quota"}}`, http.StatusForbidden)
	})

	out, err := tool.Execute(context.Background(), `{"query":"x"}`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Error: web search failed"), out)
}

func TestSearchTool_Validation(t *testing.T) {
	_, err := NewSearchTool(context.Background(), "", "cx")
	assert.Error(t, err)
	_, err = NewSearchTool(context.Background(), "key", "")
	assert.Error(t, err)

	tool := newSearchTool(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	out, err := tool.Execute(context.Background(), `{"query":"  "}`)
	require.NoError(t, err)
	assert.Equal(t, "Error: Search query cannot be empty.", out)
}

func TestNewDefaultManager(t *testing.T) {
	tm, err := NewDefaultManager(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{TimeToolName, WeatherToolName}, tm.Names())

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	tm, err = NewDefaultManager(context.Background(), Options{
		SearchAPIKey:   "k",
		SearchEngineID: "cx",
		SearchOptions:  []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{TimeToolName, WeatherToolName, SearchToolName}, tm.Names())
}
