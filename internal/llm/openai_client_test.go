package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-agent/internal/tools"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAICompatibleClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAICompatibleClient(ProviderOpenRouter, "sk-test",
		WithBaseURL(srv.URL+"/api/v1/"),
		WithHTTPClient(srv.Client()),
		WithRetryDelay(time.Millisecond),
		WithHeader("X-Title", "weather-agent"),
	)
	require.NoError(t, err)
	return c
}

func decodeRequest(t *testing.T, r *http.Request) openAIRequest {
	var req openAIRequest
	body, err := io.ReadAll(r.Body)
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(body, &req))
	return req
}

func TestOpenAICompatibleClient_Generate(t *testing.T) {
	requests := make(chan openAIRequest, 1)
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "weather-agent", r.Header.Get("X-Title"))
		requests <- decodeRequest(t, r)

		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
				{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"city\":\"Paris\"}"}}
			]}}],
			"usage":{"prompt_tokens":12,"completion_tokens":7,"total_tokens":19}
		}`))
	})

	weatherDef := tools.NewFunctionTool("get_weather", "weather", tools.JSONSchema{Type: "object"})
	temp := float32(0.2)
	res, err := c.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "Weather in Paris?"},
	}, &GenerationConfig{Model: "openrouter/quasar-alpha", Temperature: &temp}, []tools.Tool{weatherDef})
	require.NoError(t, err)

	got := <-requests
	assert.Equal(t, "openrouter/quasar-alpha", got.Model)
	assert.Equal(t, "auto", got.ToolChoice)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "get_weather", got.Tools[0].Function.Name)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 1e-6)

	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "call_1", res.ToolCalls[0].ID)
	assert.Equal(t, `{"city":"Paris"}`, res.ToolCalls[0].Function.Arguments)
	assert.Equal(t, 19, res.Usage.TotalTokens)
}

func TestOpenAICompatibleClient_ToolRoundTrip(t *testing.T) {
	requests := make(chan openAIRequest, 1)
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests <- decodeRequest(t, r)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"It is sunny."}}]}`))
	})

	call := &tools.ToolCall{ID: "call_1", Type: "function", Function: tools.ToolCallFunction{Name: "get_weather", Arguments: `{"city":"Paris"}`}}
	res, err := c.Generate(context.Background(), []Message{
		{Role: RoleUser, Content: "Weather in Paris?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{call}},
		{Role: RoleTool, Name: "get_weather", ToolCallID: "call_1", Content: `{"status":"success"}`},
	}, &GenerationConfig{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", res.Content)

	got := <-requests
	require.Len(t, got.Messages, 3)
	assert.Empty(t, got.ToolChoice)
	assert.Equal(t, "call_1", got.Messages[1].ToolCalls[0].ID)
	assert.Equal(t, "tool", got.Messages[2].Role)
	assert.Equal(t, "call_1", got.Messages[2].ToolCallID)
	assert.Equal(t, "get_weather", got.Messages[2].Name)
}

func TestOpenAICompatibleClient_Retries(t *testing.T) {
	var calls atomic.Int32
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	res, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
	assert.EqualValues(t, 3, calls.Load())
}

func TestOpenAICompatibleClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	})

	_, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.EqualValues(t, 1, calls.Load())
}

func TestOpenAICompatibleClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
	require.Error(t, err)
	assert.EqualValues(t, maxRetries, calls.Load())
}

func TestOpenAICompatibleClient_EmptyChoices(t *testing.T) {
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
	assert.ErrorContains(t, err, "no choices")
}

func TestNewOpenAICompatibleClient_Validation(t *testing.T) {
	_, err := NewOpenAICompatibleClient(ProviderOpenAI, "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewOpenAICompatibleClient(ProviderGemini, "key")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	for p, url := range map[Provider]string{ProviderOpenAI: OpenAIBaseURL, ProviderOpenRouter: OpenRouterBaseURL, ProviderMistral: MistralBaseURL} {
		c, err := NewOpenAICompatibleClient(p, "key")
		require.NoError(t, err)
		assert.Equal(t, url, c.baseURL)
	}
}
