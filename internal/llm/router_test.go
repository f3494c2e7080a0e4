package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// scriptedClient answers per model name; a missing entry is an error.
type scriptedClient struct {
	mu      sync.Mutex
	answers map[string]string
	calls   []string
}

func (s *scriptedClient) Generate(_ context.Context, _ []Message, cfg *GenerationConfig, _ []tools.Tool) (*GenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, cfg.Model)
	answer, ok := s.answers[cfg.Model]
	if !ok {
		return nil, errors.New("upstream 503")
	}
	return &GenerationResult{Content: answer, Usage: api.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2}}, nil
}

func staticFactory(clients map[Provider]LLMClient) (ClientFactory, *int) {
	built := 0
	return func(_ context.Context, p Provider) (LLMClient, error) {
		c, ok := clients[p]
		if !ok {
			return nil, ErrMissingAPIKey
		}
		built++
		return c, nil
	}, &built
}

func TestRouter_PrimarySucceeds(t *testing.T) {
	gemini := &scriptedClient{answers: map[string]string{"gemini-2.0-flash-exp": "hello"}}
	factory, built := staticFactory(map[Provider]LLMClient{ProviderGemini: gemini})
	r := NewRouter(factory, nil)

	route := Route{Primary: "gemini/gemini-2.0-flash-exp"}
	for i := 0; i < 2; i++ {
		res, err := r.Generate(context.Background(), route, []Message{{Role: RoleUser, Content: "hi"}}, GenerationConfig{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "hello", res.Content)
		assert.Equal(t, "gemini/gemini-2.0-flash-exp", res.Model)
	}
	assert.Equal(t, 1, *built, "clients are cached per provider")
}

func TestRouter_FallsBack(t *testing.T) {
	openrouter := &scriptedClient{answers: map[string]string{"openrouter/quasar-alpha": "from fallback"}}
	gemini := &scriptedClient{}
	factory, _ := staticFactory(map[Provider]LLMClient{ProviderGemini: gemini, ProviderOpenRouter: openrouter})

	mr := miniredis.RunT(t)
	profiler := NewProfiler(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	r := NewRouter(factory, profiler)

	route := Route{
		Primary:   "gemini/gemini-2.0-flash-exp",
		Fallbacks: []string{"bogus/model", "openai/gpt-4o", "openrouter/openrouter/quasar-alpha"},
	}
	res, err := r.Generate(context.Background(), route, []Message{{Role: RoleUser, Content: "hi"}}, GenerationConfig{MaxTokens: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, "from fallback", res.Content)
	assert.Equal(t, "openrouter/openrouter/quasar-alpha", res.Model)
	assert.Equal(t, []string{"gemini-2.0-flash-exp"}, gemini.calls)

	assert.Equal(t, StatusDegraded, mr.HGet("profile:gemini/gemini-2.0-flash-exp", "status"))
	assert.Equal(t, "1", mr.HGet("profile:openrouter/openrouter/quasar-alpha", "total_successes"))
}

func TestRouter_SkipsOfflineModels(t *testing.T) {
	gemini := &scriptedClient{answers: map[string]string{"gemini-2.0-flash-exp": "primary"}}
	mistral := &scriptedClient{answers: map[string]string{"mistral-small": "secondary"}}
	factory, _ := staticFactory(map[Provider]LLMClient{ProviderGemini: gemini, ProviderMistral: mistral})

	mr := miniredis.RunT(t)
	profiler := NewProfiler(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	profiler.UpdateProfileOnHealthCheck(context.Background(), "gemini/gemini-2.0-flash-exp", false)
	r := NewRouter(factory, profiler)

	res, err := r.Generate(context.Background(),
		Route{Primary: "gemini/gemini-2.0-flash-exp", Fallbacks: []string{"mistral-small"}},
		[]Message{{Role: RoleUser, Content: "hi"}}, GenerationConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "secondary", res.Content)
	assert.Equal(t, "mistral/mistral-small", res.Model)
	assert.Empty(t, gemini.calls)
}

func TestRouter_AllFail(t *testing.T) {
	factory, _ := staticFactory(map[Provider]LLMClient{ProviderGemini: &scriptedClient{}})
	r := NewRouter(factory, nil)

	_, err := r.Generate(context.Background(),
		Route{Primary: "gemini/gemini-2.0-flash-exp", Fallbacks: []string{"openai/gpt-4o"}},
		[]Message{{Role: RoleUser, Content: "hi"}}, GenerationConfig{}, nil)
	require.ErrorIs(t, err, ErrNoHealthyModel)
	assert.Contains(t, err.Error(), "upstream 503")
	assert.Contains(t, err.Error(), "openai/gpt-4o")
}

func TestRouter_CancelledContext(t *testing.T) {
	gemini := &scriptedClient{answers: map[string]string{"gemini-2.0-flash-exp": "x"}}
	factory, _ := staticFactory(map[Provider]LLMClient{ProviderGemini: gemini})
	r := NewRouter(factory, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Generate(ctx, Route{Primary: "gemini/gemini-2.0-flash-exp"}, nil, GenerationConfig{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gemini.calls)
}

func TestRouter_CheckHealth(t *testing.T) {
	gemini := &scriptedClient{answers: map[string]string{"gemini-2.0-flash-exp": "ok"}}
	factory, _ := staticFactory(map[Provider]LLMClient{ProviderGemini: gemini})
	mr := miniredis.RunT(t)
	r := NewRouter(factory, NewProfiler(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil))

	require.NoError(t, r.CheckHealth(context.Background(), "gemini/gemini-2.0-flash-exp"))
	assert.Equal(t, StatusOnline, mr.HGet("profile:gemini/gemini-2.0-flash-exp", "status"))

	assert.Error(t, r.CheckHealth(context.Background(), "gemini/gemini-unknown"))
	assert.Equal(t, StatusOffline, mr.HGet("profile:gemini/gemini-unknown", "status"))

	assert.ErrorIs(t, r.CheckHealth(context.Background(), "openai/gpt-4o"), ErrMissingAPIKey)
}

func TestKeyedClientFactory(t *testing.T) {
	factory := KeyedClientFactory(map[Provider]string{ProviderMistral: "key"})

	c, err := factory(context.Background(), ProviderMistral)
	require.NoError(t, err)
	assert.IsType(t, &OpenAICompatibleClient{}, c)

	_, err = factory(context.Background(), ProviderOpenAI)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestRoute_Models(t *testing.T) {
	r := Route{Primary: "a", Fallbacks: []string{"b", "c"}}
	assert.Equal(t, []string{"a", "b", "c"}, r.Models())
	assert.Equal(t, []string{"a"}, Route{Primary: "a"}.Models())
}
