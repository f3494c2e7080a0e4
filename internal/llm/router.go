// In file: internal/llm/router.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// =================================================================================
// Routing shim
// =================================================================================
// Agents name models as "provider/model" strings. The Router resolves the
// provider, lazily builds one client per provider, and walks the primary model
// then the fallbacks, skipping models the profiler marks offline.
// =================================================================================

// Route is the ordered list of models an agent may use.
type Route struct {
	Primary   string   `yaml:"model" json:"model"`
	Fallbacks []string `yaml:"fallbacks" json:"fallbacks,omitempty"`
}

// Models returns the primary followed by the fallbacks.
func (r Route) Models() []string {
	return append([]string{r.Primary}, r.Fallbacks...)
}

// ClientFactory builds the client for a provider.
type ClientFactory func(ctx context.Context, provider Provider) (LLMClient, error)

// Router sends generations to the first usable model of a route.
type Router struct {
	factory  ClientFactory
	profiler *Profiler

	mu      sync.Mutex
	clients map[Provider]LLMClient
}

// NewRouter creates a router. profiler may be nil.
func NewRouter(factory ClientFactory, profiler *Profiler) *Router {
	return &Router{
		factory:  factory,
		profiler: profiler,
		clients:  make(map[Provider]LLMClient),
	}
}

// KeyedClientFactory builds provider clients from API keys. A provider
// without a key yields ErrMissingAPIKey.
func KeyedClientFactory(apiKeys map[Provider]string, openAIOpts ...OpenAIOption) ClientFactory {
	return func(ctx context.Context, provider Provider) (LLMClient, error) {
		key := apiKeys[provider]
		if key == "" {
			return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, provider)
		}
		switch provider {
		case ProviderGemini:
			return NewGeminiClient(ctx, key)
		case ProviderOpenAI, ProviderOpenRouter, ProviderMistral:
			return NewOpenAICompatibleClient(provider, key, openAIOpts...)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

// Client returns the cached client for a provider, creating it on first use.
func (r *Router) Client(ctx context.Context, provider Provider) (LLMClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[provider]; ok {
		return c, nil
	}
	c, err := r.factory(ctx, provider)
	if err != nil {
		return nil, err
	}
	r.clients[provider] = c
	return c, nil
}

// Generate tries each model of the route in order and returns the first
// success, with Model set to the model that answered.
func (r *Router) Generate(
	ctx context.Context,
	route Route,
	messages []Message,
	config GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	var failures []string
	for _, model := range route.Models() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ref, err := ParseModel(model)
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}
		modelID := ref.String()

		if !r.profiler.IsAvailable(ctx, modelID) {
			log.Printf("- Skipping %s: marked offline", modelID)
			failures = append(failures, modelID+": offline")
			continue
		}

		client, err := r.Client(ctx, ref.Provider)
		if err != nil {
			log.Printf("WARNING: no client for %s: %v", modelID, err)
			failures = append(failures, fmt.Sprintf("%s: %v", modelID, err))
			continue
		}

		cfg := config
		cfg.Model = ref.Name
		start := time.Now()
		result, err := client.Generate(ctx, messages, &cfg, availableTools)
		if err != nil {
			r.profiler.UpdateProfileOnFailure(ctx, modelID)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Printf("WARNING: %s failed, trying next model: %v", modelID, err)
			failures = append(failures, fmt.Sprintf("%s: %v", modelID, err))
			continue
		}

		r.profiler.UpdateProfileOnSuccess(ctx, modelID, time.Since(start), result.Usage)
		result.Model = modelID
		return result, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoHealthyModel, strings.Join(failures, "; "))
}

// CheckHealth sends a tiny prompt to a model and records the outcome.
func (r *Router) CheckHealth(ctx context.Context, model string) error {
	ref, err := ParseModel(model)
	if err != nil {
		return err
	}
	client, err := r.Client(ctx, ref.Provider)
	if err != nil {
		return err
	}
	_, err = client.Generate(ctx,
		[]Message{{Role: RoleUser, Content: "Reply with the single word: ok"}},
		&GenerationConfig{Model: ref.Name, MaxTokens: 5},
		nil,
	)
	r.profiler.UpdateProfileOnHealthCheck(ctx, ref.String(), err == nil)
	return err
}
