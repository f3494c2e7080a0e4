// In file: internal/llm/provider.go
package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownProvider is returned for a model string whose provider cannot be determined.
	ErrUnknownProvider = errors.New("unknown model provider")
	// ErrMissingAPIKey is returned when a provider is used without a configured key.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrNoHealthyModel is returned when the primary model and every fallback failed or were skipped.
	ErrNoHealthyModel = errors.New("no healthy model available")
)

// Provider identifies an upstream model API.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderMistral    Provider = "mistral"
	ProviderGemini     Provider = "gemini"
)

// Providers lists every supported provider.
var Providers = []Provider{ProviderOpenAI, ProviderOpenRouter, ProviderMistral, ProviderGemini}

// ModelRef is a parsed "provider/model" string.
type ModelRef struct {
	Provider Provider
	Name     string
}

// String returns the canonical "provider/model" form, used as the profiler key.
func (m ModelRef) String() string {
	return string(m.Provider) + "/" + m.Name
}

// ParseModel splits "provider/model". Only the first slash separates, so
// "openrouter/openrouter/quasar-alpha" routes the model "openrouter/quasar-alpha"
// through OpenRouter. A bare name is attributed by prefix: gpt, o1, o3 to OpenAI,
// gemini to Gemini and mistral to Mistral.
func ParseModel(model string) (ModelRef, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return ModelRef{}, fmt.Errorf("%w: empty model", ErrUnknownProvider)
	}

	if prefix, name, ok := strings.Cut(model, "/"); ok {
		p := Provider(strings.ToLower(prefix))
		if !p.valid() {
			return ModelRef{}, fmt.Errorf("%w: %q in %q", ErrUnknownProvider, prefix, model)
		}
		if name == "" {
			return ModelRef{}, fmt.Errorf("%w: no model name in %q", ErrUnknownProvider, model)
		}
		return ModelRef{Provider: p, Name: name}, nil
	}

	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "gpt"), strings.HasPrefix(lower, "o1"), strings.HasPrefix(lower, "o3"):
		return ModelRef{Provider: ProviderOpenAI, Name: model}, nil
	case strings.HasPrefix(lower, "gemini"):
		return ModelRef{Provider: ProviderGemini, Name: model}, nil
	case strings.HasPrefix(lower, "mistral"):
		return ModelRef{Provider: ProviderMistral, Name: model}, nil
	}
	return ModelRef{}, fmt.Errorf("%w: cannot infer provider of %q", ErrUnknownProvider, model)
}

func (p Provider) valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}
