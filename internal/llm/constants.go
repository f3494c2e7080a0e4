// In file: internal/llm/constants.go
package llm

import "time"

// Shared by the provider clients.
const (
	defaultTimeout    = 120 * time.Second
	maxRetries        = 3
	initialRetryDelay = 2 * time.Second

	defaultMaxOutputTokens = 4096
)

// Base URLs of the OpenAI-compatible providers.
const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	MistralBaseURL    = "https://api.mistral.ai/v1"
)
