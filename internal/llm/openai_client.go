// In file: internal/llm/openai_client.go
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// --- Chat Completions wire format (OpenAI, OpenRouter and Mistral share it) ---

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []tools.Tool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
	TopP        *float32        `json:"top_p,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage api.Usage `json:"usage"`
}

// OpenAICompatibleClient speaks the Chat Completions API. One instance serves
// every model of its provider; the model is chosen per request.
type OpenAICompatibleClient struct {
	provider   Provider
	apiKey     string
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	retryDelay time.Duration
}

var _ LLMClient = (*OpenAICompatibleClient)(nil)

// OpenAIOption configures an OpenAICompatibleClient.
type OpenAIOption func(*OpenAICompatibleClient)

// WithBaseURL points the client at another Chat Completions endpoint root.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAICompatibleClient) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAICompatibleClient) { c.httpClient = hc }
}

// WithRetryDelay sets the initial backoff between attempts.
func WithRetryDelay(d time.Duration) OpenAIOption {
	return func(c *OpenAICompatibleClient) { c.retryDelay = d }
}

// WithHeader adds a header to every request (OpenRouter reads HTTP-Referer and X-Title).
func WithHeader(key, value string) OpenAIOption {
	return func(c *OpenAICompatibleClient) { c.headers[key] = value }
}

// NewOpenAICompatibleClient creates a client for openai, openrouter or mistral.
func NewOpenAICompatibleClient(provider Provider, apiKey string, opts ...OpenAIOption) (*OpenAICompatibleClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, provider)
	}
	c := &OpenAICompatibleClient{
		provider:   provider,
		apiKey:     apiKey,
		headers:    make(map[string]string),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryDelay: initialRetryDelay,
	}
	switch provider {
	case ProviderOpenAI:
		c.baseURL = OpenAIBaseURL
	case ProviderOpenRouter:
		c.baseURL = OpenRouterBaseURL
	case ProviderMistral:
		c.baseURL = MistralBaseURL
	default:
		return nil, fmt.Errorf("%w: %s is not OpenAI-compatible", ErrUnknownProvider, provider)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate performs a blocking chat completion.
func (c *OpenAICompatibleClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	if config == nil || config.Model == "" {
		return nil, errors.New("generation config must name a model")
	}
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request payload: %w", c.provider, err)
	}

	respBody, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	return parseOpenAIResponse(respBody)
}

func (c *OpenAICompatibleClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) ([]byte, error) {
	req := openAIRequest{
		Model:       config.Model,
		Messages:    toOpenAIMessages(messages),
		Tools:       availableTools,
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		TopP:        config.TopP,
	}
	if len(availableTools) > 0 {
		req.ToolChoice = "auto"
	}
	return json.Marshal(req)
}

// doRequest POSTs with bounded retries. Transport errors and 5xx are retried
// with exponential backoff; 4xx is returned at once.
func (c *OpenAICompatibleClient) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error
	delay := c.retryDelay

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s request cancelled: %w (last error: %v)", c.provider, ctx.Err(), lastErr)
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := c.createRequest(ctx, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s request failed (attempt %d/%d): %w", c.provider, i+1, maxRetries, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s response body: %w", c.provider, readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		lastErr = fmt.Errorf("%s API error (attempt %d/%d): status %d, body: %s", c.provider, i+1, maxRetries, resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (c *OpenAICompatibleClient) createRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		m := openAIMessage{Role: string(msg.Role), Content: msg.Content}
		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
		case RoleAssistant:
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, *tc)
			}
		}
		out = append(out, m)
	}
	return out
}

func parseOpenAIResponse(body []byte) (*GenerationResult, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices returned by the model")
	}

	choice := resp.Choices[0]
	result := &GenerationResult{
		Content: choice.Message.Content,
		Usage:   resp.Usage,
	}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, &tools.ToolCall{
			ID:   tc.ID,
			Type: tools.ToolTypeFunction,
			Function: tools.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return result, nil
}
