// In file: internal/llm/gemini_client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// GeminiClient talks to Google's Gemini models through the genai SDK. A
// GenerativeModel is built per call so that concurrent requests never share
// model settings.
type GeminiClient struct {
	client *genai.Client
}

var _ LLMClient = (*GeminiClient)(nil)

// NewGeminiClient creates the SDK client. Extra options are appended after the key.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, ProviderGemini)
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Generate sends the conversation as chat history plus a final turn.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	if config == nil || config.Model == "" {
		return nil, errors.New("generation config must name a model")
	}

	system, contents, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, errors.New("gemini request has no user content")
	}
	last := contents[len(contents)-1]
	if last.Role != "user" {
		return nil, fmt.Errorf("gemini conversation must end with a user or tool turn, got %q", last.Role)
	}

	model := c.client.GenerativeModel(config.Model)
	configureModel(model, config, availableTools)
	model.SystemInstruction = system

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(ctx, model, resp)
}

func configureModel(model *genai.GenerativeModel, config *GenerationConfig, availableTools []tools.Tool) {
	if config.Temperature != nil {
		model.SetTemperature(*config.Temperature)
	}
	if config.TopP != nil {
		model.SetTopP(*config.TopP)
	}
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	} else {
		model.SetMaxOutputTokens(defaultMaxOutputTokens)
	}
	model.Tools = toGeminiTools(availableTools)
}

// toGeminiTools puts every declaration into a single genai.Tool.
func toGeminiTools(defs []tools.Tool) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, t := range defs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func convertSchema(s tools.JSONSchema) *genai.Schema {
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = convertSchema(*v)
		}
	}
	if s.Items != nil {
		out.Items = convertSchema(*s.Items)
	}
	return out
}

// toGeminiContents maps the conversation onto Gemini turns. System messages are
// joined into the system instruction; consecutive tool results become one user
// turn of FunctionResponse parts.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content, error) {
	var systemParts []string
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}
		case RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		case RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := map[string]any{}
				if strings.TrimSpace(tc.Function.Arguments) != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						return nil, nil, fmt.Errorf("tool call %s has invalid arguments: %w", tc.ID, err)
					}
				}
				parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case RoleTool:
			part := genai.FunctionResponse{Name: msg.Name, Response: toolResponse(msg.Content)}
			if n := len(contents); n > 0 && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{part}})
		default:
			return nil, nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(systemParts, "\n\n"))}}
	}
	return system, contents, nil
}

// toolResponse keeps a JSON object result structured; anything else is wrapped.
func toolResponse(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"result": content}
}

func isFunctionResponseTurn(c *genai.Content) bool {
	if c.Role != "user" || len(c.Parts) == 0 {
		return false
	}
	_, ok := c.Parts[0].(genai.FunctionResponse)
	return ok
}

// parseGeminiResponse converts the first candidate into a GenerationResult.
func parseGeminiResponse(ctx context.Context, model *genai.GenerativeModel, resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	var content strings.Builder
	var toolCalls []*tools.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			content.WriteString(string(v))
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				log.Printf("WARNING: could not marshal Gemini tool call args for %s: %v", v.Name, err)
				continue
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   "call_" + uuid.NewString(),
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(args),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(content.String()),
		ToolCalls: toolCalls,
	}
	if resp.UsageMetadata != nil {
		result.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	// Some responses omit the candidate count; count the text ourselves.
	if result.Usage.CompletionTokens == 0 && result.Content != "" && model != nil {
		count, err := model.CountTokens(ctx, genai.Text(result.Content))
		if err != nil {
			log.Printf("WARNING: failed to count Gemini completion tokens: %v", err)
		} else {
			result.Usage.CompletionTokens = int(count.TotalTokens)
			result.Usage.TotalTokens = result.Usage.PromptTokens + result.Usage.CompletionTokens
		}
	}
	return result, nil
}
