// In file: internal/llm/client.go
package llm

import (
	"context"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// Role is the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single turn of a conversation. Tool messages carry the ID and
// the name of the call they answer.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig controls a single generation.
type GenerationConfig struct {
	// Model is the provider-native model name (no "provider/" prefix).
	Model string
	// Temperature and TopP are pointers so that 0.0 is distinguishable from unset.
	Temperature *float32
	TopP        *float32
	MaxTokens   int
}

// GenerationResult is the complete output of one model call.
type GenerationResult struct {
	Content string
	// ToolCalls requested by the model; several may arrive in one turn.
	ToolCalls []*tools.ToolCall
	Usage     api.Usage
	// Model is the fully qualified "provider/model" that produced the result.
	// Set by the Router.
	Model string
}

// =================================================================================
// LLM Client Interface
// =================================================================================

// LLMClient is implemented by every provider client.
type LLMClient interface {
	// Generate performs a blocking request with the full conversation and
	// returns the complete result.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
