// In file: internal/api/types.go

// Package api holds the public request/response types of the gateway's HTTP API.
package api

// Usage counts tokens for one generation or, after Add, for a whole run.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Message is one prior turn of a conversation supplied by the caller.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// RunRequest asks an agent to answer a prompt.
type RunRequest struct {
	Prompt  string    `json:"prompt" binding:"required"`
	History []Message `json:"history,omitempty" binding:"dive"`
}

// ToolCallTrace records one tool execution made while answering.
type ToolCallTrace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
	Error     string `json:"error,omitempty"`
}

// RunResponse is the answer of an agent run.
type RunResponse struct {
	RequestID string          `json:"request_id"`
	Agent     string          `json:"agent"`
	Content   string          `json:"content"`
	ModelUsed string          `json:"model_used"`
	Usage     Usage           `json:"usage"`
	LatencyMS int64           `json:"latency_ms"`
	ToolCalls []ToolCallTrace `json:"tool_calls"`
}

// AgentInfo describes a configured agent.
type AgentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Model       string   `json:"model"`
	Fallbacks   []string `json:"fallbacks,omitempty"`
	Tools       []string `json:"tools"`
}

// ToolResponse is the output of a direct tool invocation.
type ToolResponse struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
