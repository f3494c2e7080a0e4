// In file: internal/agent/agent.go

// Package agent runs a model-driven tool loop: the model is asked for an answer,
// any tool calls it makes are executed and fed back, until it answers in text.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dileep-u-k/weather-agent/internal/api"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/tools"
)

// DefaultMaxToolCalls bounds the number of model turns that may request tools.
const DefaultMaxToolCalls = 5

var (
	// ErrTooManyToolCalls is returned when the model keeps calling tools past the bound.
	ErrTooManyToolCalls = errors.New("exceeded maximum number of tool calls")
	// ErrEmptyPrompt is returned for a blank prompt.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
)

// Config describes one agent.
type Config struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Instruction  string   `yaml:"instruction"`
	Model        string   `yaml:"model"`
	Fallbacks    []string `yaml:"fallbacks"`
	Tools        []string `yaml:"tools"`
	MaxToolCalls int      `yaml:"max_tool_calls"`
	MaxTokens    int      `yaml:"max_tokens"`
	Temperature  *float32 `yaml:"temperature"`
}

// Generator produces one model turn for a route. *llm.Router implements it.
type Generator interface {
	Generate(ctx context.Context, route llm.Route, messages []llm.Message, config llm.GenerationConfig, availableTools []tools.Tool) (*llm.GenerationResult, error)
}

var _ Generator = (*llm.Router)(nil)

// Agent binds a Config to a generator and the subset of tools it may call.
type Agent struct {
	cfg   Config
	gen   Generator
	tools *tools.ToolManager
}

// New validates the config against the available tools.
func New(cfg Config, gen Generator, available *tools.ToolManager) (*Agent, error) {
	if cfg.Name == "" {
		return nil, errors.New("agent name is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("agent %s: model is required", cfg.Name)
	}
	if _, err := llm.ParseModel(cfg.Model); err != nil {
		return nil, fmt.Errorf("agent %s: %w", cfg.Name, err)
	}
	for _, fb := range cfg.Fallbacks {
		if _, err := llm.ParseModel(fb); err != nil {
			return nil, fmt.Errorf("agent %s fallback: %w", cfg.Name, err)
		}
	}
	if cfg.MaxToolCalls <= 0 {
		cfg.MaxToolCalls = DefaultMaxToolCalls
	}

	subset, err := available.Subset(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", cfg.Name, err)
	}
	return &Agent{cfg: cfg, gen: gen, tools: subset}, nil
}

// Config returns the effective configuration.
func (a *Agent) Config() Config { return a.cfg }

// ToolNames lists the tools the agent may call.
func (a *Agent) ToolNames() []string { return a.tools.Names() }

// Result is the outcome of one Run.
type Result struct {
	Content   string
	ModelUsed string
	Usage     api.Usage
	ToolCalls []api.ToolCallTrace
}

// Run answers prompt given the prior history.
func (a *Agent) Run(ctx context.Context, history []llm.Message, prompt string) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	messages := make([]llm.Message, 0, len(history)+2)
	if a.cfg.Instruction != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.cfg.Instruction})
	}
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	route := llm.Route{Primary: a.cfg.Model, Fallbacks: a.cfg.Fallbacks}
	genCfg := llm.GenerationConfig{MaxTokens: a.cfg.MaxTokens, Temperature: a.cfg.Temperature}
	defs := a.tools.Definitions()

	res := &Result{ToolCalls: []api.ToolCallTrace{}}
	for i := 0; i <= a.cfg.MaxToolCalls; i++ {
		out, err := a.gen.Generate(ctx, route, messages, genCfg, defs)
		if err != nil {
			return nil, fmt.Errorf("agent %s: generation failed: %w", a.cfg.Name, err)
		}
		res.Usage.Add(out.Usage)
		res.ModelUsed = out.Model

		if len(out.ToolCalls) == 0 {
			res.Content = out.Content
			return res, nil
		}
		if i == a.cfg.MaxToolCalls {
			break
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: out.Content, ToolCalls: out.ToolCalls})
		for _, call := range out.ToolCalls {
			trace := a.execute(ctx, call)
			res.ToolCalls = append(res.ToolCalls, trace)
			content := trace.Result
			if trace.Error != "" {
				content = "Error executing tool " + call.Function.Name + ": " + trace.Error
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    content,
			})
		}
	}
	return nil, fmt.Errorf("agent %s: %w (%d)", a.cfg.Name, ErrTooManyToolCalls, a.cfg.MaxToolCalls)
}

func (a *Agent) execute(ctx context.Context, call *tools.ToolCall) api.ToolCallTrace {
	log.Printf("🛠️ [%s] Executing tool: %s (ID: %s) with args: %s", a.cfg.Name, call.Function.Name, call.ID, call.Function.Arguments)
	trace := api.ToolCallTrace{ID: call.ID, Name: call.Function.Name, Arguments: call.Function.Arguments}
	out, err := a.tools.Execute(ctx, call.Function.Name, call.Function.Arguments)
	if err != nil {
		trace.Error = err.Error()
		return trace
	}
	trace.Result = out
	return trace
}
