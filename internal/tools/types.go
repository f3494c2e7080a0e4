// In file: internal/tools/types.go

// Package tools holds the callable tools exposed to the agents, the registry that
// dispatches calls to them, and the provider-agnostic schema types used to
// describe them to a model (OpenAI-style function tools, converted per provider).
package tools

// ToolTypeFunction is the only tool type the agents use.
const ToolTypeFunction = "function"

// Tool is the description of a callable sent *to* the model.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function names a tool and describes its arguments. The model reads the
// description to decide when to call it, so keep it precise.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema the tools need. Type is "object" at
// the top level of a parameter list.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
}

// ToolCall is a request *from* the model to run a tool. ID ties the result
// message back to the call.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its arguments as a raw JSON object string.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewFunctionTool builds a function Tool.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// stringParam is the single-required-string-argument schema shared by the tools.
func stringParam(name, description string) JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			name: {Type: "string", Description: description},
		},
		Required: []string{name},
	}
}
