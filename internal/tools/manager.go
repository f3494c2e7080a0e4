// In file: internal/tools/manager.go
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrToolNotFound is returned when a call names a tool that is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ToolManager holds a registry of tools keyed by function name.
// Register everything at startup; lookups afterwards are read-only and safe
// for concurrent use.
type ToolManager struct {
	tools map[string]ToolExecutor
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a tool, replacing any earlier tool of the same name.
func (tm *ToolManager) Register(tool ToolExecutor) {
	name := tool.Definition().Function.Name
	tm.tools[name] = tool
}

// Has reports whether a tool is registered under name.
func (tm *ToolManager) Has(name string) bool {
	_, ok := tm.tools[name]
	return ok
}

// Names returns the registered tool names in sorted order.
func (tm *ToolManager) Names() []string {
	names := make([]string, 0, len(tm.tools))
	for name := range tm.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns every tool definition, sorted by name so that prompts
// built from them are stable.
func (tm *ToolManager) Definitions() []Tool {
	names := tm.Names()
	defs := make([]Tool, 0, len(names))
	for _, name := range names {
		defs = append(defs, tm.tools[name].Definition())
	}
	return defs
}

// Subset returns a manager limited to the named tools. Unknown names are an error.
func (tm *ToolManager) Subset(names []string) (*ToolManager, error) {
	sub := NewToolManager()
	for _, name := range names {
		tool, ok := tm.tools[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
		}
		sub.tools[name] = tool
	}
	return sub, nil
}

// Execute runs a tool by name with the given arguments.
func (tm *ToolManager) Execute(ctx context.Context, name, arguments string) (string, error) {
	tool, ok := tm.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool.Execute(ctx, arguments)
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.tools)
}
