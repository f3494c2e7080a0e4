// In file: internal/tools/executor.go
package tools

import "context"

// ToolExecutor is implemented by every tool the agents and the MCP server can call.
type ToolExecutor interface {
	// Definition returns the schema shown to the model.
	Definition() Tool

	// Execute runs the tool with the model-generated JSON arguments. The returned
	// string goes back to the model verbatim. An error means the call itself was
	// unusable (bad arguments); domain failures are reported inside the string.
	Execute(ctx context.Context, arguments string) (string, error)
}
