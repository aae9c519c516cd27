package tools

import (
	"context"
	"fmt"

	"github.com/mgryszko/starting-ragchatbot-codebase/llms"
	"github.com/mgryszko/starting-ragchatbot-codebase/registry"
)

// ToolRegistryError represents an error in tool registry operations.
type ToolRegistryError struct {
	Action  string
	Message string
	Err     error
}

func (e *ToolRegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool registry %s: %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("tool registry %s: %s", e.Action, e.Message)
}

func (e *ToolRegistryError) Unwrap() error { return e.Err }

// ToolRegistry holds the closed set of tools available to the model.
// Definitions lists tools in registration order, which is the order the
// model sees them in.
type ToolRegistry struct {
	tools *registry.BaseRegistry[Tool]
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: registry.NewBaseRegistry[Tool](),
	}
}

// RegisterTool adds a tool under its own name.
func (r *ToolRegistry) RegisterTool(tool Tool) error {
	if tool == nil {
		return &ToolRegistryError{Action: "register", Message: "tool cannot be nil"}
	}
	if err := r.tools.Register(tool.GetName(), tool); err != nil {
		return &ToolRegistryError{Action: "register", Message: tool.GetName(), Err: err}
	}
	return nil
}

// GetTool retrieves a tool by name.
func (r *ToolRegistry) GetTool(name string) (Tool, bool) {
	return r.tools.Get(name)
}

// ListTools returns all registered tools in registration order.
func (r *ToolRegistry) ListTools() []Tool {
	return r.tools.List()
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	return r.tools.Count()
}

// Definitions returns provider-neutral definitions for all tools.
func (r *ToolRegistry) Definitions() []llms.ToolDefinition {
	list := r.tools.List()
	defs := make([]llms.ToolDefinition, 0, len(list))
	for _, tool := range list {
		defs = append(defs, tool.GetInfo().Definition())
	}
	return defs
}

// Execute dispatches a tool call by name. An unknown tool name is not a
// Go error: the model receives the failure as the result string and may
// recover on its next turn. A registered tool failing is a real error
// and propagates to the caller.
func (r *ToolRegistry) Execute(ctx context.Context, name string, args map[string]interface{}) (ToolResult, error) {
	tool, ok := r.tools.Get(name)
	if !ok {
		return ToolResult{Content: fmt.Sprintf("Tool '%s' not found", name)}, nil
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return ToolResult{}, fmt.Errorf("tool '%s' execution failed: %w", name, err)
	}
	return result, nil
}
