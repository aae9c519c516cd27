package tools

import (
	"context"

	"github.com/mgryszko/starting-ragchatbot-codebase/llms"
)

// ToolInfo represents metadata about a tool.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
}

// ToolParameter represents a tool parameter definition.
type ToolParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
}

// Source identifies a course lesson a tool result was drawn from.
// Link is empty when the lesson has no URL.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// ToolResult is the outcome of a tool execution. Content is the string
// handed back to the model. Sources travel with the result so callers
// can attribute answers without any shared mutable state.
type ToolResult struct {
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// Tool is the common interface for all tools exposed to the model.
type Tool interface {
	// GetInfo returns metadata about the tool
	GetInfo() ToolInfo

	// Execute runs the tool with the given arguments
	Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error)

	// GetName returns the tool name (convenience method)
	GetName() string

	// GetDescription returns the tool description (convenience method)
	GetDescription() string
}

// Definition converts tool metadata to a provider-neutral definition
// with a JSON Schema parameter object.
func (info ToolInfo) Definition() llms.ToolDefinition {
	properties := make(map[string]interface{})
	var required []string

	for _, param := range info.Parameters {
		prop := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if len(param.Enum) > 0 {
			prop["enum"] = param.Enum
		}
		if param.Default != nil {
			prop["default"] = param.Default
		}
		properties[param.Name] = prop

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return llms.ToolDefinition{
		Name:        info.Name,
		Description: info.Description,
		Parameters:  schema,
	}
}
