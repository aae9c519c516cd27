package llms

import "context"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block types.
const (
	ContentText       = "text"
	ContentToolUse    = "tool_use"
	ContentToolResult = "tool_result"
)

// Stop reasons reported by the model.
const (
	StopReasonToolUse = "tool_use"
	StopReasonEndTurn = "end_turn"
)

// ContentBlock represents one block of message content. The same shape
// carries text, tool_use and tool_result blocks; the Type field decides
// which of the remaining fields are meaningful.
type ContentBlock struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text,omitempty"`        // text
	ID        string                 `json:"id,omitempty"`          // tool_use
	Name      string                 `json:"name,omitempty"`        // tool_use
	Input     map[string]interface{} `json:"input,omitempty"`       // tool_use
	ToolUseID string                 `json:"tool_use_id,omitempty"` // tool_result
	Content   string                 `json:"content,omitempty"`     // tool_result
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

// ToolResultBlock builds a tool_result content block.
func ToolResultBlock(toolUseID, content string) ContentBlock {
	return ContentBlock{Type: ContentToolResult, ToolUseID: toolUseID, Content: content}
}

// Message is one turn of conversation sent to the model.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserMessage builds a user message with a single text block.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// Response is the model's reply to a generation request.
type Response struct {
	Content    []ContentBlock
	StopReason string
	Model      string
	Usage      Usage
}

// Usage reports token consumption for a single request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// FirstText returns the text of the first text block in the response,
// or "" when the response contains no text block.
func (r *Response) FirstText() string {
	for _, block := range r.Content {
		if block.Type == ContentText {
			return block.Text
		}
	}
	return ""
}

// ToolUses returns the tool_use blocks of the response in content order.
func (r *Response) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, block := range r.Content {
		if block.Type == ContentToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}

// ToolDefinition describes a tool in provider-neutral form.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// GenerateRequest carries everything a single generation call needs.
// Tools may be nil; providers must then omit tool metadata entirely.
type GenerateRequest struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Provider is a generation backend.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (*Response, error)
	GetModelName() string
	Close() error
}
