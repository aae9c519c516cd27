// Package reasoning drives the bounded tool-calling conversation
// between the model and the tool registry. Each run is a fresh, bounded
// loop: the model may request tools for a fixed number of rounds, after
// which it gets one final call without tools and must answer.
package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mgryszko/starting-ragchatbot-codebase/llms"
	"github.com/mgryszko/starting-ragchatbot-codebase/tools"
)

// MaxToolRounds is the number of tool-use rounds allowed per run.
const MaxToolRounds = 2

// SystemPrompt instructs the model how and when to use the course tools.
const SystemPrompt = `You are an AI assistant specialized in course materials and educational content with access to tools for course information.

Tool Usage:
- Use search tool **only** for questions about specific course content or detailed educational materials
- Use outline tool for questions about course structure, lesson list, or course overview
- **You may use tools up to 2 times per conversation** to gather comprehensive information
- Use tools strategically:
  * Round 1: Initial broad search or course outline retrieval
  * Round 2: Refined search with specific filters (course/lesson) if first results suggest more is needed
- Synthesize all tool results into accurate, fact-based responses
- If tools yield no results, state this clearly without offering alternatives

Response Protocol:
- **General knowledge questions**: Answer using existing knowledge without using tools
- **Course outline questions**: Use the outline tool to retrieve course title, link, instructor, and complete lesson list
- **Course content questions**: Use search tool (once or twice as needed), then answer
- **No meta-commentary**:
 - Provide direct answers only, without reasoning process, tool usage explanations, or question-type analysis
 - Do not mention "based on the search results" or "based on the outline"
 - Integrate information from multiple searches seamlessly

For course outline queries:
- Always include the complete course title and course link
- List all lessons with their numbers and titles
- Include instructor name when available

All responses must be:
1. **Brief, Concise and focused** - Get to the point quickly
2. **Educational** - Maintain instructional value
3. **Clear** - Use accessible language
4. **Example-supported** - Include relevant examples when they aid understanding
Provide only the direct answer to what was asked.`

// ToolExecutor dispatches tool calls and describes the available tools.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]interface{}) (tools.ToolResult, error)
	Definitions() []llms.ToolDefinition
}

// runState tracks where a run is in its lifecycle. The transitions are
// Continue -> Continue (tool round with budget left), Continue ->
// FinalNoTools (budget exhausted), Continue -> Done (model stopped
// requesting tools), FinalNoTools -> Done (always).
type runState int

const (
	stateContinue runState = iota
	stateFinalNoTools
	stateDone
)

// Result is the outcome of one orchestrated run. Sources are the
// attributions collected from every tool execution during the run;
// they belong to this run only.
type Result struct {
	Answer  string
	Sources []tools.Source
	Rounds  int
}

// Engine runs the tool-calling loop against a generation provider.
type Engine struct {
	provider  llms.Provider
	maxRounds int
}

// NewEngine creates an engine with the default round budget.
func NewEngine(provider llms.Provider) *Engine {
	return &Engine{
		provider:  provider,
		maxRounds: MaxToolRounds,
	}
}

// Run answers a query, letting the model call tools through the
// executor for up to maxRounds rounds. history is the formatted
// previous conversation, "" for a fresh session. A nil executor runs a
// plain single-shot generation.
//
// Any tool execution failure or provider failure aborts the whole run;
// there is no partial answer.
func (e *Engine) Run(ctx context.Context, query, history string, executor ToolExecutor) (*Result, error) {
	system := SystemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", SystemPrompt, history)
	}

	messages := []llms.Message{llms.UserMessage(query)}

	var definitions []llms.ToolDefinition
	if executor != nil {
		definitions = executor.Definitions()
	}

	result := &Result{}
	round := 0

	response, err := e.generate(ctx, system, messages, definitions)
	if err != nil {
		return nil, err
	}

	state := stateContinue
	for state != stateDone {
		switch state {
		case stateContinue:
			if response.StopReason != llms.StopReasonToolUse || executor == nil {
				state = stateDone
				continue
			}

			// The assistant turn is appended verbatim, including any
			// text blocks preceding the tool calls.
			messages = append(messages, llms.Message{
				Role:    llms.RoleAssistant,
				Content: response.Content,
			})

			toolResults, sources, err := e.executeToolUses(ctx, executor, response.ToolUses())
			if err != nil {
				return nil, err
			}
			result.Sources = append(result.Sources, sources...)

			// All results of a round travel in a single user message.
			// A tool_use stop reason without tool_use blocks still
			// consumes a round.
			if len(toolResults) > 0 {
				messages = append(messages, llms.Message{
					Role:    llms.RoleUser,
					Content: toolResults,
				})
			}
			round++
			result.Rounds = round

			if round < e.maxRounds {
				response, err = e.generate(ctx, system, messages, definitions)
				if err != nil {
					return nil, err
				}
			} else {
				state = stateFinalNoTools
			}

		case stateFinalNoTools:
			// The round budget is spent: one last call without tools,
			// returned unconditionally whatever its stop reason.
			response, err = e.generate(ctx, system, messages, nil)
			if err != nil {
				return nil, err
			}
			state = stateDone
		}
	}

	result.Answer = response.FirstText()
	return result, nil
}

// executeToolUses runs the requested tools sequentially in content
// order and collects their result blocks and sources.
func (e *Engine) executeToolUses(ctx context.Context, executor ToolExecutor, uses []llms.ContentBlock) ([]llms.ContentBlock, []tools.Source, error) {
	var blocks []llms.ContentBlock
	var sources []tools.Source

	for _, use := range uses {
		slog.Debug("Executing tool", "tool", use.Name, "tool_use_id", use.ID)

		toolResult, err := executor.Execute(ctx, use.Name, use.Input)
		if err != nil {
			return nil, nil, fmt.Errorf("tool execution failed: %w", err)
		}

		blocks = append(blocks, llms.ToolResultBlock(use.ID, toolResult.Content))
		sources = append(sources, toolResult.Sources...)
	}

	return blocks, sources, nil
}

func (e *Engine) generate(ctx context.Context, system string, messages []llms.Message, definitions []llms.ToolDefinition) (*llms.Response, error) {
	response, err := e.provider.Generate(ctx, llms.GenerateRequest{
		System:   system,
		Messages: messages,
		Tools:    definitions,
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	slog.Debug("Model response",
		"stop_reason", response.StopReason,
		"tool_uses", len(response.ToolUses()),
		"text_preview", preview(response.FirstText()))
	return response, nil
}

func preview(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > 80 {
		return text[:80] + "..."
	}
	return text
}
