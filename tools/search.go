package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgryszko/starting-ragchatbot-codebase/store"
)

// SearchStore is the slice of the vector store the search tool needs.
type SearchStore interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int, limit int) (*store.SearchResults, error)
	GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)
}

// CourseSearchTool searches course content semantically, with optional
// course and lesson scoping.
type CourseSearchTool struct {
	store SearchStore
}

func NewCourseSearchTool(store SearchStore) *CourseSearchTool {
	return &CourseSearchTool{store: store}
}

func (t *CourseSearchTool) GetName() string {
	return "search_course_content"
}

func (t *CourseSearchTool) GetDescription() string {
	return "Search course materials with smart course name matching and lesson filtering"
}

func (t *CourseSearchTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: []ToolParameter{
			{
				Name:        "query",
				Type:        "string",
				Description: "What to search for in course content",
				Required:    true,
			},
			{
				Name:        "course_name",
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
			},
			{
				Name:        "lesson_number",
				Type:        "integer",
				Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
			},
		},
	}
}

// Execute runs the search. An unresolvable course name comes back as
// result content so the model can react to it; infrastructure failures
// are returned as errors.
func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return ToolResult{}, fmt.Errorf("query parameter is required")
	}

	courseName, _ := args["course_name"].(string)
	lessonNumber := intArg(args, "lesson_number")

	results, err := t.store.Search(ctx, query, courseName, lessonNumber, 0)
	if err != nil {
		return ToolResult{}, err
	}

	if results.Error != "" {
		return ToolResult{Content: results.Error}, nil
	}

	if results.IsEmpty() {
		var filterInfo strings.Builder
		if courseName != "" {
			fmt.Fprintf(&filterInfo, " in course '%s'", courseName)
		}
		if lessonNumber != nil {
			fmt.Fprintf(&filterInfo, " in lesson %d", *lessonNumber)
		}
		return ToolResult{Content: fmt.Sprintf("No relevant content found%s.", filterInfo.String())}, nil
	}

	return t.formatResults(ctx, results), nil
}

// formatResults renders hits as "[course - Lesson N]" headed blocks and
// collects one source per hit.
func (t *CourseSearchTool) formatResults(ctx context.Context, results *store.SearchResults) ToolResult {
	var formatted []string
	var sources []Source

	for i, doc := range results.Documents {
		meta := results.Metadata[i]
		courseTitle, _ := meta["course_title"].(string)
		if courseTitle == "" {
			courseTitle = "unknown"
		}

		header := fmt.Sprintf("[%s", courseTitle)
		sourceText := courseTitle
		var link string

		if lessonNum, ok := meta["lesson_number"].(int); ok {
			header += fmt.Sprintf(" - Lesson %d", lessonNum)
			sourceText += fmt.Sprintf(" - Lesson %d", lessonNum)

			lessonLink, err := t.store.GetLessonLink(ctx, courseTitle, lessonNum)
			if err == nil {
				link = lessonLink
			}
		}
		header += "]"

		formatted = append(formatted, header+"\n"+doc)
		sources = append(sources, Source{Text: sourceText, Link: link})
	}

	return ToolResult{
		Content: strings.Join(formatted, "\n\n"),
		Sources: sources,
	}
}

// intArg reads an integer argument that may arrive as JSON float64.
func intArg(args map[string]interface{}, name string) *int {
	switch v := args[name].(type) {
	case int:
		return &v
	case float64:
		n := int(v)
		return &n
	default:
		return nil
	}
}

var _ Tool = (*CourseSearchTool)(nil)
