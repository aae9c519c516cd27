package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgryszko/starting-ragchatbot-codebase/store"
)

// OutlineStore is the slice of the vector store the outline tool needs.
type OutlineStore interface {
	GetCourseOutline(ctx context.Context, name string) (*store.Course, bool, error)
}

// CourseOutlineTool returns the full outline of a course: title, link,
// instructor and the numbered lesson list.
type CourseOutlineTool struct {
	store OutlineStore
}

func NewCourseOutlineTool(store OutlineStore) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

func (t *CourseOutlineTool) GetName() string {
	return "get_course_outline"
}

func (t *CourseOutlineTool) GetDescription() string {
	return "Get the complete outline of a course including title, link, and all lessons"
}

func (t *CourseOutlineTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: []ToolParameter{
			{
				Name:        "course_name",
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				Required:    true,
			},
		},
	}
}

// Execute renders the outline. A course name that matches nothing is
// reported in the result content, not as an error.
func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	courseName, ok := args["course_name"].(string)
	if !ok || courseName == "" {
		return ToolResult{}, fmt.Errorf("course_name parameter is required")
	}

	course, found, err := t.store.GetCourseOutline(ctx, courseName)
	if err != nil {
		return ToolResult{}, err
	}
	if !found {
		return ToolResult{Content: fmt.Sprintf("No course found matching '%s'", courseName)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}

	fmt.Fprintf(&b, "\nLessons (%d):\n", len(course.Lessons))
	for _, lesson := range course.Lessons {
		fmt.Fprintf(&b, "Lesson %d: %s\n", lesson.Number, lesson.Title)
	}

	return ToolResult{
		Content: strings.TrimRight(b.String(), "\n"),
		Sources: []Source{{Text: course.Title, Link: course.Link}},
	}, nil
}

var _ Tool = (*CourseOutlineTool)(nil)
