package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mgryszko/starting-ragchatbot-codebase/store"
)

type fakeOutlineStore struct {
	course *store.Course
}

func (f *fakeOutlineStore) GetCourseOutline(_ context.Context, name string) (*store.Course, bool, error) {
	if f.course == nil {
		return nil, false, nil
	}
	return f.course, true, nil
}

func TestCourseOutlineTool_Execute(t *testing.T) {
	fake := &fakeOutlineStore{
		course: &store.Course{
			Title:      "Building RAG Systems",
			Link:       "https://example.com/rag",
			Instructor: "Jane Smith",
			Lessons: []store.Lesson{
				{Number: 0, Title: "Introduction"},
				{Number: 1, Title: "Chunking"},
			},
		},
	}
	tool := NewCourseOutlineTool(fake)

	result, err := tool.Execute(context.Background(), map[string]interface{}{"course_name": "RAG"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{
		"Course: Building RAG Systems",
		"Course Link: https://example.com/rag",
		"Instructor: Jane Smith",
		"Lessons (2):",
		"Lesson 0: Introduction",
		"Lesson 1: Chunking",
	} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("Execute() content missing %q\ncontent:\n%s", want, result.Content)
		}
	}

	if len(result.Sources) != 1 {
		t.Fatalf("sources length = %d, want 1", len(result.Sources))
	}
	if result.Sources[0].Text != "Building RAG Systems" || result.Sources[0].Link != "https://example.com/rag" {
		t.Errorf("Sources[0] = %+v", result.Sources[0])
	}
}

func TestCourseOutlineTool_CourseNotFound(t *testing.T) {
	tool := NewCourseOutlineTool(&fakeOutlineStore{})

	result, err := tool.Execute(context.Background(), map[string]interface{}{"course_name": "Nonexistent"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Content != "No course found matching 'Nonexistent'" {
		t.Errorf("Execute() content = %q", result.Content)
	}
}

func TestCourseOutlineTool_MissingCourseName(t *testing.T) {
	tool := NewCourseOutlineTool(&fakeOutlineStore{})

	if _, err := tool.Execute(context.Background(), map[string]interface{}{}); err == nil {
		t.Fatal("Execute() error = nil, want error for missing course_name")
	}
}
