package store

import (
	"context"
	"testing"

	"github.com/mgryszko/starting-ragchatbot-codebase/vector"
)

// fakeEmbedder returns canned vectors per text, so similarity in tests
// is fully deterministic.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(text string) ([]float32, error) {
	return f.EmbedWithContext(context.Background(), text)
}

func (f *fakeEmbedder) EmbedWithContext(_ context.Context, text string) ([]float32, error) {
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0.577, 0.577, 0.577}, nil
}

func (f *fakeEmbedder) GetDimension() int    { return 3 }
func (f *fakeEmbedder) GetModelName() string { return "fake" }
func (f *fakeEmbedder) Close() error         { return nil }

func intPtr(n int) *int { return &n }

func newTestStore(t *testing.T, vectors map[string][]float32) *VectorStore {
	t.Helper()

	provider, err := vector.NewChromemProvider(vector.ChromemConfig{})
	if err != nil {
		t.Fatalf("NewChromemProvider() error = %v", err)
	}

	s, err := New(provider, &fakeEmbedder{vectors: vectors}, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCourse() *Course {
	return &Course{
		Title:      "Building RAG Systems",
		Link:       "https://example.com/rag",
		Instructor: "Jane Smith",
		Lessons: []Lesson{
			{Number: 0, Title: "Introduction", Link: "https://example.com/rag/lesson0"},
			{Number: 1, Title: "Chunking", Link: "https://example.com/rag/lesson1"},
			{Number: 2, Title: "Retrieval"},
		},
	}
}

func TestVectorStore_AddAndOutline(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if err := s.AddCourseMetadata(ctx, testCourse()); err != nil {
		t.Fatalf("AddCourseMetadata() error = %v", err)
	}

	course, found, err := s.GetCourseOutline(ctx, "Building RAG Systems")
	if err != nil {
		t.Fatalf("GetCourseOutline() error = %v", err)
	}
	if !found {
		t.Fatal("GetCourseOutline() found = false, want true")
	}
	if course.Instructor != "Jane Smith" {
		t.Errorf("Instructor = %q, want %q", course.Instructor, "Jane Smith")
	}
	if course.Link != "https://example.com/rag" {
		t.Errorf("Link = %q, want %q", course.Link, "https://example.com/rag")
	}
	if len(course.Lessons) != 3 {
		t.Fatalf("Lessons length = %d, want 3", len(course.Lessons))
	}
	if course.Lessons[0].Number != 0 || course.Lessons[0].Title != "Introduction" {
		t.Errorf("Lessons[0] = %+v, want lesson 0 Introduction", course.Lessons[0])
	}
}

func TestVectorStore_ResolveCourseName(t *testing.T) {
	s := newTestStore(t, map[string][]float32{
		"Building RAG Systems": {1, 0, 0},
		"Advanced Retrieval":   {0, 1, 0},
		"retrieval deep dive":  {0, 0.9, 0.1},
	})
	ctx := context.Background()

	for _, title := range []string{"Building RAG Systems", "Advanced Retrieval"} {
		if err := s.AddCourseMetadata(ctx, &Course{Title: title}); err != nil {
			t.Fatalf("AddCourseMetadata(%s) error = %v", title, err)
		}
	}

	tests := []struct {
		name      string
		query     string
		want      string
		wantFound bool
	}{
		{"exact match", "Building RAG Systems", "Building RAG Systems", true},
		{"case-insensitive match", "building rag systems", "Building RAG Systems", true},
		{"partial match", "RAG", "Building RAG Systems", true},
		{"semantic match", "retrieval deep dive", "Advanced Retrieval", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := s.ResolveCourseName(ctx, tt.query)
			if err != nil {
				t.Fatalf("ResolveCourseName() error = %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("ResolveCourseName() found = %v, want %v", found, tt.wantFound)
			}
			if got != tt.want {
				t.Errorf("ResolveCourseName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVectorStore_ResolveCourseName_EmptyCatalog(t *testing.T) {
	s := newTestStore(t, nil)

	_, found, err := s.ResolveCourseName(context.Background(), "anything")
	if err != nil {
		t.Fatalf("ResolveCourseName() error = %v", err)
	}
	if found {
		t.Error("ResolveCourseName() found = true on empty catalog, want false")
	}
}

func TestVectorStore_Search(t *testing.T) {
	s := newTestStore(t, map[string][]float32{
		"chunking strategies": {1, 0, 0},
		"vector databases":    {0, 1, 0},
		"what about chunking": {0.95, 0.05, 0},
	})
	ctx := context.Background()

	if err := s.AddCourseMetadata(ctx, &Course{Title: "Building RAG Systems"}); err != nil {
		t.Fatalf("AddCourseMetadata() error = %v", err)
	}
	chunks := []CourseChunk{
		{Content: "chunking strategies", CourseTitle: "Building RAG Systems", LessonNumber: intPtr(1), ChunkIndex: 0},
		{Content: "vector databases", CourseTitle: "Building RAG Systems", LessonNumber: intPtr(2), ChunkIndex: 1},
	}
	if err := s.AddCourseContent(ctx, chunks); err != nil {
		t.Fatalf("AddCourseContent() error = %v", err)
	}

	results, err := s.Search(ctx, "what about chunking", "", nil, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results.Error != "" {
		t.Fatalf("Search() Error = %q, want empty", results.Error)
	}
	if len(results.Documents) != 1 || results.Documents[0] != "chunking strategies" {
		t.Fatalf("Search() documents = %v, want [chunking strategies]", results.Documents)
	}
	if results.Metadata[0]["course_title"] != "Building RAG Systems" {
		t.Errorf("Search() metadata course_title = %v", results.Metadata[0]["course_title"])
	}
	if results.Metadata[0]["lesson_number"] != 1 {
		t.Errorf("Search() metadata lesson_number = %v (%T), want int 1",
			results.Metadata[0]["lesson_number"], results.Metadata[0]["lesson_number"])
	}
}

func TestVectorStore_SearchWithLessonFilter(t *testing.T) {
	s := newTestStore(t, map[string][]float32{
		"chunking strategies": {1, 0, 0},
		"vector databases":    {0.1, 0.99, 0},
	})
	ctx := context.Background()

	if err := s.AddCourseMetadata(ctx, &Course{Title: "Building RAG Systems"}); err != nil {
		t.Fatalf("AddCourseMetadata() error = %v", err)
	}
	chunks := []CourseChunk{
		{Content: "chunking strategies", CourseTitle: "Building RAG Systems", LessonNumber: intPtr(1), ChunkIndex: 0},
		{Content: "vector databases", CourseTitle: "Building RAG Systems", LessonNumber: intPtr(2), ChunkIndex: 1},
	}
	if err := s.AddCourseContent(ctx, chunks); err != nil {
		t.Fatalf("AddCourseContent() error = %v", err)
	}

	results, err := s.Search(ctx, "chunking strategies", "RAG", intPtr(2), 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results.Documents) != 1 || results.Documents[0] != "vector databases" {
		t.Fatalf("Search() documents = %v, want only the lesson 2 chunk", results.Documents)
	}
}

func TestVectorStore_SearchUnknownCourse(t *testing.T) {
	s := newTestStore(t, nil)

	results, err := s.Search(context.Background(), "anything", "Nonexistent Course", nil, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := "No course found matching 'Nonexistent Course'"
	if results.Error != want {
		t.Errorf("Search() Error = %q, want %q", results.Error, want)
	}
	if !results.IsEmpty() {
		t.Errorf("Search() documents = %v, want none", results.Documents)
	}
}

func TestVectorStore_LessonLinkAndAnalytics(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if err := s.AddCourseMetadata(ctx, testCourse()); err != nil {
		t.Fatalf("AddCourseMetadata() error = %v", err)
	}

	link, err := s.GetLessonLink(ctx, "Building RAG Systems", 1)
	if err != nil {
		t.Fatalf("GetLessonLink() error = %v", err)
	}
	if link != "https://example.com/rag/lesson1" {
		t.Errorf("GetLessonLink() = %q, want lesson 1 link", link)
	}

	link, err = s.GetLessonLink(ctx, "Building RAG Systems", 2)
	if err != nil {
		t.Fatalf("GetLessonLink() error = %v", err)
	}
	if link != "" {
		t.Errorf("GetLessonLink() for linkless lesson = %q, want empty", link)
	}

	count, err := s.CourseCount(ctx)
	if err != nil {
		t.Fatalf("CourseCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CourseCount() = %d, want 1", count)
	}

	titles, err := s.ExistingCourseTitles(ctx)
	if err != nil {
		t.Fatalf("ExistingCourseTitles() error = %v", err)
	}
	if len(titles) != 1 || titles[0] != "Building RAG Systems" {
		t.Errorf("ExistingCourseTitles() = %v", titles)
	}
}

func TestVectorStore_ClearAll(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	if err := s.AddCourseMetadata(ctx, testCourse()); err != nil {
		t.Fatalf("AddCourseMetadata() error = %v", err)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	count, err := s.CourseCount(ctx)
	if err != nil {
		t.Fatalf("CourseCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CourseCount() after clear = %d, want 0", count)
	}
}
