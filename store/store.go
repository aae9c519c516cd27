// Package store implements course material storage: a SQLite catalog
// holding authoritative course metadata, and two vector collections
// holding course titles (for fuzzy name resolution) and content chunks
// (for semantic search).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mgryszko/starting-ragchatbot-codebase/embedders"
	"github.com/mgryszko/starting-ragchatbot-codebase/vector"
)

const (
	// CatalogCollection holds one document per course (title as content).
	CatalogCollection = "course_catalog"

	// ContentCollection holds course content chunks.
	ContentCollection = "course_content"

	defaultMaxResults = 5
)

// Lesson is one lesson of a course.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course is the full metadata of one course.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// CourseChunk is a piece of course content ready for indexing.
// LessonNumber is nil for content outside any lesson.
type CourseChunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

// SearchResults carries search hits together with their metadata.
// Error holds user-facing failures like an unresolved course name;
// those are data for the model to read, not Go errors.
type SearchResults struct {
	Documents []string
	Metadata  []map[string]any
	Error     string
}

// IsEmpty reports whether the search produced no hits.
func (r *SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// Config configures the vector store.
type Config struct {
	// CatalogPath is the SQLite database file for course metadata.
	// Empty means in-memory.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	// MaxResults is the default number of search hits (default: 5).
	MaxResults int `yaml:"max_results,omitempty"`
}

func (c *Config) SetDefaults() {
	if c.MaxResults == 0 {
		c.MaxResults = defaultMaxResults
	}
}

// VectorStore combines a vector provider, an embedder and the SQLite
// course catalog into the storage interface the tools work against.
type VectorStore struct {
	provider   vector.Provider
	embedder   embedders.Embedder
	catalog    *sql.DB
	maxResults int
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS courses (
	title      TEXT PRIMARY KEY,
	link       TEXT NOT NULL DEFAULT '',
	instructor TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS lessons (
	course_title TEXT NOT NULL REFERENCES courses(title) ON DELETE CASCADE,
	number       INTEGER NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	link         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (course_title, number)
);
`

// New creates a vector store backed by the given provider and embedder.
func New(provider vector.Provider, embedder embedders.Embedder, cfg Config) (*VectorStore, error) {
	cfg.SetDefaults()

	path := cfg.CatalogPath
	if path == "" {
		path = ":memory:"
	}

	catalog, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open course catalog: %w", err)
	}
	if _, err := catalog.Exec(catalogSchema); err != nil {
		catalog.Close()
		return nil, fmt.Errorf("failed to initialize course catalog: %w", err)
	}

	return &VectorStore{
		provider:   provider,
		embedder:   embedder,
		catalog:    catalog,
		maxResults: cfg.MaxResults,
	}, nil
}

// Close closes the course catalog database.
func (s *VectorStore) Close() error {
	return s.catalog.Close()
}

// AddCourseMetadata stores a course in the catalog and indexes its
// title for semantic name resolution.
func (s *VectorStore) AddCourseMetadata(ctx context.Context, course *Course) error {
	if course.Title == "" {
		return fmt.Errorf("course title cannot be empty")
	}

	tx, err := s.catalog.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO courses (title, link, instructor) VALUES (?, ?, ?)`,
		course.Title, course.Link, course.Instructor); err != nil {
		return fmt.Errorf("failed to store course %q: %w", course.Title, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_title = ?`, course.Title); err != nil {
		return fmt.Errorf("failed to clear lessons for %q: %w", course.Title, err)
	}
	for _, lesson := range course.Lessons {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lessons (course_title, number, title, link) VALUES (?, ?, ?, ?)`,
			course.Title, lesson.Number, lesson.Title, lesson.Link); err != nil {
			return fmt.Errorf("failed to store lesson %d of %q: %w", lesson.Number, course.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit course %q: %w", course.Title, err)
	}

	vec, err := s.embedder.EmbedWithContext(ctx, course.Title)
	if err != nil {
		return fmt.Errorf("failed to embed course title %q: %w", course.Title, err)
	}

	metadata := map[string]any{
		"content":     course.Title,
		"title":       course.Title,
		"course_link": course.Link,
		"instructor":  course.Instructor,
	}
	if err := s.provider.Upsert(ctx, CatalogCollection, course.Title, vec, metadata); err != nil {
		return fmt.Errorf("failed to index course title %q: %w", course.Title, err)
	}

	return nil
}

// AddCourseContent embeds and indexes content chunks.
func (s *VectorStore) AddCourseContent(ctx context.Context, chunks []CourseChunk) error {
	for _, chunk := range chunks {
		vec, err := s.embedder.EmbedWithContext(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d of %q: %w", chunk.ChunkIndex, chunk.CourseTitle, err)
		}

		metadata := map[string]any{
			"content":      chunk.Content,
			"course_title": chunk.CourseTitle,
			"chunk_index":  chunk.ChunkIndex,
		}
		if chunk.LessonNumber != nil {
			metadata["lesson_number"] = *chunk.LessonNumber
		}

		id := fmt.Sprintf("%s_%d", chunk.CourseTitle, chunk.ChunkIndex)
		if err := s.provider.Upsert(ctx, ContentCollection, id, vec, metadata); err != nil {
			return fmt.Errorf("failed to index chunk %d of %q: %w", chunk.ChunkIndex, chunk.CourseTitle, err)
		}
	}
	return nil
}

// Search runs a semantic query over course content, optionally scoped
// to one course and one lesson. An unresolvable course name comes back
// in SearchResults.Error; infrastructure failures are Go errors.
func (s *VectorStore) Search(ctx context.Context, query, courseName string, lessonNumber *int, limit int) (*SearchResults, error) {
	filter := make(map[string]any)

	if courseName != "" {
		resolved, found, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			return nil, err
		}
		if !found {
			return &SearchResults{Error: fmt.Sprintf("No course found matching '%s'", courseName)}, nil
		}
		filter["course_title"] = resolved
	}
	if lessonNumber != nil {
		filter["lesson_number"] = *lessonNumber
	}

	if limit <= 0 {
		limit = s.maxResults
	}

	vec, err := s.embedder.EmbedWithContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var results []vector.Result
	if len(filter) > 0 {
		results, err = s.provider.SearchWithFilter(ctx, ContentCollection, vec, limit, filter)
	} else {
		results, err = s.provider.Search(ctx, ContentCollection, vec, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := &SearchResults{}
	for _, r := range results {
		out.Documents = append(out.Documents, r.Content)
		out.Metadata = append(out.Metadata, normalizeMetadata(r.Metadata))
	}
	return out, nil
}

// normalizeMetadata repairs values that backends return as strings,
// notably lesson_number and chunk_index from chromem.
func normalizeMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	for _, key := range []string{"lesson_number", "chunk_index"} {
		switch v := out[key].(type) {
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				out[key] = n
			}
		case int64:
			out[key] = int(v)
		case float64:
			out[key] = int(v)
		}
	}
	return out
}

// ResolveCourseName maps a possibly partial course name to the exact
// catalog title. Exact and substring matches win; otherwise the name is
// resolved semantically against the indexed titles.
func (s *VectorStore) ResolveCourseName(ctx context.Context, name string) (string, bool, error) {
	titles, err := s.ExistingCourseTitles(ctx)
	if err != nil {
		return "", false, err
	}

	lower := strings.ToLower(name)
	for _, title := range titles {
		if strings.EqualFold(title, name) {
			return title, true, nil
		}
	}
	for _, title := range titles {
		if strings.Contains(strings.ToLower(title), lower) {
			return title, true, nil
		}
	}

	if len(titles) == 0 {
		return "", false, nil
	}

	vec, err := s.embedder.EmbedWithContext(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("failed to embed course name: %w", err)
	}

	results, err := s.provider.Search(ctx, CatalogCollection, vec, 1)
	if err != nil {
		slog.Warn("Semantic course name resolution failed", "name", name, "error", err)
		return "", false, nil
	}
	if len(results) == 0 {
		return "", false, nil
	}

	if title, ok := results[0].Metadata["title"].(string); ok && title != "" {
		return title, true, nil
	}
	return results[0].ID, true, nil
}

// GetCourseOutline returns the full outline of a course by (possibly
// partial) name. The boolean is false when no course matches.
func (s *VectorStore) GetCourseOutline(ctx context.Context, name string) (*Course, bool, error) {
	title, found, err := s.ResolveCourseName(ctx, name)
	if err != nil || !found {
		return nil, false, err
	}

	course := &Course{Title: title}
	err = s.catalog.QueryRowContext(ctx,
		`SELECT link, instructor FROM courses WHERE title = ?`, title).
		Scan(&course.Link, &course.Instructor)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read course %q: %w", title, err)
	}

	rows, err := s.catalog.QueryContext(ctx,
		`SELECT number, title, link FROM lessons WHERE course_title = ? ORDER BY number`, title)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read lessons of %q: %w", title, err)
	}
	defer rows.Close()

	for rows.Next() {
		var lesson Lesson
		if err := rows.Scan(&lesson.Number, &lesson.Title, &lesson.Link); err != nil {
			return nil, false, fmt.Errorf("failed to scan lesson of %q: %w", title, err)
		}
		course.Lessons = append(course.Lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate lessons of %q: %w", title, err)
	}

	return course, true, nil
}

// GetLessonLink returns the link of one lesson, or "" when the lesson
// has none or does not exist.
func (s *VectorStore) GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	var link string
	err := s.catalog.QueryRowContext(ctx,
		`SELECT link FROM lessons WHERE course_title = ? AND number = ?`,
		courseTitle, lessonNumber).Scan(&link)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read lesson link: %w", err)
	}
	return link, nil
}

// GetCourseLink returns the link of a course, or "" when unknown.
func (s *VectorStore) GetCourseLink(ctx context.Context, title string) (string, error) {
	var link string
	err := s.catalog.QueryRowContext(ctx,
		`SELECT link FROM courses WHERE title = ?`, title).Scan(&link)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read course link: %w", err)
	}
	return link, nil
}

// CourseCount returns the number of indexed courses.
func (s *VectorStore) CourseCount(ctx context.Context) (int, error) {
	var count int
	if err := s.catalog.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// ExistingCourseTitles returns all indexed course titles.
func (s *VectorStore) ExistingCourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.catalog.QueryContext(ctx, `SELECT title FROM courses ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan course title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// ClearAll removes all indexed courses, lessons and content.
func (s *VectorStore) ClearAll(ctx context.Context) error {
	if _, err := s.catalog.ExecContext(ctx, `DELETE FROM lessons`); err != nil {
		return fmt.Errorf("failed to clear lessons: %w", err)
	}
	if _, err := s.catalog.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return fmt.Errorf("failed to clear courses: %w", err)
	}

	for _, collection := range []string{CatalogCollection, ContentCollection} {
		if err := s.provider.DeleteCollection(ctx, collection); err != nil {
			slog.Warn("Failed to delete collection", "collection", collection, "error", err)
		}
	}
	return nil
}
