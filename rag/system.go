// Package rag ties the pieces together: document ingestion into the
// vector store, tool registration, and query answering through the
// reasoning engine with per-session history.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgryszko/starting-ragchatbot-codebase/docproc"
	"github.com/mgryszko/starting-ragchatbot-codebase/llms"
	"github.com/mgryszko/starting-ragchatbot-codebase/observability"
	"github.com/mgryszko/starting-ragchatbot-codebase/reasoning"
	"github.com/mgryszko/starting-ragchatbot-codebase/session"
	"github.com/mgryszko/starting-ragchatbot-codebase/store"
	"github.com/mgryszko/starting-ragchatbot-codebase/tools"
)

// indexConcurrency bounds parallel document ingestion. Embedding is
// the bottleneck, so a small number is enough.
const indexConcurrency = 4

// Analytics summarizes the indexed course catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System is the top-level facade: ingest course documents, answer
// queries with tool-assisted retrieval, track session history.
type System struct {
	store     *store.VectorStore
	engine    *reasoning.Engine
	registry  *tools.ToolRegistry
	sessions  *session.Manager
	processor *docproc.Processor
	tokens    *docproc.TokenCounter
	metrics   observability.Metrics
}

// New wires a System. The search and outline tools are registered
// against the store; metrics may be nil.
func New(provider llms.Provider, vectorStore *store.VectorStore, sessions *session.Manager, chunking docproc.ChunkerConfig, metrics observability.Metrics) (*System, error) {
	registry := tools.NewToolRegistry()
	if err := registry.RegisterTool(tools.NewCourseSearchTool(vectorStore)); err != nil {
		return nil, fmt.Errorf("failed to register search tool: %w", err)
	}
	if err := registry.RegisterTool(tools.NewCourseOutlineTool(vectorStore)); err != nil {
		return nil, fmt.Errorf("failed to register outline tool: %w", err)
	}

	tokens, err := docproc.NewTokenCounter(provider.GetModelName())
	if err != nil {
		slog.Warn("Token counting disabled", "model", provider.GetModelName(), "error", err)
	}

	return &System{
		store:     vectorStore,
		engine:    reasoning.NewEngine(provider),
		registry:  registry,
		sessions:  sessions,
		processor: docproc.NewProcessor(chunking),
		tokens:    tokens,
		metrics:   metrics,
	}, nil
}

// Query answers a question about course materials. sessionID may be
// "" for a one-off query without history.
func (s *System) Query(ctx context.Context, text, sessionID string) (string, []tools.Source, error) {
	start := time.Now()

	history, err := s.sessions.History(sessionID)
	if err != nil {
		return "", nil, err
	}

	prompt := fmt.Sprintf("Answer this question about course materials: %s", text)
	executor := &instrumentedExecutor{registry: s.registry, metrics: s.metrics}

	result, err := s.engine.Run(ctx, prompt, history, executor)
	if s.metrics != nil {
		rounds := 0
		if result != nil {
			rounds = result.Rounds
		}
		s.metrics.RecordQuery(ctx, time.Since(start), rounds, err)
	}
	if err != nil {
		return "", nil, fmt.Errorf("query failed: %w", err)
	}

	if sessionID != "" {
		if err := s.sessions.AddExchange(sessionID, text, result.Answer); err != nil {
			slog.Warn("Failed to record session exchange", "session_id", sessionID, "error", err)
		}
	}

	return result.Answer, result.Sources, nil
}

// CreateSession starts a new conversation session.
func (s *System) CreateSession() string {
	return s.sessions.CreateSession()
}

// ClearSession drops a session's history.
func (s *System) ClearSession(sessionID string) error {
	return s.sessions.ClearSession(sessionID)
}

// AddCourseDocument parses and indexes a single course document. It
// returns the parsed course and the number of chunks indexed.
func (s *System) AddCourseDocument(ctx context.Context, path string) (*store.Course, int, error) {
	course, chunks, err := s.processor.ParseCourseDocument(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to process %s: %w", filepath.Base(path), err)
	}

	if err := s.store.AddCourseMetadata(ctx, course); err != nil {
		return nil, 0, err
	}
	if err := s.store.AddCourseContent(ctx, chunks); err != nil {
		return nil, 0, err
	}

	attrs := []any{
		"course", course.Title,
		"lessons", len(course.Lessons),
		"chunks", len(chunks),
	}
	if s.tokens != nil {
		stats := s.tokens.CountChunks(chunks)
		attrs = append(attrs, "tokens", stats.TotalTokens, "max_chunk_tokens", stats.MaxTokens)
	}
	slog.Info("Indexed course document", attrs...)
	return course, len(chunks), nil
}

// AddCourseFolder indexes every supported document in a folder,
// skipping courses whose titles are already in the store. It returns
// the number of courses and chunks added.
func (s *System) AddCourseFolder(ctx context.Context, folder string, clearExisting bool) (int, int, error) {
	if clearExisting {
		slog.Info("Clearing existing course data")
		if err := s.store.ClearAll(ctx); err != nil {
			return 0, 0, err
		}
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read docs folder: %w", err)
	}

	existing, err := s.store.ExistingCourseTitles(ctx)
	if err != nil {
		return 0, 0, err
	}
	indexed := make(map[string]bool, len(existing))
	for _, title := range existing {
		indexed[title] = true
	}

	type parsed struct {
		course *store.Course
		chunks []store.CourseChunk
	}

	var docs []parsed
	for _, entry := range entries {
		if entry.IsDir() || !docproc.IsSupportedDocument(entry.Name()) {
			continue
		}

		path := filepath.Join(folder, entry.Name())
		course, chunks, err := s.processor.ParseCourseDocument(path)
		if err != nil {
			slog.Warn("Skipping unreadable document", "path", path, "error", err)
			continue
		}
		if indexed[course.Title] {
			slog.Debug("Course already indexed, skipping", "course", course.Title)
			continue
		}

		indexed[course.Title] = true
		docs = append(docs, parsed{course: course, chunks: chunks})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexConcurrency)

	chunksAdded := 0
	tokensAdded := 0
	for _, doc := range docs {
		g.Go(func() error {
			if err := s.store.AddCourseMetadata(gctx, doc.course); err != nil {
				return err
			}
			return s.store.AddCourseContent(gctx, doc.chunks)
		})
		chunksAdded += len(doc.chunks)
		if s.tokens != nil {
			tokensAdded += s.tokens.CountChunks(doc.chunks).TotalTokens
		}
	}
	if err := g.Wait(); err != nil {
		return 0, 0, fmt.Errorf("failed to index folder: %w", err)
	}

	attrs := []any{"folder", folder, "courses", len(docs), "chunks", chunksAdded}
	if s.tokens != nil {
		attrs = append(attrs, "tokens", tokensAdded)
	}
	slog.Info("Indexed course folder", attrs...)
	return len(docs), chunksAdded, nil
}

// GetCourseAnalytics reports the indexed catalog.
func (s *System) GetCourseAnalytics(ctx context.Context) (*Analytics, error) {
	titles, err := s.store.ExistingCourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(titles)

	return &Analytics{
		TotalCourses: len(titles),
		CourseTitles: titles,
	}, nil
}

// instrumentedExecutor wraps the tool registry with per-execution
// metrics.
type instrumentedExecutor struct {
	registry *tools.ToolRegistry
	metrics  observability.Metrics
}

func (e *instrumentedExecutor) Execute(ctx context.Context, name string, args map[string]interface{}) (tools.ToolResult, error) {
	start := time.Now()
	result, err := e.registry.Execute(ctx, name, args)
	if e.metrics != nil {
		e.metrics.RecordToolExecution(ctx, name, time.Since(start), err)
	}
	return result, err
}

func (e *instrumentedExecutor) Definitions() []llms.ToolDefinition {
	return e.registry.Definitions()
}
