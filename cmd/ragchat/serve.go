package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgryszko/starting-ragchatbot-codebase/config"
	"github.com/mgryszko/starting-ragchatbot-codebase/embedders"
	"github.com/mgryszko/starting-ragchatbot-codebase/llms"
	"github.com/mgryszko/starting-ragchatbot-codebase/observability"
	"github.com/mgryszko/starting-ragchatbot-codebase/rag"
	"github.com/mgryszko/starting-ragchatbot-codebase/server"
	"github.com/mgryszko/starting-ragchatbot-codebase/session"
	"github.com/mgryszko/starting-ragchatbot-codebase/store"
	"github.com/mgryszko/starting-ragchatbot-codebase/vector"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Address    string `help:"Listen address (overrides config)." placeholder:"HOST:PORT"`
	DocsFolder string `name:"docs-folder" help:"Folder with course documents (overrides config)." type:"path"`
	NoIndex    bool   `name:"no-index" help:"Skip indexing the docs folder at startup."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.DocsFolder != "" {
		cfg.DocsFolder = c.DocsFolder
	}

	metrics, err := observability.InitMetrics(cfg.Metrics)
	if err != nil {
		return err
	}

	system, cleanup, err := buildSystem(cfg, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !c.NoIndex {
		if _, err := os.Stat(cfg.DocsFolder); err == nil {
			courses, chunks, err := system.AddCourseFolder(ctx, cfg.DocsFolder, false)
			if err != nil {
				return fmt.Errorf("startup indexing failed: %w", err)
			}
			slog.Info("Startup indexing complete", "courses", courses, "chunks", chunks)
		} else {
			slog.Warn("Docs folder not found, starting without documents", "folder", cfg.DocsFolder)
		}
	}

	if cfg.WatchDocs {
		go func() {
			if err := system.WatchDocs(ctx, cfg.DocsFolder); err != nil && ctx.Err() == nil {
				slog.Error("Docs watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(system, metrics, cfg.Server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// IndexCmd indexes course documents and exits.
type IndexCmd struct {
	DocsFolder string `name:"docs-folder" help:"Folder with course documents (overrides config)." type:"path"`
	Clear      bool   `help:"Clear existing course data before indexing."`
}

func (c *IndexCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if c.DocsFolder != "" {
		cfg.DocsFolder = c.DocsFolder
	}

	system, cleanup, err := buildSystem(cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	courses, chunks, err := system.AddCourseFolder(ctx, cfg.DocsFolder, c.Clear)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d courses (%d chunks)\n", courses, chunks)
	return nil
}

// buildSystem wires the full stack from configuration. The returned
// cleanup closes every component.
func buildSystem(cfg *config.Config, metrics observability.Metrics) (*rag.System, func(), error) {
	provider, err := vector.NewProvider(&cfg.Vector)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create vector provider: %w", err)
	}

	embedder, err := embedders.NewEmbedder(&cfg.Embedder)
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	closeStorage := func() {
		embedder.Close()
		provider.Close()
	}

	vectorStore, err := store.New(provider, embedder, cfg.Store)
	if err != nil {
		closeStorage()
		return nil, nil, err
	}

	var sessionStore session.Store
	if cfg.Session.Path != "" {
		sessionStore, err = session.NewSQLiteStore(cfg.Session.Path)
		if err != nil {
			vectorStore.Close()
			closeStorage()
			return nil, nil, err
		}
	} else {
		sessionStore = session.NewMemoryStore(cfg.Session.MaxHistory)
	}
	sessions := session.NewManager(sessionStore, cfg.Session)

	llm, err := llms.NewAnthropicProvider(&cfg.Anthropic)
	if err != nil {
		sessions.Close()
		vectorStore.Close()
		closeStorage()
		return nil, nil, err
	}

	system, err := rag.New(llm, vectorStore, sessions, cfg.Chunking, metrics)
	if err != nil {
		llm.Close()
		sessions.Close()
		vectorStore.Close()
		closeStorage()
		return nil, nil, err
	}

	cleanup := func() {
		llm.Close()
		sessions.Close()
		vectorStore.Close()
		embedder.Close()
		provider.Close()
	}
	return system, cleanup, nil
}
