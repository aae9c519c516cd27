package rag

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgryszko/starting-ragchatbot-codebase/docproc"
)

const watchDebounceDelay = 500 * time.Millisecond

// WatchDocs re-indexes course documents as they appear or change in
// the folder. Events are debounced to coalesce editor write bursts.
// Blocks until ctx is cancelled.
func (s *System) WatchDocs(ctx context.Context, folder string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(folder); err != nil {
		return err
	}
	slog.Info("Watching docs folder", "folder", folder)

	pending := make(map[string]struct{})
	var pendingMu sync.Mutex
	var debounceTimer *time.Timer

	reindex := func() {
		pendingMu.Lock()
		paths := pending
		pending = make(map[string]struct{})
		pendingMu.Unlock()

		for path := range paths {
			if _, _, err := s.AddCourseDocument(ctx, path); err != nil {
				slog.Warn("Failed to re-index changed document", "path", path, "error", err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !docproc.IsSupportedDocument(event.Name) {
				continue
			}

			pendingMu.Lock()
			pending[event.Name] = struct{}{}
			pendingMu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounceDelay, reindex)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Docs watcher error", "folder", folder, "error", err)
		}
	}
}
