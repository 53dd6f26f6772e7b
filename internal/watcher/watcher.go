// Package watcher monitors a drop directory and triggers an alignment run
// whenever a new transcript file lands next to its slide images.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/b08x/slide-align/internal/logger"
)

// EventHandler processes one detected transcript file.
type EventHandler func(ctx context.Context, transcriptPath string) error

type Watcher struct {
	dir     string
	handler EventHandler
	logger  logger.Logger
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	running chan struct{}
}

// New creates a watcher over dir. Runs are serialized: a second transcript
// arriving while one run is in flight waits its turn, matching the
// one-run-at-a-time pipeline invariant.
func New(dir string, handler EventHandler, log logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		logger:  log,
		watcher: fw,
		running: make(chan struct{}, 1),
	}, nil
}

// Start blocks, dispatching runs until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "watching %s for transcripts (.ass .srt .vtt .txt .md)", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "waiting for in-flight run to finish")
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !isTranscript(event.Name) {
				w.logger.Debug(ctx, "ignoring %s", event.Name)
				continue
			}
			w.logger.Info(ctx, "new transcript detected: %s", event.Name)

			// Give the writer a moment to finish the file.
			time.Sleep(500 * time.Millisecond)

			select {
			case w.running <- struct{}{}:
				w.wg.Add(1)
				go func(path string) {
					defer w.wg.Done()
					defer func() { <-w.running }()
					if err := w.handler(ctx, path); err != nil {
						w.logger.Error(ctx, "run for %s failed: %v", path, err)
					}
				}(event.Name)
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "watcher error: %v", err)
		}
	}
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func isTranscript(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ass", ".srt", ".vtt", ".txt", ".md":
		return true
	default:
		return false
	}
}
