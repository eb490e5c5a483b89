package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/jobmatch/internal/logger"
)

// PromptWatcher reloads a PromptStore whenever a prompt file changes.
type PromptWatcher struct {
	store   *PromptStore
	watcher *fsnotify.Watcher

	// reloaded is signalled after each reload; tests read it.
	reloaded chan string

	closeOnce sync.Once
	done      chan struct{}
}

// NewPromptWatcher starts watching the store's prompt directory,
// creating it if needed.
func NewPromptWatcher(store *PromptStore) (*PromptWatcher, error) {
	if err := os.MkdirAll(store.Dir(), 0700); err != nil {
		return nil, fmt.Errorf("create prompt directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(store.Dir()); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", store.Dir(), err)
	}

	return &PromptWatcher{
		store:    store,
		watcher:  w,
		reloaded: make(chan string, 16),
		done:     make(chan struct{}),
	}, nil
}

// Run processes file events until ctx is cancelled or Close is called.
func (w *PromptWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Prompt watcher error: %v", err)
		}
	}
}

func (w *PromptWatcher) handle(event fsnotify.Event) {
	if filepath.Ext(event.Name) != ".txt" {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.store.Reload()
	logger.Debug("Reloaded prompts after %s on %s", event.Op, filepath.Base(event.Name))

	select {
	case w.reloaded <- event.Name:
	default:
	}
}

// Close stops the watcher.
func (w *PromptWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
