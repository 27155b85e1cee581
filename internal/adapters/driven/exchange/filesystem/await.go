package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/radar-trace/internal/logger"
)

// settleDelay is how long a matching outbox file must stay unchanged before
// Await treats it as complete.
var settleDelay = 2 * time.Second

// Await blocks until an outbox file whose name contains match exists and has
// stopped changing, or ctx is done.
func (e *Exchange) Await(ctx context.Context, match string) error {
	if err := os.MkdirAll(e.outbox, 0755); err != nil {
		return fmt.Errorf("create outbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create outbox watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch before scanning so a file landing in between is not missed.
	if err := watcher.Add(e.outbox); err != nil {
		return fmt.Errorf("watch outbox: %w", err)
	}

	settle := time.NewTimer(settleDelay)
	if !e.hasMatch(match) {
		settle.Stop()
		logger.Info("Waiting for a traced file matching %q in %s", match, e.outbox)
	}
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("outbox watcher closed")
			}
			if !matchesName(filepath.Base(event.Name), match) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				logger.Debug("Outbox %s: %s", event.Op, event.Name)
				settle.Reset(settleDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("outbox watcher closed")
			}
			logger.Warn("Outbox watcher error: %v", err)
		case <-settle.C:
			return nil
		}
	}
}

func (e *Exchange) hasMatch(match string) bool {
	entries, err := os.ReadDir(e.outbox)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && matchesName(entry.Name(), match) {
			return true
		}
	}
	return false
}
