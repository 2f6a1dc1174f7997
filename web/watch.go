package web

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/heronhoga/bars-fe/logger"
)

// Watch reloads templates when files under dir/templates change. It returns
// when ctx is done. Embedded templates are never watched.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Join(r.dir, "templates")
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("Watching templates", logger.String("dir", dir))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".html") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := r.Reload(); err != nil {
				logger.Warn("Template reload failed", logger.String("file", event.Name), logger.ErrorField(err))
				continue
			}
			logger.Info("Templates reloaded", logger.String("file", event.Name))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logger.ErrorField(err))

		case <-ctx.Done():
			return nil
		}
	}
}
