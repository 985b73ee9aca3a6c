package calendar

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchedOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Resetter drops cached data
type Resetter interface {
	Reset()
}

// Watch resets the store whenever one of the source files changes.
// It blocks until ctx is cancelled.
func Watch(ctx context.Context, store Resetter, src Source, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range []string{src.Path, src.FallbackPath} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	// Watch directories, not files, so replacing the file via rename is seen
	watching := 0
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logger.Warn("Cannot watch data directory",
				zap.String("dir", dir),
				zap.Error(err))
			continue
		}
		watching++
	}
	if watching == 0 {
		return fmt.Errorf("no data directory could be watched")
	}

	logger.Info("Watching holiday data files", zap.Int("directories", watching))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&watchedOps == 0 || !files[filepath.Clean(event.Name)] {
				continue
			}
			logger.Info("Holiday data file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			store.Reset()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", zap.Error(err))
		}
	}
}
