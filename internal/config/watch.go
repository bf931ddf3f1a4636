package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
)

// Watch monitors the config file at path and calls onChange with the
// freshly loaded Config each time the file changes. It blocks until ctx
// is cancelled. A reload that fails to parse or validate is logged and
// skipped; the previous configuration stays active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return err
	}

	log := logger.Named("config")
	log.Info(ctx, "watching for changes", logger.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save atomically via rename, which arrives as
			// Create rather than Write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(ctx)
			if err != nil {
				log.Error(ctx, "reload failed, keeping previous config",
					logger.String("path", path), logger.Error(err))
				continue
			}

			log.Info(ctx, "reloaded", logger.String("path", path))
			onChange(cfg)

			// An atomic save may have replaced the inode; re-add the path.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error(ctx, "watcher error", logger.Error(err))
		}
	}
}
