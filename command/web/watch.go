package web

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// watchFiles calls onChange once per burst of writes to any of paths. The parent directories
// are watched so that files replaced by rename are still seen.
func watchFiles(ctx context.Context, paths []string, debounce time.Duration, onChange func(path string)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return nil, err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	go func() {
		var mu sync.Mutex
		timers := map[string]*time.Timer{}
		defer func() {
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				abs, _ := filepath.Abs(event.Name)
				if !watched[abs] {
					continue
				}
				mu.Lock()
				if t, exists := timers[abs]; exists {
					t.Stop()
				}
				timers[abs] = time.AfterFunc(debounce, func() { onChange(abs) })
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("web.watch.error", "error", err)
			}
		}
	}()
	slog.Info("web.watch.start", "files", len(watched))
	return watcher, nil
}

// schedule runs fn on the given cron spec until the returned scheduler is stopped.
func schedule(spec string, fn func()) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, fn); err != nil {
		return nil, fmt.Errorf("invalid refresh cron %q: %w", spec, err)
	}
	c.Start()
	slog.Info("web.cron.start", "spec", spec)
	return c, nil
}
