// Package watch provides a filesystem-change subscription backed by
// fsnotify.
package watch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// Change is the payload dispatched for each filesystem event.
type Change struct {
	Path string `json:"path"`
	Op   string `json:"op"` // CREATE, WRITE, REMOVE, RENAME, CHMOD.
}

// Config describes one watch subscription.
type Config[S any] struct {
	Path   string
	Action domain.Action[S]
}

// Dir declares a subscription watching a directory (or single file) and
// dispatching the action with a Change per event.
func Dir[S any](path string, action domain.Action[S]) domain.Subscription[S] {
	return domain.Subscription[S]{
		Runner: run[S],
		Data:   Config[S]{Path: path, Action: action},
	}
}

func run[S any](ctx context.Context, dispatch domain.Dispatch[S], data any) (domain.StopFunc, error) {
	cfg := data.(Config[S])
	if cfg.Path == "" {
		return nil, errors.New("watch: empty path")
	}
	if cfg.Action == nil {
		return nil, errors.New("watch: nil action")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(cfg.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok || ctx.Err() != nil {
					return
				}
				_ = dispatch(cfg.Action, Change{Path: ev.Name, Op: ev.Op.String()})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watch error", "path", cfg.Path, "error", err)
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}
