package i18n

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// Watcher reloads locale packs when files in the locale directory change.
type Watcher struct {
	manager *Manager
	log     *slog.Logger
}

// NewWatcher constructs a Watcher for the provided manager.
func NewWatcher(manager *Manager, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{manager: manager, log: log}
}

// Run watches the locale directory until ctx is cancelled, reloading packs on
// write events. Rapid bursts of events are coalesced into a single reload.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.manager == nil || w.manager.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.manager.dir); err != nil {
		return err
	}

	var pending *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isLocaleFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("locale watcher error", slog.Any("error", err))
		case <-reload:
			if err := w.manager.Reload(); err != nil {
				w.log.Error("locale pack reload failed", slog.Any("error", err))
				continue
			}
			w.log.Info("locale packs reloaded", slog.Any("languages", w.manager.Languages()))
		}
	}
}

func isLocaleFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
