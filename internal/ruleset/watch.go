package ruleset

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/csvrules/internal/catalog"
)

// Apply loads the ruleset at path and swaps it into the catalog. On error
// the catalog keeps its previous ruleset entries.
func Apply(path string) ([]catalog.Entry, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	entries, err := Build(f, CatalogLookup)
	if err != nil {
		return nil, err
	}
	if err := catalog.Replace(catalog.SourceRuleset, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Watch re-applies the ruleset at path whenever it changes, waiting for
// debounce after the last event so editors that write in several steps
// trigger a single reload. The parent directory is watched because many
// editors replace the file instead of writing it in place.
//
// Close the returned io.Closer to stop watching; later calls are no-ops
// returning the first result. onReload, if set, is
// called after every reload attempt with its outcome.
func Watch(path string, debounce time.Duration, onReload func([]catalog.Entry, error)) (io.Closer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				entries, err := Apply(path)
				if err != nil {
					slog.Error("ruleset reload failed", "path", path, "error", err)
				} else {
					slog.Info("ruleset reloaded", "path", path, "parsers", len(entries))
				}
				if onReload != nil {
					onReload(entries, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("ruleset watcher error", "path", path, "error", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if shouldReload(evt, target) {
					resetTimer()
				}
			}
		}
	}()

	slog.Info("ruleset watch enabled", "path", path, "debounce", debounce)
	return closerFunc(sync.OnceValue(func() error {
		close(stopCh)
		err := watcher.Close()
		<-doneCh
		return err
	})), nil
}

func shouldReload(evt fsnotify.Event, target string) bool {
	if filepath.Clean(evt.Name) != target {
		return false
	}
	return evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}
