// Package watch reruns the canister build whenever its source tree changes.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// sourceSuffixes are the file types that trigger a rebuild. Everything
// else in the tree (editor swap files, build output) is ignored.
var sourceSuffixes = []string{".rs", ".toml", ".did"}

// Options tunes the watch loop.
type Options struct {
	// Debounce is how long the tree must stay quiet before a rebuild
	// fires. Rapid saves collapse into one rebuild.
	Debounce time.Duration
}

const defaultDebounce = 500 * time.Millisecond

// Run watches dir recursively and calls rebuild after changes settle.
// Rebuild failures are logged and watching continues; the loop exits
// only when ctx is cancelled or the watcher breaks.
func Run(ctx context.Context, log *zap.Logger, dir string, opts Options, rebuild func(context.Context) error) error {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addTree(watcher, dir); err != nil {
		return err
	}
	log.Info("watching for changes", zap.String("dir", dir))

	// Poll-based debounce: a short ticker checks whether the last
	// interesting event has settled past the debounce window.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var (
		dirty     bool
		lastEvent time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, ev.Name); err != nil {
						log.Warn("failed to watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			if !interesting(ev) {
				continue
			}
			log.Debug("source changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			dirty = true
			lastEvent = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			if !settled(dirty, lastEvent, now, debounce) {
				continue
			}
			dirty = false
			if err := rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("rebuild failed", zap.Error(err))
			}
		}
	}
}

// interesting reports whether the event should trigger a rebuild.
func interesting(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return sourceFile(ev.Name)
}

func sourceFile(name string) bool {
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// settled reports whether pending changes have been quiet long enough.
func settled(dirty bool, lastEvent, now time.Time, debounce time.Duration) bool {
	return dirty && now.Sub(lastEvent) >= debounce
}

// addTree registers dir and every subdirectory with the watcher. Hidden
// directories are skipped; fsnotify does not recurse on its own.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
