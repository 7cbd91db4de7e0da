package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/sqlconvert/internal/loader"
)

// DefaultDebounce is how long Watch waits for file events to settle.
const DefaultDebounce = 200 * time.Millisecond

// WatchFunc receives the report of every batch started by Watch.
type WatchFunc func(*Report, error)

// Watch converts root, then re-converts whenever a .sql file under it
// changes. Only changed scripts and their dependents are rendered again.
// Watch returns when ctx is done.
func (e *Engine) Watch(ctx context.Context, root string, fn WatchFunc) error {
	return e.watch(ctx, root, DefaultDebounce, fn)
}

// WatchWithDebounce is Watch with a custom settle time. A non-positive
// debounce uses DefaultDebounce.
func (e *Engine) WatchWithDebounce(ctx context.Context, root string, debounce time.Duration, fn WatchFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return e.watch(ctx, root, debounce, fn)
}

func (e *Engine) watch(ctx context.Context, root string, debounce time.Duration, fn WatchFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	single := !info.IsDir()
	if single {
		err = w.Add(filepath.Dir(root))
	} else {
		err = addTree(w, root)
	}
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	var hashes map[string]string
	run := func() {
		report, err := e.convert(ctx, root, hashes)
		if report != nil && report.Plan != nil {
			hashes = report.Plan.Hashes()
		}
		if ctx.Err() == nil {
			fn(report, err)
		}
	}
	run()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && !single {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !hidden(ev.Name) {
					if err := addTree(w, ev.Name); err != nil {
						e.logger.Warn("failed to watch directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if !relevant(ev, root, single) {
				continue
			}
			e.logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			run()
		}
	}
}

func relevant(ev fsnotify.Event, root string, single bool) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if single {
		return filepath.Clean(ev.Name) == filepath.Clean(root)
	}
	return loader.IsScriptFile(ev.Name) && !hidden(ev.Name)
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// addTree watches dir and every non-hidden directory below it.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
