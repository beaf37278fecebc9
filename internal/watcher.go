package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is how long the watcher waits for a directory to go quiet
// before uploading what changed
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures a Watcher
type WatchOptions struct {
	Extensions      []string // e.g. ".pdf"; empty means every file
	Debounce        time.Duration
	IncludeExisting bool
	OnUpload        func(paths []string, res UploadResult)
}

// Watcher uploads documents that appear or change in a directory
type Watcher struct {
	ctrl *Controller
	dir  string
	opts WatchOptions
	fsw  *fsnotify.Watcher
}

// NewWatcher creates a watcher for dir that uploads through ctrl
func NewWatcher(ctrl *Controller, dir string, opts WatchOptions) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	exts := make([]string, 0, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	opts.Extensions = exts

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{ctrl: ctrl, dir: dir, opts: opts, fsw: fsw}, nil
}

// Close releases the underlying watch. Run closes it on return.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run watches until ctx is cancelled. Cancellation is a clean stop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	LogInfo("Watching %s", w.dir)

	batches := make(chan []string)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		return w.collect(gctx, batches)
	})

	g.Go(func() error {
		for batch := range batches {
			w.upload(gctx, batch)
		}
		return nil
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Watcher) collect(ctx context.Context, batches chan<- []string) error {
	pending := make(map[string]struct{})

	if w.opts.IncludeExisting {
		entries, err := os.ReadDir(w.dir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", w.dir, err)
		}
		for _, e := range entries {
			path := filepath.Join(w.dir, e.Name())
			if e.Type().IsRegular() && w.matches(path) {
				pending[path] = struct{}{}
			}
		}
	}

	timer := time.NewTimer(w.opts.Debounce)
	if len(pending) == 0 {
		timer.Stop()
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.matches(event.Name) || !isRegularFile(event.Name) {
				continue
			}
			LogDebug("Change detected: %s", event.Name)
			pending[event.Name] = struct{}{}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			LogWarn("Watcher error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})

			select {
			case batches <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (w *Watcher) upload(ctx context.Context, paths []string) {
	opened, err := OpenUploadFiles(paths)
	if err != nil {
		// The file may have vanished between the event and the upload
		LogWarn("Skipping batch: %v", err)
		return
	}
	defer func() { _ = opened.Close() }()

	res, _ := w.ctrl.UploadFiles(ctx, opened.Files)
	if w.opts.OnUpload != nil {
		w.opts.OnUpload(paths, res)
	}
}

func (w *Watcher) matches(path string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
