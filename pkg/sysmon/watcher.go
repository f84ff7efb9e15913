package sysmon

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long a watched file must stay quiet before its
// change is reported.
const DefaultSettleDelay = 500 * time.Millisecond

// relevantOps are the events that can alter a file's content. Chmod alone
// is ignored.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

type watcherState int

const (
	watcherIdle watcherState = iota
	watcherRunning
	watcherStopped
)

// FileWatcher reports changes to a fixed set of files, such as the
// configuration file and its .env companion. The parent directory of every
// file is watched, so atomic saves and files created later are seen.
// Changes arriving within the settle delay of each other are reported
// together in one call.
type FileWatcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]struct{}
	settle   time.Duration
	onChange func(changed []string) error
	onError  func(error)

	mu     sync.Mutex
	state  watcherState
	done   chan struct{}
	exited chan struct{}
}

// NewFileWatcher watches paths. onChange receives the sorted absolute paths
// that changed; its error, like fsnotify's own errors, goes to onError.
// Either callback may be nil.
func NewFileWatcher(paths []string, settle time.Duration, onChange func(changed []string) error, onError func(error)) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}
	if settle <= 0 {
		settle = DefaultSettleDelay
	}

	files := make(map[string]struct{}, len(paths))
	var dirs []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	return &FileWatcher{
		fsw:      fsw,
		files:    files,
		settle:   settle,
		onChange: onChange,
		onError:  onError,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}, nil
}

// Start launches the event loop. Calls after the first, or after Stop, do
// nothing.
func (w *FileWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != watcherIdle {
		return
	}
	w.state = watcherRunning
	go w.run()
}

// Stop ends the event loop and releases the fsnotify handle. A pending
// change that has not settled yet is dropped. Stop is idempotent.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	prev := w.state
	w.state = watcherStopped
	w.mu.Unlock()

	switch prev {
	case watcherIdle:
		w.fsw.Close()
	case watcherRunning:
		close(w.done)
		<-w.exited
	}
}

func (w *FileWatcher) run() {
	defer close(w.exited)
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if path, ok := w.relevant(ev); ok {
				pending[path] = struct{}{}
				timer.Reset(w.settle)
			}

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			clear(pending)
			slices.Sort(changed)
			w.report(changed)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.fail(err)
		}
	}
}

// relevant returns the watched path an event refers to.
func (w *FileWatcher) relevant(ev fsnotify.Event) (string, bool) {
	if ev.Op&relevantOps == 0 {
		return "", false
	}
	path := filepath.Clean(ev.Name)
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", false
		}
		path = abs
	}
	_, ok := w.files[path]
	return path, ok
}

func (w *FileWatcher) report(changed []string) {
	if w.onChange == nil || len(changed) == 0 {
		return
	}
	if err := w.onChange(changed); err != nil {
		w.fail(err)
	}
}

func (w *FileWatcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
