package app

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher polls a file's modification time and invokes a callback when
// it changes. It is used to reload a mesh edited by another program.
type FileWatcher struct {
	path          string
	checkInterval time.Duration

	mu       sync.Mutex
	modTime  time.Time
	stopCh   chan struct{}
	onChange func(path string)
}

// NewFileWatcher creates a watcher for path. The file must exist; its
// current modification time is the baseline.
func NewFileWatcher(path string, checkInterval time.Duration) (*FileWatcher, error) {
	// Follow symlinks so the target's mtime is watched.
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		path:          path,
		checkInterval: checkInterval,
		modTime:       info.ModTime(),
	}, nil
}

// OnChange sets the callback to invoke when the file changes.
// The callback is called from the watcher goroutine.
func (w *FileWatcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins polling in a background goroutine.
func (w *FileWatcher) Start() {
	w.mu.Lock()
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()
	go w.watchLoop(stop)
}

// Stop stops the watcher goroutine. It is safe to call more than once.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *FileWatcher) watchLoop(stop chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if w.Check() {
				w.mu.Lock()
				cb := w.onChange
				w.mu.Unlock()
				if cb != nil {
					cb(w.path)
				}
			}
		}
	}
}

// Check reports whether the file changed since the last check, and moves
// the baseline forward when it has.
func (w *FileWatcher) Check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !info.ModTime().Equal(w.modTime) {
		w.modTime = info.ModTime()
		return true
	}
	return false
}

// Path returns the watched file.
func (w *FileWatcher) Path() string {
	return w.path
}

// WatchMesh reloads the mesh at path whenever it changes on disk.
// Stop the returned watcher when done.
func (s *Session) WatchMesh(path string, interval time.Duration) (*FileWatcher, error) {
	w, err := NewFileWatcher(path, interval)
	if err != nil {
		return nil, classify(err)
	}
	w.OnChange(func(p string) {
		logger().Info("mesh file changed", "path", p)
		_ = s.LoadMesh(p)
	})
	w.Start()
	return w, nil
}
