// Package filecontrol implements ports.Control with marker files.
//
// A ".stop" file in the watched directory requests a stop; a ".pause" file
// pauses capture for as long as it exists. Another process (a wrapping UI, a
// shell script, `timelapse pause`) drives the recorder by creating and
// removing these files.
package filecontrol

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/user/timelapse/pkg/ports"
)

const (
	// StopMarker is the name of the stop request file.
	StopMarker = ".stop"
	// PauseMarker is the name of the pause file.
	PauseMarker = ".pause"
)

// Control watches a directory for marker files.
type Control struct {
	dir    string
	logger ports.Logger

	stop   atomic.Bool
	paused atomic.Bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a control for dir. Call Start to begin watching.
func New(dir string, logger ports.Logger) *Control {
	return &Control{
		dir:    dir,
		logger: logger.WithComponent("control"),
	}
}

// Ensure Control implements ports.Control
var _ ports.Control = (*Control)(nil)

// Dir returns the watched directory.
func (c *Control) Dir() string {
	return c.dir
}

// ClearMarkers removes stale marker files left by a previous session.
func (c *Control) ClearMarkers() error {
	for _, name := range []string{StopMarker, PauseMarker} {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	c.stop.Store(false)
	c.paused.Store(false)
	return nil
}

// Start begins watching the directory. When the watcher cannot be created
// the control still works by checking the markers on every poll.
func (c *Control) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Warn("File watcher unavailable, polling markers: %s", err.Error())
		return nil
	}
	if err := w.Add(c.dir); err != nil {
		w.Close()
		c.logger.Warn("File watcher unavailable, polling markers: %s", err.Error())
		return nil
	}

	c.watcher = w
	c.done = make(chan struct{})
	c.refresh()

	c.wg.Add(1)
	go c.watch(w, c.done)
	return nil
}

// Close stops the watcher.
func (c *Control) Close() error {
	c.mu.Lock()
	w := c.watcher
	done := c.done
	c.watcher = nil
	c.mu.Unlock()

	if w == nil {
		return nil
	}
	close(done)
	err := w.Close()
	c.wg.Wait()
	return err
}

// StopRequested reports whether the stop marker has been seen.
// The marker is checked directly as well so a missed event never hides a stop.
func (c *Control) StopRequested() bool {
	if c.stop.Load() {
		return true
	}
	if c.exists(StopMarker) {
		c.stop.Store(true)
		return true
	}
	return false
}

// Paused reports whether the pause marker exists.
func (c *Control) Paused() bool {
	if !c.watching() {
		return c.exists(PauseMarker)
	}
	return c.paused.Load()
}

// RequestStop creates the stop marker.
func (c *Control) RequestStop() error {
	return c.touch(StopMarker)
}

// RequestPause creates the pause marker.
func (c *Control) RequestPause() error {
	return c.touch(PauseMarker)
}

// RequestResume removes the pause marker.
func (c *Control) RequestResume() error {
	err := os.Remove(filepath.Join(c.dir, PauseMarker))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove pause marker: %w", err)
	}
	return nil
}

func (c *Control) watch(w *fsnotify.Watcher, done chan struct{}) {
	defer c.wg.Done()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			switch filepath.Base(ev.Name) {
			case StopMarker, PauseMarker:
				c.refresh()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			c.logger.Debug("Watcher error: %s", err.Error())
			c.refresh()
		}
	}
}

func (c *Control) refresh() {
	if c.exists(StopMarker) {
		c.stop.Store(true)
	}
	c.paused.Store(c.exists(PauseMarker))
}

func (c *Control) watching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watcher != nil
}

func (c *Control) exists(name string) bool {
	_, err := os.Stat(filepath.Join(c.dir, name))
	return err == nil
}

func (c *Control) touch(name string) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create control dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, name), nil, 0644); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}
