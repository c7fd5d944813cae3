// Package windowfinder locates the active window on each supported platform.
//
//   - Linux: xdotool (X11)
//   - macOS: osascript / System Events
//   - Windows: user32 GetForegroundWindow + GetWindowRect
package windowfinder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/timelapse/pkg/ports"
)

// ErrPlatformNotSupported is returned on platforms without a window finder.
var ErrPlatformNotSupported = errors.New("windowfinder: platform not supported")

type platformFinder interface {
	find(ctx context.Context) (ports.Region, error)
}

// Finder implements ports.WindowFinder for the current platform.
type Finder struct {
	platform platformFinder
}

// New creates a finder for the current platform.
func New() *Finder {
	return &Finder{platform: newPlatformFinder()}
}

// FindActiveWindow returns the screen bounds of the focused window.
func (f *Finder) FindActiveWindow(ctx context.Context) (ports.Region, error) {
	return f.platform.find(ctx)
}

// Ensure Finder implements ports.WindowFinder
var _ ports.WindowFinder = (*Finder)(nil)

// parseShellGeometry parses `xdotool getwindowgeometry --shell` output
// (KEY=VALUE lines).
func parseShellGeometry(out string) (ports.Region, error) {
	values := map[string]int{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		values[key] = n
	}

	for _, k := range []string{"X", "Y", "WIDTH", "HEIGHT"} {
		if _, ok := values[k]; !ok {
			return ports.Region{}, fmt.Errorf("geometry missing %s", k)
		}
	}
	r := ports.Region{X: values["X"], Y: values["Y"], Width: values["WIDTH"], Height: values["HEIGHT"]}
	if !r.Valid() {
		return ports.Region{}, ports.ErrWindowNotFound
	}
	return r, nil
}

// parseBounds parses four comma separated integers: x, y, width, height.
func parseBounds(out string) (ports.Region, error) {
	fields := strings.Split(strings.TrimSpace(out), ",")
	if len(fields) != 4 {
		return ports.Region{}, fmt.Errorf("unexpected bounds %q", strings.TrimSpace(out))
	}
	var n [4]int
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return ports.Region{}, fmt.Errorf("parse bounds %q: %w", f, err)
		}
		n[i] = v
	}
	r := ports.Region{X: n[0], Y: n[1], Width: n[2], Height: n[3]}
	if !r.Valid() {
		return ports.Region{}, ports.ErrWindowNotFound
	}
	return r, nil
}
